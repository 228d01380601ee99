package exporter

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// stringify converts a scalar to its CSV string form. The bool result is
// false for nil, which always encodes as an empty unquoted field.
func stringify(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []byte:
		return string(val), true
	case json.Number:
		return val.String(), true
	case bool:
		return formatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int8:
		return formatInt(int64(val)), true
	case int16:
		return formatInt(int64(val)), true
	case int32:
		return formatInt(int64(val)), true
	case int64:
		return formatInt(val), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint8:
		return strconv.FormatUint(uint64(val), 10), true
	case uint16:
		return strconv.FormatUint(uint64(val), 10), true
	case uint32:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return formatFloat(val), true
	case *big.Int:
		if val == nil {
			return "", false
		}
		return val.String(), true
	case time.Time:
		return val.Format(time.RFC3339), true
	case *string:
		if val == nil {
			return "", false
		}
		return *val, true
	case fmt.Stringer:
		return val.String(), true
	case error:
		return val.Error(), true
	default:
		return fmt.Sprint(val), true
	}
}

// formatFloat uses the shortest representation that round-trips, without exponent
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
