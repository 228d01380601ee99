package exporter

// Column selects one value from each record.
type Column struct {
	Key string
	// Absent columns have no backing key and always yield nil.
	Absent bool
}

func (c Column) value(r Record) any {
	if c.Absent {
		return nil
	}
	v, _ := r.Get(c.Key)
	return v
}

// ColumnsFor decides the column order of a record export.
//
// Without headers the columns are the first record's keys in order. When
// every header names a key of the first record, headers select columns by
// name. Otherwise headers are display labels and map positionally onto the
// first record's keys; headers beyond the key count yield empty fields.
func ColumnsFor(first Record, headers []string) []Column {
	keys := first.Keys()

	if len(headers) == 0 {
		cols := make([]Column, len(keys))
		for i, k := range keys {
			cols[i] = Column{Key: k}
		}
		return cols
	}

	byName := true
	for _, h := range headers {
		if _, ok := first.Get(h); !ok {
			byName = false
			break
		}
	}

	cols := make([]Column, len(headers))
	for i, h := range headers {
		switch {
		case byName:
			cols[i] = Column{Key: h}
		case i < len(keys):
			cols[i] = Column{Key: keys[i]}
		default:
			cols[i] = Column{Absent: true}
		}
	}
	return cols
}
