package inventory

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "inventorypro/internal/errors"
)

const transactionHeader = "sku,type,quantity,notes,created_by,created_at\n"

func TestSeededTransactions(t *testing.T) {
	c := seeded(t)

	all := c.Transactions("")
	require.Len(t, all, 8)
	assert.Equal(t, "ATK002", all[0].SKU, "newest first")
	assert.Equal(t, TransactionStats{Total: 8, TotalIn: 55, TotalOut: 87}, c.TransactionStats(""))

	laptop := c.Transactions("ELK001")
	require.Len(t, laptop, 2)
	assert.Equal(t, TransactionOut, laptop[0].Type)
	assert.Equal(t, TransactionIn, laptop[1].Type)
	assert.Equal(t, TransactionStats{Total: 2, TotalIn: 10, TotalOut: 3}, c.TransactionStats("ELK001"))

	p, _ := c.Get("ELK001")
	assert.Equal(t, 15, p.StockQuantity, "transactions do not move stock")
}

func TestTransaction_TypeLabel(t *testing.T) {
	assert.Equal(t, "Stock In", Transaction{Type: TransactionIn}.TypeLabel())
	assert.Equal(t, "Stock Out", Transaction{Type: TransactionOut}.TypeLabel())
	assert.Equal(t, "ADJ", Transaction{Type: "ADJ"}.TypeLabel())
}

func TestCatalog_AddTransaction(t *testing.T) {
	at := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		tx       Transaction
		wantType apperrors.ErrorType
	}{
		{name: "valid", tx: Transaction{SKU: "ELK002", Type: "in", Quantity: 5, CreatedAt: at}},
		{name: "unknown product", tx: Transaction{SKU: "NOPE", Type: "IN", Quantity: 5, CreatedAt: at}, wantType: apperrors.ErrTypeNotFound},
		{name: "unknown type", tx: Transaction{SKU: "ELK002", Type: "MOVE", Quantity: 5, CreatedAt: at}, wantType: apperrors.ErrTypeValidation},
		{name: "zero quantity", tx: Transaction{SKU: "ELK002", Type: "OUT", CreatedAt: at}, wantType: apperrors.ErrTypeValidation},
		{name: "no time", tx: Transaction{SKU: "ELK002", Type: "OUT", Quantity: 1}, wantType: apperrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := seeded(t)
			err := c.AddTransaction(tt.tx)

			if tt.wantType != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
				assert.Len(t, c.Transactions(""), 8)
				return
			}
			require.NoError(t, err)
			latest := c.Transactions("")[0]
			assert.Equal(t, TransactionIn, latest.Type, "type is normalised")
			assert.Equal(t, at, latest.CreatedAt)
		})
	}
}

func TestCatalog_ImportTransactionsCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantCreated int
		wantSkipped []int
		wantErr     bool
	}{
		{
			name:        "valid rows",
			input:       transactionHeader + "A1,IN,3,,,2024-05-01T10:00:00Z\nA1,out,1,sold,kasir,2024-05-01T11:00:00Z\n",
			wantCreated: 2,
		},
		{
			name:        "unknown sku",
			input:       transactionHeader + "B9,IN,3,,,2024-05-01T10:00:00Z\n",
			wantSkipped: []int{2},
		},
		{
			name:        "bad time",
			input:       transactionHeader + "A1,IN,3,,,yesterday\nA1,IN,3,,,2024-05-01T10:00:00Z\n",
			wantCreated: 1,
			wantSkipped: []int{2},
		},
		{
			name:        "negative quantity",
			input:       transactionHeader + "A1,OUT,-2,,,2024-05-01T10:00:00Z\n",
			wantSkipped: []int{2},
		},
		{
			name:    "missing columns",
			input:   "sku,type\nA1,IN\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCatalog(quietLogger())
			_, err := c.ImportCSV(strings.NewReader(header + "A1,Alpha,Cat,,1,1,1,1\n"))
			require.NoError(t, err)

			res, err := c.ImportTransactionsCSV(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, res.Created)
			assert.Len(t, c.Transactions("A1"), tt.wantCreated)

			var lines []int
			for _, s := range res.Skipped {
				lines = append(lines, s.Line)
				assert.NotEmpty(t, s.Errors)
			}
			assert.Equal(t, tt.wantSkipped, lines)
		})
	}
}
