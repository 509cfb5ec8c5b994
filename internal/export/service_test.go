package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/entity"
)

func f64(v float64) *float64 { return &v }

func TestContractXLSX(t *testing.T) {
	score := 55
	c := &entity.Contract{
		ID:         uuid.New(),
		Filename:   "msa.pdf",
		Status:     constants.StatusCompleted,
		Progress:   100,
		UploadedAt: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
		Score:      &score,
		Gaps:       []string{"No SLA information found"},
		ParsedData: &entity.ContractData{
			Parties: []entity.Party{
				{Name: "Acme Inc", Role: "customer", Email: "acme@x.com"},
				{Name: "Globex LLC", Role: "vendor"},
			},
			FinancialDetails: &entity.FinancialDetails{
				TotalContractValue: f64(10000),
				Currency:           "USD",
				LineItems: []entity.LineItem{
					{Description: "Managed Server", Quantity: f64(5), UnitPrice: f64(120), TotalPrice: f64(600)},
				},
			},
			ContractType:      "Service Agreement",
			ContractStartDate: "January 1, 2024",
		},
	}

	svc := NewService(nil)
	b, err := svc.ContractXLSX(c)
	require.NoError(t, err)
	require.NotEmpty(t, b)

	// The workbook must round-trip through excelize and carry the content.
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows("Contract")
	require.NoError(t, err)

	flat := ""
	for _, r := range rows {
		for _, cell := range r {
			flat += cell + "|"
		}
	}
	assert.Contains(t, flat, c.ID.String())
	assert.Contains(t, flat, "msa.pdf")
	assert.Contains(t, flat, "55")
	assert.Contains(t, flat, "Acme Inc")
	assert.Contains(t, flat, "Globex LLC")
	assert.Contains(t, flat, "Managed Server")
	assert.Contains(t, flat, "No SLA information found")
	assert.Contains(t, flat, "10000.00 USD")
}

func TestContractXLSXMinimalRecord(t *testing.T) {
	c := &entity.Contract{
		ID:         uuid.New(),
		Filename:   "pending.pdf",
		Status:     constants.StatusPending,
		UploadedAt: time.Now().UTC(),
	}
	svc := NewService(nil)
	b, err := svc.ContractXLSX(c)
	require.NoError(t, err)
	assert.NotEmpty(t, b, "exports work before processing finishes")
}
