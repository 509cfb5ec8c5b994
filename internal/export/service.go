// Package export renders a scored contract record as an XLSX report.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/contractintel/contract-intel/internal/entity"
)

// Service produces XLSX bytes for contract exports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ContractXLSX returns a one-sheet workbook: a summary block, the parties
// table, the line-items table, and the gap list.
func (s *Service) ContractXLSX(c *entity.Contract) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Contract"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultIdx, _ := f.GetSheetIndex("Sheet1"); defaultIdx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	row := 1
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	writeRow := func(values ...any) {
		for i, v := range values {
			write(i+1, v)
		}
		row++
	}

	writeRow("Contract ID", c.ID.String())
	writeRow("Filename", c.Filename)
	writeRow("Status", string(c.Status))
	writeRow("Uploaded", c.UploadedAt.UTC().Format("2006-01-02 15:04"))
	if c.Score != nil {
		writeRow("Overall Score", *c.Score)
	}

	data := c.ParsedData
	if data != nil {
		if data.ContractType != "" {
			writeRow("Contract Type", data.ContractType)
		}
		if data.ContractStartDate != "" {
			writeRow("Start Date", data.ContractStartDate)
		}
		if data.ContractEndDate != "" {
			writeRow("End Date", data.ContractEndDate)
		}
		if fd := data.FinancialDetails; fd != nil && fd.TotalContractValue != nil {
			total := fmt.Sprintf("%.2f", *fd.TotalContractValue)
			if fd.Currency != "" {
				total += " " + fd.Currency
			}
			writeRow("Total Contract Value", total)
		}
	}

	if data != nil && len(data.Parties) > 0 {
		row++
		writeRow("Parties")
		writeRow("Name", "Role", "Email", "Phone", "Address")
		for _, p := range data.Parties {
			writeRow(p.Name, p.Role, p.Email, p.Phone, p.Address)
		}
	}

	if data != nil && data.FinancialDetails != nil && len(data.FinancialDetails.LineItems) > 0 {
		row++
		writeRow("Line Items")
		writeRow("Description", "Quantity", "Unit Price", "Total")
		for _, it := range data.FinancialDetails.LineItems {
			writeRow(
				truncate(it.Description, 140),
				floatOrBlank(it.Quantity),
				floatOrBlank(it.UnitPrice),
				floatOrBlank(it.TotalPrice),
			)
		}
	}

	if len(c.Gaps) > 0 {
		row++
		writeRow("Gaps")
		for _, g := range c.Gaps {
			writeRow(g)
		}
	}

	// Widen a few columns.
	_ = f.SetColWidth(sheet, "A", "A", 36)
	_ = f.SetColWidth(sheet, "B", "B", 22)
	_ = f.SetColWidth(sheet, "C", "C", 28)
	_ = f.SetColWidth(sheet, "D", "E", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"contract_id", c.ID.String(),
		"parties", partyCount(data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func partyCount(data *entity.ContractData) int {
	if data == nil {
		return 0
	}
	return len(data.Parties)
}

func floatOrBlank(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "…"
}
