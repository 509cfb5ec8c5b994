package llm

import (
	"encoding/json"
	"fmt"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/entity"
)

// payload mirrors the wire schema from BuildContractJSONSchema.
type payload struct {
	Parties               []entity.Party                `json:"parties,omitempty"`
	AccountInfo           *entity.AccountInfo           `json:"account_info,omitempty"`
	FinancialDetails      *entity.FinancialDetails      `json:"financial_details,omitempty"`
	PaymentTerms          *entity.PaymentTerms          `json:"payment_terms,omitempty"`
	RevenueClassification *entity.RevenueClassification `json:"revenue_classification,omitempty"`
	SLA                   *entity.SLA                   `json:"sla,omitempty"`
	ContractStartDate     string                        `json:"contract_start_date,omitempty"`
	ContractEndDate       string                        `json:"contract_end_date,omitempty"`
	ContractType          string                        `json:"contract_type,omitempty"`
	ConfidenceScores      map[string]float64            `json:"confidence_scores"`
}

// DecodeFragment turns sanitized, schema-valid JSON into an AI-sourced
// fragment for the given chunk.
func DecodeFragment(data []byte, chunkIndex int) (entity.Fragment, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return entity.Fragment{}, fmt.Errorf("decode fragment: %w", err)
	}

	frag := entity.Fragment{
		Source:                entity.SourceAI,
		ChunkIndex:            chunkIndex,
		Parties:               p.Parties,
		AccountInfo:           p.AccountInfo,
		FinancialDetails:      p.FinancialDetails,
		PaymentTerms:          p.PaymentTerms,
		RevenueClassification: p.RevenueClassification,
		SLA:                   p.SLA,
		ContractStartDate:     p.ContractStartDate,
		ContractEndDate:       p.ContractEndDate,
		ContractType:          p.ContractType,
		ConfidenceByCategory:  make(map[constants.Category]float64, len(constants.Categories())),
	}
	for _, cat := range constants.Categories() {
		frag.ConfidenceByCategory[cat] = p.ConfidenceScores[string(cat)]
	}
	return frag, nil
}
