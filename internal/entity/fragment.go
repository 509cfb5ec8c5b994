package entity

import "github.com/contractintel/contract-intel/constants"

// FragmentSource identifies which extractor produced a fragment. A fragment
// is wholly AI-sourced or wholly fallback-sourced, never a blend.
type FragmentSource string

const (
	SourceAI       FragmentSource = "AI"
	SourceFallback FragmentSource = "FALLBACK"
)

// Fragment is the partial structured result for one chunk. It is immutable
// once created; the merge engine consumes fragments and never mutates them.
type Fragment struct {
	Source     FragmentSource `json:"source"`
	ChunkIndex int            `json:"chunk_index"`

	Parties               []Party                `json:"parties,omitempty"`
	AccountInfo           *AccountInfo           `json:"account_info,omitempty"`
	FinancialDetails      *FinancialDetails      `json:"financial_details,omitempty"`
	PaymentTerms          *PaymentTerms          `json:"payment_terms,omitempty"`
	RevenueClassification *RevenueClassification `json:"revenue_classification,omitempty"`
	SLA                   *SLA                   `json:"sla,omitempty"`
	ContractStartDate     string                 `json:"contract_start_date,omitempty"`
	ContractEndDate       string                 `json:"contract_end_date,omitempty"`
	ContractType          string                 `json:"contract_type,omitempty"`

	// ConfidenceByCategory is on the 0..100 scale used by the scoring engine.
	ConfidenceByCategory map[constants.Category]float64 `json:"confidence_by_category"`
}
