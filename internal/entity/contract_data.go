package entity

import "github.com/contractintel/contract-intel/constants"

// Party is one contracting party. Role is customer, vendor or third_party.
type Party struct {
	Name               string `json:"name"`
	Role               string `json:"role"`
	LegalEntity        string `json:"legal_entity,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	Address            string `json:"address,omitempty"`
	ContactPerson      string `json:"contact_person,omitempty"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
}

// AccountInfo carries billing and support contact details.
type AccountInfo struct {
	AccountNumber           string `json:"account_number,omitempty"`
	BillingAddress          string `json:"billing_address,omitempty"`
	ContactEmail            string `json:"contact_email,omitempty"`
	ContactPhone            string `json:"contact_phone,omitempty"`
	TechnicalSupportContact string `json:"technical_support_contact,omitempty"`
}

// LineItem is one billed item or service.
type LineItem struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	TotalPrice  *float64 `json:"total_price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
}

// FinancialDetails aggregates the money side of the contract.
type FinancialDetails struct {
	LineItems          []LineItem `json:"line_items,omitempty"`
	TotalContractValue *float64   `json:"total_contract_value,omitempty"`
	Currency           string     `json:"currency,omitempty"`
	TaxAmount          *float64   `json:"tax_amount,omitempty"`
	AdditionalFees     *float64   `json:"additional_fees,omitempty"`
}

// PaymentTerms captures how and when the contract is paid.
type PaymentTerms struct {
	PaymentTerms    string   `json:"payment_terms,omitempty"` // Net 30, Net 60, ...
	PaymentSchedule string   `json:"payment_schedule,omitempty"`
	DueDates        []string `json:"due_dates,omitempty"`
	PaymentMethods  []string `json:"payment_methods,omitempty"`
	BankingDetails  string   `json:"banking_details,omitempty"`
}

// RevenueClassification identifies the payment pattern.
type RevenueClassification struct {
	PaymentType       string `json:"payment_type,omitempty"` // recurring, one_time, mixed
	BillingCycle      string `json:"billing_cycle,omitempty"`
	SubscriptionModel string `json:"subscription_model,omitempty"`
	RenewalTerms      string `json:"renewal_terms,omitempty"`
	AutoRenewal       *bool  `json:"auto_renewal,omitempty"`
}

// SLA holds service level commitments as captured text.
type SLA struct {
	PerformanceMetrics []string `json:"performance_metrics,omitempty"`
	Benchmarks         []string `json:"benchmarks,omitempty"`
	PenaltyClauses     []string `json:"penalty_clauses,omitempty"`
	Remedies           []string `json:"remedies,omitempty"`
	SupportTerms       string   `json:"support_terms,omitempty"`
	MaintenanceTerms   string   `json:"maintenance_terms,omitempty"`
}

// ContractData is the canonical merged record for a contract. It is mutable
// while the merge engine fills it and frozen after scoring.
type ContractData struct {
	Parties               []Party                        `json:"parties"`
	AccountInfo           *AccountInfo                   `json:"account_info,omitempty"`
	FinancialDetails      *FinancialDetails              `json:"financial_details,omitempty"`
	PaymentTerms          *PaymentTerms                  `json:"payment_terms,omitempty"`
	RevenueClassification *RevenueClassification         `json:"revenue_classification,omitempty"`
	SLA                   *SLA                           `json:"sla,omitempty"`
	ContractStartDate     string                         `json:"contract_start_date,omitempty"`
	ContractEndDate       string                         `json:"contract_end_date,omitempty"`
	ContractType          string                         `json:"contract_type,omitempty"`
	ConfidenceScores      map[constants.Category]float64 `json:"confidence_scores"`
}
