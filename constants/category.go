package constants

// Category is one of the five scoring dimensions for a contract.
type Category string

const (
	FinancialCompleteness Category = "financial_completeness"
	PartyIdentification   Category = "party_identification"
	PaymentTermsClarity   Category = "payment_terms_clarity"
	SLADefinition         Category = "sla_definition"
	ContactInformation    Category = "contact_information"
)

var allCategories = []Category{
	FinancialCompleteness,
	PartyIdentification,
	PaymentTermsClarity,
	SLADefinition,
	ContactInformation,
}

// CategoryWeights are the fixed scoring weights. They sum to 100.
var CategoryWeights = map[Category]int{
	FinancialCompleteness: 30,
	PartyIdentification:   25,
	PaymentTermsClarity:   20,
	SLADefinition:         15,
	ContactInformation:    10,
}

// Categories returns the scoring dimensions in weight order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}
