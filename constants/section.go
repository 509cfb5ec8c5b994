package constants

// SectionTag marks the contract section a chunk likely contains.
// A chunk may carry several tags, each with its own confidence.
type SectionTag string

const (
	SectionParty     SectionTag = "PARTY"
	SectionAccount   SectionTag = "ACCOUNT"
	SectionFinancial SectionTag = "FINANCIAL"
	SectionPayment   SectionTag = "PAYMENT"
	SectionRevenue   SectionTag = "REVENUE"
	SectionSLA       SectionTag = "SLA"
	SectionUnknown   SectionTag = "UNKNOWN"
)

// SectionTags lists every tag the classifier can emit, UNKNOWN excluded.
var SectionTags = []SectionTag{
	SectionParty,
	SectionAccount,
	SectionFinancial,
	SectionPayment,
	SectionRevenue,
	SectionSLA,
}
