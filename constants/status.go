package constants

// ContractStatus is the canonical processing state for a contract.
type ContractStatus string

// Stable values (store these exact strings).
const (
	StatusPending        ContractStatus = "PENDING"         // uploaded, waiting for a worker
	StatusExtractingText ContractStatus = "EXTRACTING_TEXT" // pulling raw text out of the document
	StatusChunking       ContractStatus = "CHUNKING"        // splitting text into windows
	StatusExtractingData ContractStatus = "EXTRACTING_DATA" // per-chunk AI/fallback extraction
	StatusMerging        ContractStatus = "MERGING"         // combining chunk fragments
	StatusScoring        ContractStatus = "SCORING"         // weighted scoring + gap analysis
	StatusCompleted      ContractStatus = "COMPLETED"       // terminal success
	StatusFailed         ContractStatus = "FAILED"          // terminal failure
)

// StageProgress maps each state to the progress percentage reported when the
// pipeline enters it. Progress only moves forward.
var StageProgress = map[ContractStatus]int{
	StatusPending:        0,
	StatusExtractingText: 10,
	StatusChunking:       30,
	StatusExtractingData: 50,
	StatusMerging:        80,
	StatusScoring:        95,
	StatusCompleted:      100,
}

// IsTerminal reports whether the status is COMPLETED or FAILED.
func (s ContractStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
