package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/contractintel/contract-intel/constants"
)

// Contract is the persisted envelope for one uploaded document. It is the
// only entity that outlives a processing run.
type Contract struct {
	ID         uuid.UUID                `json:"id"`
	Filename   string                   `json:"filename"`
	FileSize   int                      `json:"file_size"`
	Status     constants.ContractStatus `json:"status"`
	Progress   int                      `json:"progress"`
	UploadedAt time.Time                `json:"uploaded_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
	ParsedData *ContractData            `json:"parsed_data,omitempty"`
	Score      *int                     `json:"score,omitempty"`
	Gaps       []string                 `json:"gaps,omitempty"`
	Error      *string                  `json:"error,omitempty"`
}

// RawDocument is the extracted text handed to the pipeline. It is immutable
// and discarded once chunking completes.
type RawDocument struct {
	ContractID uuid.UUID
	Text       string
	ByteLen    int
	PageCount  int
}
