package entity

import (
	"time"

	"github.com/joseph-ayodele/fra-claims/constants"
)

// StagedFile represents an uploaded document awaiting preview or commit.
type StagedFile struct {
	Ref         string                 `json:"ref"`
	Filename    string                 `json:"filename"`
	FileExt     string                 `json:"file_ext"`
	Kind        constants.DocumentKind `json:"kind"`
	FileSize    int64                  `json:"file_size"`
	ContentHash []byte                 `json:"content_hash"`
	Path        string                 `json:"-"`
	UploadedAt  time.Time              `json:"uploaded_at"`
}
