package domain

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceFile is metadata about one supporting file attached to a
// document version. The pack assembler snapshots this metadata only;
// the underlying bytes are never re-embedded.
type EvidenceFile struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`

	FileName    string `gorm:"column:file_name;not null" json:"file_name"`
	ContentType string `gorm:"column:content_type" json:"content_type,omitempty"`
	SizeBytes   int64  `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`

	UploadedBy uuid.UUID `gorm:"type:uuid;column:uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time `gorm:"column:uploaded_at;not null" json:"uploaded_at"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (EvidenceFile) TableName() string { return "evidence_file" }
