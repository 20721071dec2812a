package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DefencePack is the immutable, checksummed bundle built once per issued
// document version. The unique index on DocumentID is what makes the
// build idempotent under concurrency.
type DefencePack struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"document_id"`

	BundleKey string `gorm:"column:bundle_key;not null" json:"bundle_key"`
	Checksum  string `gorm:"column:checksum;not null" json:"checksum"`
	SizeBytes int64  `gorm:"column:size_bytes;not null" json:"size_bytes"`

	// Manifest lists the bundle entries and counts captured at build time.
	Manifest datatypes.JSON `gorm:"column:manifest;type:jsonb" json:"manifest"`

	ActionCount   int `gorm:"column:action_count;not null;default:0" json:"action_count"`
	EvidenceCount int `gorm:"column:evidence_count;not null;default:0" json:"evidence_count"`

	CreatedBy uuid.UUID `gorm:"type:uuid;column:created_by" json:"created_by"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (DefencePack) TableName() string { return "defence_pack" }

// RenderedArtifact records the canonical rendered output for an issued
// document: the stable storage reference the pack assembler bundles.
// At most one per document.
type RenderedArtifact struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"document_id"`

	StorageKey  string `gorm:"column:storage_key;not null" json:"storage_key"`
	ContentType string `gorm:"column:content_type;not null" json:"content_type"`
	Checksum    string `gorm:"column:checksum;not null" json:"checksum"`
	SizeBytes   int64  `gorm:"column:size_bytes;not null" json:"size_bytes"`

	RenderedAt time.Time `gorm:"column:rendered_at;not null" json:"rendered_at"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (RenderedArtifact) TableName() string { return "rendered_artifact" }
