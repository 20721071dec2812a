package domain

import (
	"time"

	"github.com/google/uuid"
)

// TriggerRule is one static library entry: when the named module (and
// optionally factor) is rated at or below the threshold, the rule fires
// and the trigger engine materializes a recommendation from the default
// text fields. Read-only with respect to document processing.
type TriggerRule struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SourceModuleKey string `gorm:"column:source_module_key;not null;uniqueIndex:idx_trigger_rule_source,priority:1" json:"source_module_key"`
	// SourceFactorKey narrows the rule to one factor inside the module;
	// empty means the rule matches the module-level rating.
	SourceFactorKey string `gorm:"column:source_factor_key;not null;default:'';uniqueIndex:idx_trigger_rule_source,priority:2" json:"source_factor_key,omitempty"`

	// TriggerRatingThreshold is 1 (poor only) or 2 (poor or adequate);
	// the rule fires when rating <= threshold.
	TriggerRatingThreshold int `gorm:"column:trigger_rating_threshold;not null" json:"trigger_rating_threshold"`

	Title           string `gorm:"column:title;not null" json:"title"`
	DefaultText     string `gorm:"column:default_text;type:text;not null" json:"default_text"`
	DefaultPriority string `gorm:"column:default_priority;not null;default:'medium'" json:"default_priority"`

	Active bool `gorm:"column:active;not null;default:true;index" json:"active"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TriggerRule) TableName() string { return "trigger_rule" }

// FactorRating is one rated module/factor on a document, as supplied by
// the assessment forms. Lower is worse.
type FactorRating struct {
	ModuleKey string `json:"module_key"`
	FactorKey string `json:"factor_key,omitempty"`
	Rating    int    `json:"rating"`
}

// Matches reports whether the rule applies to the given rating entry and
// the rating is at or below the rule threshold.
func (r *TriggerRule) Matches(fr FactorRating) bool {
	if r.SourceModuleKey != fr.ModuleKey {
		return false
	}
	if r.SourceFactorKey != "" && r.SourceFactorKey != fr.FactorKey {
		return false
	}
	return fr.Rating > 0 && fr.Rating <= r.TriggerRatingThreshold
}
