package services

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	types "github.com/clearform/assurance-backend/internal/domain"
)

// ChangeSummary describes what changed between an issued version and its
// immediate predecessor. It is frozen into the defence pack at build
// time; InitialIssue marks a first version with nothing to compare to.
type ChangeSummary struct {
	InitialIssue bool `json:"initial_issue"`

	FromDocumentID *uuid.UUID `json:"from_document_id,omitempty"`
	FromVersion    int        `json:"from_version,omitempty"`
	ToDocumentID   uuid.UUID  `json:"to_document_id"`
	ToVersion      int        `json:"to_version"`

	TitleChanged     bool     `json:"title_changed,omitempty"`
	ReferenceChanged bool     `json:"reference_changed,omitempty"`
	AddedModules     []string `json:"added_modules,omitempty"`
	RemovedModules   []string `json:"removed_modules,omitempty"`
	ChangedModules   []string `json:"changed_modules,omitempty"`
}

// BuildChangeSummary diffs the content modules of two versions. prior may
// be nil for the first issue of a family.
func BuildChangeSummary(prior, current *types.Document) (*ChangeSummary, error) {
	out := &ChangeSummary{
		ToDocumentID: current.ID,
		ToVersion:    current.VersionNumber,
	}
	if prior == nil {
		out.InitialIssue = true
		return out, nil
	}

	out.FromDocumentID = &prior.ID
	out.FromVersion = prior.VersionNumber
	out.TitleChanged = prior.Title != current.Title
	out.ReferenceChanged = prior.Reference != current.Reference

	prevModules, err := decodeModules(prior.Modules)
	if err != nil {
		return nil, err
	}
	curModules, err := decodeModules(current.Modules)
	if err != nil {
		return nil, err
	}

	for key, cur := range curModules {
		prev, ok := prevModules[key]
		if !ok {
			out.AddedModules = append(out.AddedModules, key)
			continue
		}
		same, err := jsonEqual(prev, cur)
		if err != nil {
			return nil, err
		}
		if !same {
			out.ChangedModules = append(out.ChangedModules, key)
		}
	}
	for key := range prevModules {
		if _, ok := curModules[key]; !ok {
			out.RemovedModules = append(out.RemovedModules, key)
		}
	}

	sort.Strings(out.AddedModules)
	sort.Strings(out.RemovedModules)
	sort.Strings(out.ChangedModules)
	return out, nil
}

// jsonEqual compares two JSON values structurally, ignoring key order
// and whitespace. Round-tripping through interface{} gives Go's sorted
// map-key marshalling on both sides.
func jsonEqual(a, b json.RawMessage) (bool, error) {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false, err
	}
	ab, err := json.Marshal(av)
	if err != nil {
		return false, err
	}
	bb, err := json.Marshal(bv)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ab, bb), nil
}
