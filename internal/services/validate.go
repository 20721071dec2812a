package services

import (
	"encoding/json"
	"fmt"

	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

// Validator decides whether a draft may be issued. The production check
// is structural completeness; deployments can swap in a stricter one.
type Validator interface {
	ValidateForIssue(doc *types.Document) error
}

type moduleValidator struct {
	log *logger.Logger
}

func NewModuleValidator(log *logger.Logger) Validator {
	return &moduleValidator{log: log.With("service", "ModuleValidator")}
}

// ValidateForIssue requires at least one populated content module and a
// title. Failures return a ValidationError listing every reason at once
// so the caller can fix them in one pass.
func (v *moduleValidator) ValidateForIssue(doc *types.Document) error {
	var reasons []string

	if doc.Title == "" {
		reasons = append(reasons, "document has no title")
	}

	modules, err := decodeModules(doc.Modules)
	if err != nil {
		reasons = append(reasons, fmt.Sprintf("content modules are not readable: %v", err))
	} else {
		populated := 0
		for key, raw := range modules {
			if moduleIsPopulated(raw) {
				populated++
				continue
			}
			reasons = append(reasons, fmt.Sprintf("module %q is empty", key))
		}
		if populated == 0 {
			reasons = append(reasons, "document has no populated content module")
		}
	}

	if len(reasons) > 0 {
		return &types.ValidationError{Reasons: reasons}
	}
	return nil
}

func decodeModules(raw []byte) (map[string]json.RawMessage, error) {
	if len(raw) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	var modules map[string]json.RawMessage
	if err := json.Unmarshal(raw, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

func moduleIsPopulated(raw json.RawMessage) bool {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case map[string]interface{}:
		return len(t) > 0
	case []interface{}:
		return len(t) > 0
	default:
		return true
	}
}
