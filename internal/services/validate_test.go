package services

import (
	"errors"
	"strings"
	"testing"

	"gorm.io/datatypes"

	"github.com/clearform/assurance-backend/internal/data/repos/testutil"
	types "github.com/clearform/assurance-backend/internal/domain"
)

func TestModuleValidator(t *testing.T) {
	v := NewModuleValidator(testutil.Logger(t))

	ok := &types.Document{
		Title:   "Fire Safety Assessment",
		Modules: datatypes.JSON([]byte(`{"means_of_escape":{"rating":2,"notes":"ok"}}`)),
	}
	if err := v.ValidateForIssue(ok); err != nil {
		t.Fatalf("ValidateForIssue: %v", err)
	}

	empty := &types.Document{
		Title:   "Fire Safety Assessment",
		Modules: datatypes.JSON([]byte(`{}`)),
	}
	err := v.ValidateForIssue(empty)
	if !errors.Is(err, types.ErrValidationFailed) {
		t.Fatalf("ValidateForIssue empty: want ErrValidationFailed, got %v", err)
	}

	untitled := &types.Document{
		Modules: datatypes.JSON([]byte(`{"means_of_escape":{"rating":2}}`)),
	}
	err = v.ValidateForIssue(untitled)
	if err == nil || !strings.Contains(err.Error(), "title") {
		t.Fatalf("ValidateForIssue untitled: got %v", err)
	}

	// An empty module counts as a reason but other populated modules
	// still satisfy the populated-content requirement.
	partial := &types.Document{
		Title:   "Fire Safety Assessment",
		Modules: datatypes.JSON([]byte(`{"means_of_escape":{"rating":2},"management":{}}`)),
	}
	err = v.ValidateForIssue(partial)
	if !errors.Is(err, types.ErrValidationFailed) {
		t.Fatalf("ValidateForIssue partial: want ErrValidationFailed, got %v", err)
	}
	var vErr *types.ValidationError
	if !errors.As(err, &vErr) || len(vErr.Reasons) != 1 {
		t.Fatalf("ValidateForIssue partial: want one reason, got %v", err)
	}
}
