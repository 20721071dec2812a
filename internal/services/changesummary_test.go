package services

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/clearform/assurance-backend/internal/domain"
)

func TestBuildChangeSummaryInitialIssue(t *testing.T) {
	cur := &types.Document{ID: uuid.New(), VersionNumber: 1}
	sum, err := BuildChangeSummary(nil, cur)
	if err != nil {
		t.Fatalf("BuildChangeSummary: %v", err)
	}
	if !sum.InitialIssue || sum.ToDocumentID != cur.ID || sum.ToVersion != 1 {
		t.Fatalf("BuildChangeSummary: %+v", sum)
	}
}

func TestBuildChangeSummaryDiff(t *testing.T) {
	prior := &types.Document{
		ID:            uuid.New(),
		VersionNumber: 1,
		Title:         "Fire Safety Assessment",
		Modules: datatypes.JSON([]byte(`{
			"means_of_escape": {"rating": 2, "notes": "ok"},
			"fire_detection": {"rating": 3},
			"management": {"rating": 1}
		}`)),
	}
	cur := &types.Document{
		ID:            uuid.New(),
		VersionNumber: 2,
		Title:         "Fire Safety Assessment (2024)",
		Modules: datatypes.JSON([]byte(`{
			"means_of_escape": {"notes": "ok", "rating": 2},
			"fire_detection": {"rating": 1},
			"emergency_lighting": {"rating": 2}
		}`)),
	}

	sum, err := BuildChangeSummary(prior, cur)
	if err != nil {
		t.Fatalf("BuildChangeSummary: %v", err)
	}
	if sum.InitialIssue {
		t.Fatalf("BuildChangeSummary: unexpected initial issue")
	}
	if !sum.TitleChanged {
		t.Fatalf("BuildChangeSummary: title change missed")
	}
	if got := sum.AddedModules; !reflect.DeepEqual(got, []string{"emergency_lighting"}) {
		t.Fatalf("AddedModules: %v", got)
	}
	if got := sum.RemovedModules; !reflect.DeepEqual(got, []string{"management"}) {
		t.Fatalf("RemovedModules: %v", got)
	}
	// means_of_escape differs only in key order, so it is unchanged.
	if got := sum.ChangedModules; !reflect.DeepEqual(got, []string{"fire_detection"}) {
		t.Fatalf("ChangedModules: %v", got)
	}
}
