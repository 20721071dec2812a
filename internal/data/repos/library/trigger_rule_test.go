package library

import (
	"context"
	"testing"

	"github.com/clearform/assurance-backend/internal/data/repos/testutil"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
)

func TestTriggerRuleRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewTriggerRuleRepo(db, testutil.Logger(t))

	r1 := &types.TriggerRule{
		SourceModuleKey:        "means_of_escape",
		SourceFactorKey:        "travel_distance",
		TriggerRatingThreshold: 1,
		Title:                  "Travel distance rated poor",
		DefaultText:            "Reassess escape route travel distances",
		DefaultPriority:        types.PriorityHigh,
		Active:                 true,
	}
	r2 := &types.TriggerRule{
		SourceModuleKey:        "fire_detection",
		TriggerRatingThreshold: 2,
		Title:                  "Detection coverage below standard",
		DefaultText:            "Extend automatic detection coverage",
		DefaultPriority:        types.PriorityMedium,
		Active:                 true,
	}
	if err := repo.Upsert(dbc, []*types.TriggerRule{r1, r2}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Re-seeding the same key updates in place instead of duplicating.
	if err := repo.Upsert(dbc, []*types.TriggerRule{{
		SourceModuleKey:        "means_of_escape",
		SourceFactorKey:        "travel_distance",
		TriggerRatingThreshold: 2,
		Title:                  "Travel distance rated poor",
		DefaultText:            "Reassess escape route travel distances",
		DefaultPriority:        types.PriorityHigh,
		Active:                 true,
	}}); err != nil {
		t.Fatalf("Upsert repeat: %v", err)
	}

	rules, err := repo.ListActive(dbc)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("ListActive: want 2, got %d", len(rules))
	}
	for _, r := range rules {
		if r.SourceModuleKey == "means_of_escape" && r.TriggerRatingThreshold != 2 {
			t.Fatalf("Upsert did not update threshold: %+v", r)
		}
	}

	if err := repo.SetActive(dbc, r2.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	rules, err = repo.ListActive(dbc)
	if err != nil || len(rules) != 1 {
		t.Fatalf("ListActive after deactivate: err=%v len=%d", err, len(rules))
	}

	got, err := repo.GetByID(dbc, r2.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Active {
		t.Fatalf("GetByID: rule still active")
	}
}
