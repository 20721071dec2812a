package rules

import (
	"strings"
	"testing"

	types "github.com/clearform/assurance-backend/internal/domain"
)

func TestParse(t *testing.T) {
	raw := []byte(`
rules:
  - module: means_of_escape
    factor: travel_distance
    threshold: 1
    title: Escape travel distance rated poor
    text: Reassess travel distances.
    priority: high
  - module: fire_detection
    threshold: 2
    title: Detection coverage below standard
    text: Extend detection coverage.
`)
	rules, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("Parse: want 2 rules, got %d", len(rules))
	}

	r := rules[0]
	if r.SourceModuleKey != "means_of_escape" || r.SourceFactorKey != "travel_distance" {
		t.Fatalf("Parse: wrong keys: %+v", r)
	}
	if r.TriggerRatingThreshold != 1 || r.DefaultPriority != types.PriorityHigh {
		t.Fatalf("Parse: wrong threshold/priority: %+v", r)
	}
	if !r.Active {
		t.Fatalf("Parse: seeded rule should be active")
	}

	// Module-level rule has no factor and defaults to medium priority.
	if rules[1].SourceFactorKey != "" || rules[1].DefaultPriority != types.PriorityMedium {
		t.Fatalf("Parse: module-level rule wrong: %+v", rules[1])
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "missing module",
			raw:  "rules:\n  - threshold: 1\n    title: t\n    text: x\n",
			want: "missing module",
		},
		{
			name: "bad threshold",
			raw:  "rules:\n  - module: m\n    threshold: 3\n    title: t\n    text: x\n",
			want: "threshold",
		},
		{
			name: "bad priority",
			raw:  "rules:\n  - module: m\n    threshold: 1\n    title: t\n    text: x\n    priority: urgent\n",
			want: "unknown priority",
		},
		{
			name: "duplicate key",
			raw: "rules:\n" +
				"  - module: m\n    factor: f\n    threshold: 1\n    title: t\n    text: x\n" +
				"  - module: m\n    factor: f\n    threshold: 2\n    title: t2\n    text: y\n",
			want: "duplicate",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Parse: want error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParseSeedFile(t *testing.T) {
	// The shipped seed must always parse.
	raw := []byte(seedFixture)
	rules, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse shipped seed: %v", err)
	}
	if len(rules) == 0 {
		t.Fatalf("Parse shipped seed: empty")
	}
}

const seedFixture = `
rules:
  - module: emergency_lighting
    threshold: 2
    title: Emergency lighting provision inadequate
    text: >-
      Provide emergency escape lighting on all escape routes and at each
      final exit.
    priority: medium
`
