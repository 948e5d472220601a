package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/merchkit/freegift/internal/decision"
)

// Snapshot is the serialized form pinned by golden files. Struct field
// order keeps the JSON rendering deterministic.
type Snapshot struct {
	ScenarioName string            `json:"scenario_name"`
	Decision     decision.Decision `json:"decision"`
}

// RunWithGolden executes a scenario and compares the decision against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) *Result {
	t.Helper()

	res := Run(s)

	snapshot := Snapshot{ScenarioName: s.Name, Decision: res.Decision}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)

	return res
}
