// Package testutil provides shared test infrastructure for the dispatch simulator.
// It holds the golden scenario dataset types and assertion helpers used across
// sim/ sub-package tests.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one scenario file and the outcome it must produce.
type GoldenTestCase struct {
	Name string `json:"name"`
	// Scenario is relative to the repository root.
	Scenario    string           `json:"scenario"`
	FinalClock  int64            `json:"final_clock"`
	Delivered   []int            `json:"delivered"`    // order ids in delivery order
	FinishTimes []int64          `json:"finish_times"` // parallel to Delivered
	Statistics  GoldenStatistics `json:"statistics"`
}

// GoldenStatistics mirrors the run statistics.
type GoldenStatistics struct {
	// Exact match counts
	TotalOrders    int `json:"total_orders"`
	VIPOrders      int `json:"vip_orders"`
	StandardOrders int `json:"standard_orders"`
	Delivered      int `json:"delivered"`
	Canceled       int `json:"canceled"`

	// Derived averages, compared with a relative tolerance
	TotalValue     float64 `json:"total_value"`
	AvgWaitTime    float64 `json:"avg_wait_time"`
	AvgTransitTime float64 `json:"avg_transit_time"`
	OnTimeRate     float64 `json:"on_time_rate"`
}

// RepoRoot returns the repository root, resolved relative to this source file.
func RepoRoot(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// sim/internal/testutil/ → repo root
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..")
}

// LoadGoldenDataset loads the golden dataset from the repository testdata directory.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	path := filepath.Join(RepoRoot(t), "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// ScenarioPath returns the absolute path of a golden test case's scenario file.
func (tc GoldenTestCase) ScenarioPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(RepoRoot(t), filepath.FromSlash(tc.Scenario))
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
