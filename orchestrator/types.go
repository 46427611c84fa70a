package orchestrator

import (
	"context"
	"time"

	"github.com/cloudtrim/rightsizer/cost"
	"github.com/cloudtrim/rightsizer/types"
)

// TelemetrySource fetches raw utilization samples for one resource.
// May return fewer samples than the window implies; sparse data is handled
// through the insufficient-data flag, not as an error.
type TelemetrySource interface {
	FetchSamples(ctx context.Context, resourceID, region string, kinds []types.MetricKind, window types.Window) ([]types.MetricSample, error)
}

// Inventory lists running resources with their current configuration
type Inventory interface {
	ListResources(ctx context.Context, kind types.ResourceKind, region string) ([]types.ResourceConfig, error)
}

// Catalog lists configuration candidates for a region
type Catalog interface {
	Candidates(ctx context.Context, region string, kind types.ResourceKind) ([]types.InstanceType, error)
}

// RunOptions carries the command-surface parameters into a run
type RunOptions struct {
	// Kinds selects which resource kinds to analyze; empty means all
	Kinds []types.ResourceKind
	// LookbackDays overrides the configured lookback window when positive
	LookbackDays int
	// Now anchors the lookback window; zero means time.Now
	Now time.Time
}

// RunResult is the final ordered output of one analysis pass. The engine
// owns every profile and recommendation for the run; nothing outlives it.
type RunResult struct {
	GeneratedAt       time.Time              `json:"generated_at"`
	Window            types.Window           `json:"window"`
	ResourcesAnalyzed int                    `json:"resources_analyzed"`
	Recommendations   []types.Recommendation `json:"recommendations"`
	Skips             []types.Skip           `json:"skips"`
	Summary           cost.Summary           `json:"summary"`
}
