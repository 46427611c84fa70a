package types

// SkipReason classifies why a resource was excluded from recommendations
type SkipReason string

const (
	SkipInsufficientData        SkipReason = "insufficient_data"
	SkipCollaboratorUnavailable SkipReason = "collaborator_unavailable"
	SkipPricingUnavailable      SkipReason = "pricing_unavailable"
)

// Skip records a resource left out of the run, and why. Failures are
// modeled as values so the engine can aggregate partial results.
type Skip struct {
	ResourceID string     `json:"resource_id"`
	Region     string     `json:"region"`
	Reason     SkipReason `json:"reason"`
	Detail     string     `json:"detail,omitempty"`
}
