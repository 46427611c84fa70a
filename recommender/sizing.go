package recommender

import (
	"context"
	"fmt"
	"sort"

	"github.com/cloudtrim/rightsizer/config"
	"github.com/cloudtrim/rightsizer/cost"
	"github.com/cloudtrim/rightsizer/types"
)

// Sizing turns a utilization profile into at most one right-sizing
// recommendation per resource. Downsize and family-switch are evaluated as
// separate decision functions; the winner is the candidate with the larger
// monthly savings, downsize on ties.
type Sizing struct {
	calc *cost.Calculator
	cfg  config.SizingConfig
}

// NewSizing creates a sizing recommender
func NewSizing(calc *cost.Calculator, cfg config.SizingConfig) *Sizing {
	return &Sizing{calc: calc, cfg: cfg}
}

// Recommend evaluates one resource against the candidate catalog. A nil
// recommendation means no action. Pricing failures propagate so the engine
// can record the resource as skipped.
func (s *Sizing) Recommend(ctx context.Context, res types.ResourceConfig, profile *types.UtilizationProfile, catalog []types.InstanceType) (*types.Recommendation, error) {
	if !profile.Actionable() {
		return nil, nil
	}
	// ASG-managed instances are sized by their launch template, not
	// individually
	if res.ASGManaged {
		return nil, nil
	}

	cpu, ok := profile.CPU()
	if !ok {
		return nil, nil
	}
	// Exclusive upper bound: P95 equal to the threshold is not underutilized
	if cpu.P95 >= s.cfg.CPUUnderutilizedThreshold {
		return nil, nil
	}

	downsize, err := s.recommendDownsize(ctx, res, cpu, catalog)
	if err != nil {
		return nil, err
	}
	familySwitch, err := s.recommendFamilySwitch(ctx, res, cpu, catalog)
	if err != nil {
		return nil, err
	}

	return pickWinner(downsize, familySwitch), nil
}

// recommendDownsize searches the same family for the smallest configuration
// whose capacity still covers observed peak usage with headroom
func (s *Sizing) recommendDownsize(ctx context.Context, res types.ResourceConfig, cpu types.MetricStats, catalog []types.InstanceType) (*types.Recommendation, error) {
	current := res.InstanceType
	if current.SmallestInLadder() {
		return nil, nil
	}

	candidate, ok := smallestCovering(current, cpu.Max, s.cfg.SafetyMargin, catalog)
	if !ok {
		return nil, nil
	}

	rec := types.Recommendation{
		ResourceID: res.ID,
		Name:       res.Name,
		Region:     res.Region,
		Kind:       types.RecommendDownsize,
		Current:    current,
		Proposed:   candidate,
		Metric:     types.SupportingMetric{Kind: types.MetricCPU, Stat: "p95", Value: cpu.P95},
		Reason:     fmt.Sprintf("P95 CPU is %.1f%%, peak fits %s with headroom", cpu.P95, candidate.Name()),
	}

	priced, ok, err := s.calc.PriceSizing(ctx, rec)
	if err != nil {
		return nil, err
	}
	if !ok || priced.MonthlySavings < s.cfg.MinSavingsThreshold {
		return nil, nil
	}
	return &priced, nil
}

// recommendFamilySwitch proposes an equivalent-capacity configuration in a
// cheaper allowed family at the same size tier
func (s *Sizing) recommendFamilySwitch(ctx context.Context, res types.ResourceConfig, cpu types.MetricStats, catalog []types.InstanceType) (*types.Recommendation, error) {
	current := res.InstanceType

	var best *types.Recommendation
	for _, candidate := range alternativeFamilies(current, catalog, s.cfg) {
		rec := types.Recommendation{
			ResourceID: res.ID,
			Name:       res.Name,
			Region:     res.Region,
			Kind:       types.RecommendFamilySwitch,
			Current:    current,
			Proposed:   candidate,
			Metric:     types.SupportingMetric{Kind: types.MetricCPU, Stat: "p95", Value: cpu.P95},
			Reason:     fmt.Sprintf("same capacity in cheaper family %s", candidate.Family),
		}

		priced, ok, err := s.calc.PriceSizing(ctx, rec)
		if err != nil {
			return nil, err
		}
		if !ok || priced.MonthlySavings < s.cfg.MinSavingsThreshold {
			continue
		}
		if best == nil || priced.MonthlySavings > best.MonthlySavings {
			best = &priced
		}
	}
	return best, nil
}

// smallestCovering finds the smallest same-family candidate whose vCPU
// capacity covers peak usage scaled by the safety margin. The headroom rule
// works off observed max, not the percentile.
func smallestCovering(current types.InstanceType, cpuMaxPercent, safetyMargin float64, catalog []types.InstanceType) (types.InstanceType, bool) {
	if current.VCPU == 0 {
		return types.InstanceType{}, false
	}
	requiredVCPU := float64(current.VCPU) * (cpuMaxPercent / 100.0) * safetyMargin

	candidates := make([]types.InstanceType, 0)
	for _, c := range catalog {
		if c.Family != current.Family {
			continue
		}
		rank := c.SizeRank()
		if rank < 0 || rank >= current.SizeRank() {
			continue
		}
		if float64(c.VCPU) < requiredVCPU {
			continue
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return types.InstanceType{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].SizeRank() < candidates[j].SizeRank()
	})
	return candidates[0], true
}

// alternativeFamilies lists allowed-family candidates at the current size
// tier with at least equivalent capacity, in deterministic order
func alternativeFamilies(current types.InstanceType, catalog []types.InstanceType, cfg config.SizingConfig) []types.InstanceType {
	var out []types.InstanceType
	for _, c := range catalog {
		if c.Family == current.Family || !c.SameTier(current) {
			continue
		}
		if !cfg.AllowsFamily(c.Family) {
			continue
		}
		if current.VCPU > 0 && c.VCPU < current.VCPU {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Family < out[j].Family
	})
	return out
}

// pickWinner applies the priority order: larger monthly savings first,
// downsize when equal
func pickWinner(downsize, familySwitch *types.Recommendation) *types.Recommendation {
	switch {
	case downsize == nil:
		return familySwitch
	case familySwitch == nil:
		return downsize
	case familySwitch.MonthlySavings > downsize.MonthlySavings:
		return familySwitch
	default:
		return downsize
	}
}
