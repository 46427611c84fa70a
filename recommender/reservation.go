package recommender

import (
	"fmt"
	"sort"

	"github.com/cloudtrim/rightsizer/analyzer"
	"github.com/cloudtrim/rightsizer/config"
	"github.com/cloudtrim/rightsizer/types"
)

// GroupResources buckets resources by (region, instance type) for
// reservation analysis. Only members with profiles are included.
func GroupResources(resources []types.ResourceConfig, profiles map[string]*types.UtilizationProfile) []types.ReservationGroup {
	byKey := make(map[string]*types.ReservationGroup)
	for _, res := range resources {
		// Reservations cover compute instances; database reservations
		// are a different purchase product
		if res.Kind != types.KindEC2 {
			continue
		}
		profile, ok := profiles[res.ID]
		if !ok {
			continue
		}
		key := res.Region + "/" + res.InstanceType.Name()
		group, exists := byKey[key]
		if !exists {
			group = &types.ReservationGroup{
				Region:       res.Region,
				InstanceType: res.InstanceType,
			}
			byKey[key] = group
		}
		group.Members = append(group.Members, types.GroupMember{
			ResourceID: res.ID,
			Name:       res.Name,
			Profile:    profile,
		})
	}

	groups := make([]types.ReservationGroup, 0, len(byKey))
	for _, g := range byKey {
		sort.Slice(g.Members, func(i, j int) bool {
			return g.Members[i].ResourceID < g.Members[j].ResourceID
		})
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].GroupKey() < groups[j].GroupKey()
	})
	return groups
}

// RecommendReservations proposes reservation purchases for groups with
// sustained whole-window demand. The purchase count is the sustained
// concurrent-instance count: members whose utilization never dropped below
// the floor. Minimum-over-window, not average, to avoid over-committing.
// Term and payment option pass through from configuration unchanged.
func RecommendReservations(groups []types.ReservationGroup, cfg config.ReservedConfig) []types.Recommendation {
	var recommendations []types.Recommendation

	for _, group := range groups {
		rec, ok := recommendGroup(group, cfg)
		if !ok {
			continue
		}
		recommendations = append(recommendations, rec)
	}

	return recommendations
}

// recommendGroup is the per-group decision function. Groups below the
// member minimum or containing insufficient-data members are skipped
// entirely; no partial recommendation.
func recommendGroup(group types.ReservationGroup, cfg config.ReservedConfig) (types.Recommendation, bool) {
	if len(group.Members) < cfg.MinGroupSize {
		return types.Recommendation{}, false
	}
	for _, m := range group.Members {
		if !m.Profile.Actionable() {
			return types.Recommendation{}, false
		}
	}

	sustained := sustainedMembers(group, cfg.MinUtilization)
	if len(sustained) < cfg.MinGroupSize {
		return types.Recommendation{}, false
	}

	return types.Recommendation{
		Region:        group.Region,
		Kind:          types.RecommendReservation,
		Current:       group.InstanceType,
		Proposed:      group.InstanceType,
		Count:         len(sustained),
		TermYears:     cfg.TermYears,
		PaymentOption: cfg.PaymentOption,
		MemberIDs:     sustained,
		Metric: types.SupportingMetric{
			Kind:  types.MetricCPU,
			Stat:  "sustained_min",
			Value: cfg.MinUtilization,
		},
		Reason: fmt.Sprintf("%d %s instances held >= %.0f%% CPU for the whole window",
			len(sustained), group.InstanceType.Name(), cfg.MinUtilization),
	}, true
}

// sustainedMembers returns the IDs of members whose CPU series stayed at or
// above the utilization floor across the entire lookback window
func sustainedMembers(group types.ReservationGroup, floor float64) []string {
	var ids []string
	for _, m := range group.Members {
		if analyzer.ConsistentThroughout(m.Profile.CPUValues, floor) {
			ids = append(ids, m.ResourceID)
		}
	}
	return ids
}
