package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/cloudtrim/rightsizer/analyzer"
	"github.com/cloudtrim/rightsizer/config"
	"github.com/cloudtrim/rightsizer/cost"
	"github.com/cloudtrim/rightsizer/recommender"
	"github.com/cloudtrim/rightsizer/telemetry"
	"github.com/cloudtrim/rightsizer/types"
)

// Orchestrator sequences inventory -> telemetry -> analysis -> decision ->
// pricing and assembles the final recommendation set. It is the only
// component with cross-component coupling; the analysis and decision
// functions themselves are pure.
type Orchestrator struct {
	inventory Inventory
	source    TelemetrySource
	catalog   Catalog
	calc      *cost.Calculator
	sizing    *recommender.Sizing
	cfg       *config.Config
	limiter   *rate.Limiter
	logger    *telemetry.Logger
}

// New creates an orchestrator over the external collaborators
func New(cfg *config.Config, inventory Inventory, source TelemetrySource, catalog Catalog, book cost.PriceBook) *Orchestrator {
	calc := cost.NewCalculator(book)
	return &Orchestrator{
		inventory: inventory,
		source:    source,
		catalog:   catalog,
		calc:      calc,
		sizing:    recommender.NewSizing(calc, cfg.EC2),
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Limit(cfg.Analysis.RequestsPerSecond), 1),
		logger:    telemetry.NewLogger("orchestrator"),
	}
}

// resourceOutcome is one worker's result; exactly one of rec/profile/skip
// combinations applies
type resourceOutcome struct {
	resource types.ResourceConfig
	profile  *types.UtilizationProfile
	rec      *types.Recommendation
	skip     *types.Skip
}

// Run executes one full analysis pass. Per-resource failures are recorded
// as skips; a single resource failure is never fatal to the run. Identical
// inputs produce an identical ordered recommendation set.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	started := time.Now()

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	lookback := o.cfg.Analysis.LookbackDays
	if opts.LookbackDays > 0 {
		lookback = opts.LookbackDays
	}
	window := types.LookbackWindow(lookback, now)

	ctx, span := telemetry.Tracer.Start(ctx, "rightsizer.run",
		trace.WithAttributes(
			attribute.Int("lookback_days", lookback),
			attribute.StringSlice("regions", o.cfg.AWS.Regions),
		))
	defer span.End()

	result := &RunResult{
		GeneratedAt: now,
		Window:      window,
	}

	o.logger.WithContext(ctx).Info().
		Int("lookback_days", lookback).
		Strs("regions", o.cfg.AWS.Regions).
		Msg("starting analysis run")

	resources := o.collectInventory(ctx, opts.Kinds, result)
	outcomes := o.analyzeResources(ctx, resources, window, result)

	var recommendations []types.Recommendation
	profiles := make(map[string]*types.UtilizationProfile, len(outcomes))
	var analyzed []types.ResourceConfig

	for _, out := range outcomes {
		if out.skip != nil {
			result.Skips = append(result.Skips, *out.skip)
			continue
		}
		result.ResourcesAnalyzed++
		profiles[out.resource.ID] = out.profile
		analyzed = append(analyzed, out.resource)
		if out.rec != nil {
			recommendations = append(recommendations, *out.rec)
		}
	}

	recommendations = append(recommendations, o.reservations(ctx, analyzed, profiles, result)...)
	recommendations = o.validRecommendations(ctx, recommendations)

	sortRecommendations(recommendations)
	sortSkips(result.Skips)
	result.Recommendations = recommendations
	result.Summary = cost.Summarize(recommendations)

	telemetry.RecordRun(ctx, result.ResourcesAnalyzed, len(recommendations), len(result.Skips), result.Summary.TotalMonthlySavings, time.Since(started))

	o.logger.WithContext(ctx).Info().
		Int("resources_analyzed", result.ResourcesAnalyzed).
		Int("recommendations", len(recommendations)).
		Int("skipped", len(result.Skips)).
		Float64("monthly_savings", result.Summary.TotalMonthlySavings).
		Msg("analysis run complete")

	return result, nil
}

// collectInventory lists resources across regions and kinds. A failed
// inventory call degrades that region/kind, not the run.
func (o *Orchestrator) collectInventory(ctx context.Context, kinds []types.ResourceKind, result *RunResult) []types.ResourceConfig {
	if len(kinds) == 0 {
		kinds = []types.ResourceKind{types.KindEC2, types.KindRDS}
	}

	var resources []types.ResourceConfig
	for _, region := range o.cfg.AWS.Regions {
		for _, kind := range kinds {
			listed, err := o.inventory.ListResources(ctx, kind, region)
			if err != nil {
				o.logger.WithContext(ctx).Warn().
					Err(err).
					Str("region", region).
					Str("kind", string(kind)).
					Msg("inventory unavailable, skipping")
				result.Skips = append(result.Skips, types.Skip{
					ResourceID: string(kind),
					Region:     region,
					Reason:     types.SkipCollaboratorUnavailable,
					Detail:     "inventory: " + err.Error(),
				})
				continue
			}
			resources = append(resources, listed...)
		}
	}

	sort.Slice(resources, func(i, j int) bool {
		if resources[i].Region != resources[j].Region {
			return resources[i].Region < resources[j].Region
		}
		return resources[i].ID < resources[j].ID
	})
	return resources
}

// analyzeResources runs fetch-and-analyze across the pool. Resources are
// independent; the worker limit exists to respect collaborator rate limits.
func (o *Orchestrator) analyzeResources(ctx context.Context, resources []types.ResourceConfig, window types.Window, result *RunResult) []resourceOutcome {
	var (
		mu       sync.Mutex
		outcomes = make([]resourceOutcome, 0, len(resources))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Analysis.Workers)

	for _, res := range resources {
		g.Go(func() error {
			out := o.analyzeOne(gctx, res, window)
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures become skips
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].resource.Region != outcomes[j].resource.Region {
			return outcomes[i].resource.Region < outcomes[j].resource.Region
		}
		return outcomes[i].resource.ID < outcomes[j].resource.ID
	})
	return outcomes
}

// analyzeOne handles a single resource end to end
func (o *Orchestrator) analyzeOne(ctx context.Context, res types.ResourceConfig, window types.Window) resourceOutcome {
	ctx, span := telemetry.Tracer.Start(ctx, "rightsizer.analyze_resource",
		trace.WithAttributes(
			attribute.String("resource_id", res.ID),
			attribute.String("region", res.Region),
		))
	defer span.End()

	out := resourceOutcome{resource: res}

	if err := o.limiter.Wait(ctx); err != nil {
		out.skip = &types.Skip{
			ResourceID: res.ID, Region: res.Region,
			Reason: types.SkipCollaboratorUnavailable,
			Detail: "rate limiter: " + err.Error(),
		}
		return out
	}

	samples, err := o.source.FetchSamples(ctx, res.ID, res.Region, metricKinds(res.Kind), window)
	if err != nil {
		o.logger.LogCollaboratorError(ctx, "telemetry", err)
		out.skip = &types.Skip{
			ResourceID: res.ID, Region: res.Region,
			Reason: types.SkipCollaboratorUnavailable,
			Detail: "telemetry: " + err.Error(),
		}
		return out
	}

	profile := analyzer.BuildProfile(res.ID, res.Region, window, samples, o.cfg.Analysis)
	if !profile.SufficientData {
		o.logger.LogResourceSkipped(ctx, res.ID, string(types.SkipInsufficientData))
		out.skip = &types.Skip{
			ResourceID: res.ID, Region: res.Region,
			Reason: types.SkipInsufficientData,
		}
		return out
	}
	out.profile = &profile

	catalog, err := o.catalog.Candidates(ctx, res.Region, res.Kind)
	if err != nil {
		out.skip = &types.Skip{
			ResourceID: res.ID, Region: res.Region,
			Reason: types.SkipCollaboratorUnavailable,
			Detail: "catalog: " + err.Error(),
		}
		return out
	}
	resolveCapacity(&res, catalog)
	out.resource = res

	rec, err := o.sizing.Recommend(ctx, res, &profile, catalog)
	if err != nil {
		out.skip = &types.Skip{
			ResourceID: res.ID, Region: res.Region,
			Reason: types.SkipPricingUnavailable,
			Detail: err.Error(),
		}
		out.profile = nil
		return out
	}
	out.rec = rec
	return out
}

// reservations groups analyzed EC2 resources and prices the qualifying
// purchase recommendations. Group analysis waits for all member profiles
// but groups are independent of each other.
func (o *Orchestrator) reservations(ctx context.Context, resources []types.ResourceConfig, profiles map[string]*types.UtilizationProfile, result *RunResult) []types.Recommendation {
	groups := recommender.GroupResources(resources, profiles)
	raw := recommender.RecommendReservations(groups, o.cfg.Reserved)

	var priced []types.Recommendation
	for _, rec := range raw {
		enriched, ok, err := o.calc.PriceReservation(ctx, rec)
		if err != nil {
			result.Skips = append(result.Skips, types.Skip{
				ResourceID: rec.Current.Name(),
				Region:     rec.Region,
				Reason:     types.SkipPricingUnavailable,
				Detail:     err.Error(),
			})
			continue
		}
		if !ok {
			// Reservation would not save money; suppressed
			continue
		}
		priced = append(priced, enriched)
	}
	return priced
}

// validRecommendations filters out recommendations that fail the coherence
// check before they reach a report
func (o *Orchestrator) validRecommendations(ctx context.Context, recs []types.Recommendation) []types.Recommendation {
	valid := recs[:0]
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			o.logger.WithContext(ctx).Error().
				Err(err).
				Str("resource_id", rec.ResourceID).
				Str("kind", string(rec.Kind)).
				Msg("dropping malformed recommendation")
			continue
		}
		valid = append(valid, rec)
	}
	return valid
}

// resolveCapacity fills the current type's capacity dimensions from the
// catalog. Inventory reports type names only; the headroom rule needs vCPU.
func resolveCapacity(res *types.ResourceConfig, catalog []types.InstanceType) {
	for _, c := range catalog {
		if c.Name() == res.InstanceType.Name() {
			res.InstanceType.VCPU = c.VCPU
			res.InstanceType.MemoryMiB = c.MemoryMiB
			return
		}
	}
}

func metricKinds(kind types.ResourceKind) []types.MetricKind {
	if kind == types.KindRDS {
		return types.RDSMetrics
	}
	return types.EC2Metrics
}

// sortRecommendations orders the final set: largest monthly savings first,
// resource ID as the deterministic tie-break
func sortRecommendations(recs []types.Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].MonthlySavings != recs[j].MonthlySavings {
			return recs[i].MonthlySavings > recs[j].MonthlySavings
		}
		if recs[i].Region != recs[j].Region {
			return recs[i].Region < recs[j].Region
		}
		return recs[i].ResourceID < recs[j].ResourceID
	})
}

func sortSkips(skips []types.Skip) {
	sort.Slice(skips, func(i, j int) bool {
		if skips[i].Region != skips[j].Region {
			return skips[i].Region < skips[j].Region
		}
		return skips[i].ResourceID < skips[j].ResourceID
	})
}
