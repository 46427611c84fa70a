package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"

	"github.com/cloudtrim/rightsizer/config"
	"github.com/cloudtrim/rightsizer/storage"
	"github.com/cloudtrim/rightsizer/telemetry"
	"github.com/cloudtrim/rightsizer/types"
)

// riDiscounts maps term years and payment option to the discount off the
// on-demand rate. Standard RI rates for current-generation Linux instances.
var riDiscounts = map[int]map[string]float64{
	1: {
		types.PaymentAllUpfront:     0.40,
		types.PaymentPartialUpfront: 0.35,
		types.PaymentNoUpfront:      0.30,
	},
	3: {
		types.PaymentAllUpfront:     0.60,
		types.PaymentPartialUpfront: 0.55,
		types.PaymentNoUpfront:      0.50,
	},
}

// regionLocations maps region codes to the location names the Pricing API
// filters on
var regionLocations = map[string]string{
	"us-east-1":      "US East (N. Virginia)",
	"us-east-2":      "US East (Ohio)",
	"us-west-1":      "US West (N. California)",
	"us-west-2":      "US West (Oregon)",
	"ca-central-1":   "Canada (Central)",
	"eu-west-1":      "EU (Ireland)",
	"eu-west-2":      "EU (London)",
	"eu-west-3":      "EU (Paris)",
	"eu-central-1":   "EU (Frankfurt)",
	"eu-north-1":     "EU (Stockholm)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
	"ap-northeast-1": "Asia Pacific (Tokyo)",
	"ap-northeast-2": "Asia Pacific (Seoul)",
	"ap-south-1":     "Asia Pacific (Mumbai)",
	"sa-east-1":      "South America (Sao Paulo)",
}

// PriceBook resolves hourly rates. Lookup order: cache, Pricing API,
// static config fallback.
type PriceBook struct {
	client PricingAPI
	static map[string]float64
	cache  *storage.PriceCache
	logger *telemetry.Logger
}

// NewPricingClient creates a Pricing API client. The API is only served
// out of us-east-1 regardless of the regions under analysis.
func NewPricingClient(ctx context.Context) (*pricing.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion("us-east-1"))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for pricing: %w", err)
	}
	return pricing.NewFromConfig(cfg), nil
}

// NewPriceBook builds a price book over a Pricing API client. A nil client
// restricts lookups to the static table.
func NewPriceBook(client PricingAPI, cfg config.PricingConfig) (*PriceBook, error) {
	book := &PriceBook{
		client: client,
		static: cfg.Static,
		logger: telemetry.NewLogger("pricebook"),
	}

	if cfg.CachePath != "" {
		cache, err := storage.NewPriceCache(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open price cache: %w", err)
		}
		book.cache = cache
	}

	return book, nil
}

// Close releases the cache, if one is open
func (b *PriceBook) Close() error {
	if b.cache == nil {
		return nil
	}
	return b.cache.Close()
}

// PurgeExpired drops expired cache entries. No-op without a cache.
func (b *PriceBook) PurgeExpired() error {
	if b.cache == nil {
		return nil
	}
	removed, err := b.cache.Purge()
	if err != nil {
		return fmt.Errorf("failed to purge price cache: %w", err)
	}
	if removed > 0 {
		b.logger.Info().Int("removed", removed).Msg("purged expired cached prices")
	}
	return nil
}

// OnDemandHourly returns the on-demand hourly USD rate for one type
func (b *PriceBook) OnDemandHourly(ctx context.Context, instanceType types.InstanceType, region string) (float64, error) {
	name := instanceType.Name()
	key := storage.CacheKey(region, name, "ondemand")

	if b.cache != nil {
		if price, ok, err := b.cache.Get(key); err == nil && ok {
			return price, nil
		}
	}

	if b.client != nil {
		price, err := b.fetchOnDemand(ctx, instanceType, region)
		if err == nil {
			if b.cache != nil {
				if cerr := b.cache.Put(key, price); cerr != nil {
					b.logger.WithContext(ctx).Warn().Err(cerr).Str("key", key).Msg("failed to cache price")
				}
			}
			return price, nil
		}
		b.logger.WithContext(ctx).Warn().
			Err(err).
			Str("instance_type", name).
			Str("region", region).
			Msg("pricing API lookup failed, trying static table")
	}

	if price, ok := b.static[name]; ok {
		return price, nil
	}
	return 0, fmt.Errorf("no price available for %s in %s", name, region)
}

// ReservedHourly returns the effective hourly rate under a reservation,
// derived from the on-demand rate and the standard RI discount
func (b *PriceBook) ReservedHourly(ctx context.Context, instanceType types.InstanceType, region string, termYears int, paymentOption string) (float64, error) {
	discounts, ok := riDiscounts[termYears]
	if !ok {
		return 0, fmt.Errorf("no reserved pricing for %d-year terms", termYears)
	}
	discount, ok := discounts[paymentOption]
	if !ok {
		return 0, fmt.Errorf("no reserved pricing for payment option %q", paymentOption)
	}

	onDemand, err := b.OnDemandHourly(ctx, instanceType, region)
	if err != nil {
		return 0, err
	}
	return onDemand * (1 - discount), nil
}

// fetchOnDemand queries the Pricing API for one type's on-demand rate
func (b *PriceBook) fetchOnDemand(ctx context.Context, instanceType types.InstanceType, region string) (float64, error) {
	location, ok := regionLocations[region]
	if !ok {
		return 0, fmt.Errorf("unknown region %s", region)
	}

	input := productFilters(instanceType, location)
	output, err := b.client.GetProducts(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("pricing API: %w", err)
	}
	if len(output.PriceList) == 0 {
		return 0, fmt.Errorf("no products matched %s in %s", instanceType.Name(), location)
	}

	return parseOnDemandRate(output.PriceList[0])
}

// productFilters builds the GetProducts input for one instance type.
// Database classes price under AmazonRDS; everything else under AmazonEC2.
func productFilters(instanceType types.InstanceType, location string) *pricing.GetProductsInput {
	term := func(field, value string) pricingtypes.Filter {
		return pricingtypes.Filter{
			Type:  pricingtypes.FilterTypeTermMatch,
			Field: aws.String(field),
			Value: aws.String(value),
		}
	}

	if strings.HasPrefix(instanceType.Family, "db.") {
		return &pricing.GetProductsInput{
			ServiceCode: aws.String("AmazonRDS"),
			MaxResults:  aws.Int32(1),
			Filters: []pricingtypes.Filter{
				term("instanceType", instanceType.Name()),
				term("location", location),
				term("deploymentOption", "Single-AZ"),
				term("databaseEngine", "PostgreSQL"),
			},
		}
	}

	return &pricing.GetProductsInput{
		ServiceCode: aws.String("AmazonEC2"),
		MaxResults:  aws.Int32(1),
		Filters: []pricingtypes.Filter{
			term("instanceType", instanceType.Name()),
			term("location", location),
			term("operatingSystem", "Linux"),
			term("tenancy", "Shared"),
			term("preInstalledSw", "NA"),
			term("capacitystatus", "Used"),
		},
	}
}

// parseOnDemandRate extracts the hourly USD rate from one price list
// document
func parseOnDemandRate(doc string) (float64, error) {
	var product struct {
		Terms struct {
			OnDemand map[string]struct {
				PriceDimensions map[string]struct {
					PricePerUnit struct {
						USD string `json:"USD"`
					} `json:"pricePerUnit"`
				} `json:"priceDimensions"`
			} `json:"OnDemand"`
		} `json:"terms"`
	}

	if err := json.Unmarshal([]byte(doc), &product); err != nil {
		return 0, fmt.Errorf("failed to decode price list entry: %w", err)
	}

	for _, offer := range product.Terms.OnDemand {
		for _, dimension := range offer.PriceDimensions {
			price, err := strconv.ParseFloat(dimension.PricePerUnit.USD, 64)
			if err != nil {
				continue
			}
			if price > 0 {
				return price, nil
			}
		}
	}
	return 0, fmt.Errorf("no usable USD rate in price list entry")
}
