package aws

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/cloudtrim/rightsizer/telemetry"
	"github.com/cloudtrim/rightsizer/types"
)

// regionClients bundles the per-region service clients
type regionClients struct {
	ec2         EC2API
	rds         RDSAPI
	cloudwatch  CloudWatchAPI
	autoscaling AutoScalingAPI
}

// Provider implements inventory, telemetry-source and catalog lookups over
// the AWS SDK. One instance serves every configured region.
type Provider struct {
	regions map[string]regionClients
	logger  *telemetry.Logger
}

// NewProvider builds clients for each region using the default credential
// chain
func NewProvider(ctx context.Context, regions []string) (*Provider, error) {
	p := &Provider{
		regions: make(map[string]regionClients, len(regions)),
		logger:  telemetry.NewLogger("aws-provider"),
	}

	for _, region := range regions {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config for %s: %w", region, err)
		}
		p.regions[region] = regionClients{
			ec2:         ec2.NewFromConfig(cfg),
			rds:         rds.NewFromConfig(cfg),
			cloudwatch:  cloudwatch.NewFromConfig(cfg),
			autoscaling: autoscaling.NewFromConfig(cfg),
		}
	}

	return p, nil
}

// clientsFor returns the client bundle for region
func (p *Provider) clientsFor(region string) (regionClients, error) {
	clients, ok := p.regions[region]
	if !ok {
		return regionClients{}, fmt.Errorf("no clients configured for region %s", region)
	}
	return clients, nil
}

// ListResources returns the running resources of one kind in one region
func (p *Provider) ListResources(ctx context.Context, kind types.ResourceKind, region string) ([]types.ResourceConfig, error) {
	clients, err := p.clientsFor(region)
	if err != nil {
		return nil, err
	}

	switch kind {
	case types.KindEC2:
		return p.listEC2Instances(ctx, clients, region)
	case types.KindRDS:
		return p.listRDSInstances(ctx, clients, region)
	default:
		return nil, fmt.Errorf("unsupported resource kind %q", kind)
	}
}
