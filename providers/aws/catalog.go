package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/cloudtrim/rightsizer/types"
)

// Candidates returns the configuration candidates available in a region.
// EC2 and RDS share the same underlying hardware families; database classes
// are the EC2 catalog under a db. prefix.
func (p *Provider) Candidates(ctx context.Context, region string, kind types.ResourceKind) ([]types.InstanceType, error) {
	clients, err := p.clientsFor(region)
	if err != nil {
		return nil, err
	}

	var candidates []types.InstanceType
	paginator := ec2.NewDescribeInstanceTypesPaginator(clients.ec2, &ec2.DescribeInstanceTypesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instance types: %w", err)
		}

		for _, offering := range page.InstanceTypes {
			parsed, err := types.ParseInstanceType(string(offering.InstanceType))
			if err != nil {
				continue
			}
			// Metal and other off-ladder sizes are not resize targets
			if parsed.SizeRank() < 0 {
				continue
			}

			if offering.VCpuInfo != nil && offering.VCpuInfo.DefaultVCpus != nil {
				parsed.VCPU = *offering.VCpuInfo.DefaultVCpus
			}
			if offering.MemoryInfo != nil && offering.MemoryInfo.SizeInMiB != nil {
				parsed.MemoryMiB = *offering.MemoryInfo.SizeInMiB
			}

			if kind == types.KindRDS {
				parsed.Family = "db." + parsed.Family
			}
			candidates = append(candidates, parsed)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Name() < candidates[j].Name()
	})
	return candidates, nil
}
