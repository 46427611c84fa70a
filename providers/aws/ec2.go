package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/cloudtrim/rightsizer/types"
)

// listEC2Instances discovers running EC2 instances
func (p *Provider) listEC2Instances(ctx context.Context, clients regionClients, region string) ([]types.ResourceConfig, error) {
	asgMembers, err := p.asgManagedInstances(ctx, clients.autoscaling)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ASG membership: %w", err)
	}

	input := &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{"running"},
			},
		},
	}

	var resources []types.ResourceConfig
	paginator := ec2.NewDescribeInstancesPaginator(clients.ec2, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe EC2 instances: %w", err)
		}

		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				resource, err := buildEC2Resource(instance, region, asgMembers)
				if err != nil {
					p.logger.WithContext(ctx).Warn().
						Err(err).
						Str("instance_id", aws.ToString(instance.InstanceId)).
						Msg("skipping unparseable instance")
					continue
				}
				resources = append(resources, resource)
			}
		}
	}

	return resources, nil
}

// buildEC2Resource converts one EC2 instance to a resource config
func buildEC2Resource(instance ec2types.Instance, region string, asgMembers map[string]bool) (types.ResourceConfig, error) {
	id := aws.ToString(instance.InstanceId)

	instanceType, err := types.ParseInstanceType(string(instance.InstanceType))
	if err != nil {
		return types.ResourceConfig{}, err
	}

	return types.ResourceConfig{
		ID:           id,
		Name:         nameFromTags(instance.Tags),
		Kind:         types.KindEC2,
		Region:       region,
		InstanceType: instanceType,
		ASGManaged:   asgMembers[id],
	}, nil
}

// nameFromTags extracts the Name tag, if present
func nameFromTags(tags []ec2types.Tag) string {
	for _, tag := range tags {
		if aws.ToString(tag.Key) == "Name" {
			return aws.ToString(tag.Value)
		}
	}
	return ""
}
