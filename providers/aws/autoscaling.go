package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
)

// asgManagedInstances returns the set of instance IDs owned by an Auto
// Scaling group. Group members scale horizontally; changing their instance
// type belongs in the launch template, not on the individual instance.
func (p *Provider) asgManagedInstances(ctx context.Context, client AutoScalingAPI) (map[string]bool, error) {
	members := make(map[string]bool)

	paginator := autoscaling.NewDescribeAutoScalingGroupsPaginator(client, &autoscaling.DescribeAutoScalingGroupsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe Auto Scaling groups: %w", err)
		}

		for _, group := range page.AutoScalingGroups {
			for _, instance := range group.Instances {
				members[aws.ToString(instance.InstanceId)] = true
			}
		}
	}

	return members, nil
}
