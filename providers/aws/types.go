package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/rds"
)

// Narrow client contracts so tests can stand in for the SDK. The paginator
// interfaces come from the SDK itself.

// EC2API covers the EC2 calls the provider makes
type EC2API interface {
	ec2.DescribeInstancesAPIClient
	ec2.DescribeInstanceTypesAPIClient
}

// RDSAPI covers the RDS calls the provider makes
type RDSAPI interface {
	rds.DescribeDBInstancesAPIClient
}

// AutoScalingAPI covers Auto Scaling group membership lookups
type AutoScalingAPI interface {
	autoscaling.DescribeAutoScalingGroupsAPIClient
}

// CloudWatchAPI covers metric statistics retrieval
type CloudWatchAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// PricingAPI covers Pricing API product lookups
type PricingAPI interface {
	pricing.GetProductsAPIClient
}
