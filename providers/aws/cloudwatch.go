package aws

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/cloudtrim/rightsizer/types"
)

// metricPeriod is the sample granularity. Hourly keeps a 30-day window at
// 720 datapoints, well under the GetMetricStatistics cap of 1440.
const metricPeriod = 3600

// metricSpec maps one metric kind onto its CloudWatch identity
type metricSpec struct {
	namespace  string
	metricName string
	dimension  string
}

var ec2MetricSpecs = map[types.MetricKind]metricSpec{
	types.MetricCPU:        {"AWS/EC2", "CPUUtilization", "InstanceId"},
	types.MetricNetworkIn:  {"AWS/EC2", "NetworkIn", "InstanceId"},
	types.MetricNetworkOut: {"AWS/EC2", "NetworkOut", "InstanceId"},
	types.MetricDiskRead:   {"AWS/EC2", "DiskReadBytes", "InstanceId"},
	types.MetricDiskWrite:  {"AWS/EC2", "DiskWriteBytes", "InstanceId"},
}

var rdsMetricSpecs = map[types.MetricKind]metricSpec{
	types.MetricCPU:            {"AWS/RDS", "CPUUtilization", "DBInstanceIdentifier"},
	types.MetricConnections:    {"AWS/RDS", "DatabaseConnections", "DBInstanceIdentifier"},
	types.MetricReadIOPS:       {"AWS/RDS", "ReadIOPS", "DBInstanceIdentifier"},
	types.MetricWriteIOPS:      {"AWS/RDS", "WriteIOPS", "DBInstanceIdentifier"},
	types.MetricFreeableMemory: {"AWS/RDS", "FreeableMemory", "DBInstanceIdentifier"},
}

// specFor resolves the CloudWatch identity for one kind. EC2 instance IDs
// always carry the i- prefix; everything else is a DB identifier.
func specFor(kind types.MetricKind, resourceID string) (metricSpec, bool) {
	if strings.HasPrefix(resourceID, "i-") {
		spec, ok := ec2MetricSpecs[kind]
		return spec, ok
	}
	spec, ok := rdsMetricSpecs[kind]
	return spec, ok
}

// MetricsSource fetches utilization samples from CloudWatch. Regionless in
// its API because the client it wraps is already region-bound.
type MetricsSource struct {
	client CloudWatchAPI
}

// NewMetricsSource wraps a CloudWatch client
func NewMetricsSource(client CloudWatchAPI) *MetricsSource {
	return &MetricsSource{client: client}
}

// FetchSamples retrieves the hourly series for each kind over the window.
// Kinds with no CloudWatch mapping or no datapoints contribute nothing;
// sparse series are the analyzer's concern, not an error here.
func (s *MetricsSource) FetchSamples(ctx context.Context, resourceID string, kinds []types.MetricKind, window types.Window) ([]types.MetricSample, error) {
	var samples []types.MetricSample

	for _, kind := range kinds {
		spec, ok := specFor(kind, resourceID)
		if !ok {
			continue
		}

		output, err := s.client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
			Namespace:  aws.String(spec.namespace),
			MetricName: aws.String(spec.metricName),
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String(spec.dimension), Value: aws.String(resourceID)},
			},
			StartTime:  aws.Time(window.Start),
			EndTime:    aws.Time(window.End),
			Period:     aws.Int32(metricPeriod),
			Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s for %s: %w", spec.metricName, resourceID, err)
		}

		for _, dp := range output.Datapoints {
			samples = append(samples, types.MetricSample{
				Timestamp:  aws.ToTime(dp.Timestamp),
				Kind:       kind,
				Value:      aws.ToFloat64(dp.Average),
				ResourceID: resourceID,
			})
		}
	}

	// CloudWatch returns datapoints in arbitrary order
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Kind != samples[j].Kind {
			return samples[i].Kind < samples[j].Kind
		}
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	return samples, nil
}

// FetchSamples satisfies the telemetry-source contract on the provider by
// routing to the region-bound CloudWatch client
func (p *Provider) FetchSamples(ctx context.Context, resourceID, region string, kinds []types.MetricKind, window types.Window) ([]types.MetricSample, error) {
	clients, err := p.clientsFor(region)
	if err != nil {
		return nil, err
	}
	return NewMetricsSource(clients.cloudwatch).FetchSamples(ctx, resourceID, kinds, window)
}
