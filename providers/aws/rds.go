package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/cloudtrim/rightsizer/types"
)

// listRDSInstances discovers available RDS database instances
func (p *Provider) listRDSInstances(ctx context.Context, clients regionClients, region string) ([]types.ResourceConfig, error) {
	var resources []types.ResourceConfig

	paginator := rds.NewDescribeDBInstancesPaginator(clients.rds, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe RDS instances: %w", err)
		}

		for _, db := range page.DBInstances {
			if aws.ToString(db.DBInstanceStatus) != "available" {
				continue
			}
			resource, err := buildRDSResource(db, region)
			if err != nil {
				p.logger.WithContext(ctx).Warn().
					Err(err).
					Str("db_instance", aws.ToString(db.DBInstanceIdentifier)).
					Msg("skipping unparseable database instance")
				continue
			}
			resources = append(resources, resource)
		}
	}

	return resources, nil
}

// buildRDSResource converts one DB instance to a resource config
func buildRDSResource(db rdstypes.DBInstance, region string) (types.ResourceConfig, error) {
	instanceType, err := types.ParseInstanceType(aws.ToString(db.DBInstanceClass))
	if err != nil {
		return types.ResourceConfig{}, err
	}

	id := aws.ToString(db.DBInstanceIdentifier)
	return types.ResourceConfig{
		ID:           id,
		Name:         id,
		Kind:         types.KindRDS,
		Region:       region,
		InstanceType: instanceType,
		Engine:       aws.ToString(db.Engine),
	}, nil
}
