package aws

import (
	"context"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudtrim/rightsizer/types"
)

type mockRDS struct {
	out *rds.DescribeDBInstancesOutput
	err error
}

func (m *mockRDS) DescribeDBInstances(ctx context.Context, in *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.out, nil
}

func dbInstance(id, class, engine, status string) rdstypes.DBInstance {
	return rdstypes.DBInstance{
		DBInstanceIdentifier: sdkaws.String(id),
		DBInstanceClass:      sdkaws.String(class),
		Engine:               sdkaws.String(engine),
		DBInstanceStatus:     sdkaws.String(status),
	}
}

func TestListRDSInstances(t *testing.T) {
	clients := regionClients{
		rds: &mockRDS{
			out: &rds.DescribeDBInstancesOutput{
				DBInstances: []rdstypes.DBInstance{
					dbInstance("orders-db", "db.t3.medium", "postgres", "available"),
					dbInstance("staging-db", "db.r5.large", "mysql", "creating"),
				},
			},
		},
	}

	p := testProvider("eu-west-1", clients)
	resources, err := p.ListResources(context.Background(), types.KindRDS, "eu-west-1")
	require.NoError(t, err)
	require.Len(t, resources, 1, "only available instances are analyzable")

	assert.Equal(t, "orders-db", resources[0].ID)
	assert.Equal(t, types.KindRDS, resources[0].Kind)
	assert.Equal(t, "db.t3", resources[0].InstanceType.Family)
	assert.Equal(t, "medium", resources[0].InstanceType.Size)
	assert.Equal(t, "postgres", resources[0].Engine)
}

func TestListRDSInstancesError(t *testing.T) {
	clients := regionClients{rds: &mockRDS{err: assert.AnError}}

	p := testProvider("eu-west-1", clients)
	_, err := p.ListResources(context.Background(), types.KindRDS, "eu-west-1")
	assert.Error(t, err)
}

func TestListResourcesUnsupportedKind(t *testing.T) {
	p := testProvider("us-east-1", regionClients{})

	_, err := p.ListResources(context.Background(), types.ResourceKind("lambda"), "us-east-1")
	assert.Error(t, err)
}
