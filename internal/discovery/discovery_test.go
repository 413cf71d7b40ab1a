package discovery

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	tagging "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	taggingtypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaosprobe/chaosprobe/internal/testutil"
)

type mockTagging struct {
	inputs []*tagging.GetResourcesInput
	pages  []*tagging.GetResourcesOutput
}

func (m *mockTagging) GetResources(ctx context.Context, params *tagging.GetResourcesInput, optFns ...func(*tagging.Options)) (*tagging.GetResourcesOutput, error) {
	m.inputs = append(m.inputs, params)
	out := m.pages[0]
	if len(m.pages) > 1 {
		m.pages = m.pages[1:]
	}
	return out, nil
}

type mockSTS struct{}

func (mockSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: aws.String("123456789012")}, nil
}

func mapping(arn string, tags map[string]string) taggingtypes.ResourceTagMapping {
	m := taggingtypes.ResourceTagMapping{ResourceARN: aws.String(arn)}
	for k, v := range tags {
		m.Tags = append(m.Tags, taggingtypes.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return m
}

func TestListTaggedResources_Paginates(t *testing.T) {
	mock := &mockTagging{pages: []*tagging.GetResourcesOutput{
		{
			ResourceTagMappingList: []taggingtypes.ResourceTagMapping{
				mapping("arn:aws:ecs:us-east-1:123456789012:service/cart", map[string]string{"Environment": "prod"}),
			},
			PaginationToken: aws.String("next"),
		},
		{
			ResourceTagMappingList: []taggingtypes.ResourceTagMapping{
				mapping("arn:aws:rds:us-east-1:123456789012:cluster:orders", nil),
			},
		},
	}}
	d := NewWithClients(mock, mockSTS{}, testutil.Logger())

	resources, err := d.ListTaggedResources(context.Background(), []map[string]string{
		{"Environment": "prod"},
	})
	require.NoError(t, err)
	require.Len(t, resources, 2)
	assert.Equal(t, "ecs", resources[0].Service)
	assert.Equal(t, "prod", resources[0].Tags["Environment"])
	assert.Equal(t, "rds", resources[1].Service)

	require.Len(t, mock.inputs, 2)
	require.Len(t, mock.inputs[0].TagFilters, 1)
	assert.Equal(t, "Environment", aws.ToString(mock.inputs[0].TagFilters[0].Key))
	assert.Equal(t, []string{"prod"}, mock.inputs[0].TagFilters[0].Values)
	assert.Equal(t, "next", aws.ToString(mock.inputs[1].PaginationToken))
}

func TestListTaggedResources_NoTagsMeansNoFilter(t *testing.T) {
	mock := &mockTagging{pages: []*tagging.GetResourcesOutput{{}}}
	d := NewWithClients(mock, mockSTS{}, testutil.Logger())

	_, err := d.ListTaggedResources(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, mock.inputs[0].TagFilters)
}

func TestAccountID(t *testing.T) {
	d := NewWithClients(&mockTagging{pages: []*tagging.GetResourcesOutput{{}}}, mockSTS{}, testutil.Logger())

	account, err := d.AccountID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "123456789012", account)
}
