package fis

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsfis "github.com/aws/aws-sdk-go-v2/service/fis"
	fistypes "github.com/aws/aws-sdk-go-v2/service/fis/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaosprobe/chaosprobe/internal/testutil"
)

type mockFIS struct {
	createInput *awsfis.CreateExperimentTemplateInput
	startInput  *awsfis.StartExperimentInput
	getCalls    int
	statuses    []fistypes.ExperimentStatus
}

func (m *mockFIS) CreateExperimentTemplate(ctx context.Context, params *awsfis.CreateExperimentTemplateInput, optFns ...func(*awsfis.Options)) (*awsfis.CreateExperimentTemplateOutput, error) {
	m.createInput = params
	return &awsfis.CreateExperimentTemplateOutput{
		ExperimentTemplate: &fistypes.ExperimentTemplate{Id: aws.String("EXT123")},
	}, nil
}

func (m *mockFIS) StartExperiment(ctx context.Context, params *awsfis.StartExperimentInput, optFns ...func(*awsfis.Options)) (*awsfis.StartExperimentOutput, error) {
	m.startInput = params
	return &awsfis.StartExperimentOutput{
		Experiment: &fistypes.Experiment{Id: aws.String("EXP456")},
	}, nil
}

func (m *mockFIS) GetExperiment(ctx context.Context, params *awsfis.GetExperimentInput, optFns ...func(*awsfis.Options)) (*awsfis.GetExperimentOutput, error) {
	status := m.statuses[m.getCalls]
	if m.getCalls < len(m.statuses)-1 {
		m.getCalls++
	}
	return &awsfis.GetExperimentOutput{
		Experiment: &fistypes.Experiment{
			Id:    params.Id,
			State: &fistypes.ExperimentState{Status: status},
		},
	}, nil
}

func TestCreateTemplate(t *testing.T) {
	mock := &mockFIS{}
	ops := NewWithClient(mock, testutil.Logger())

	doc := map[string]any{
		"description": "stop one ECS task",
		"actions": map[string]any{
			"stopTask": map[string]any{
				"actionId": "aws:ecs:stop-task",
			},
		},
		"roleArn": "arn:aws:iam::123456789012:role/stale-role",
	}

	id, err := ops.CreateTemplate(context.Background(), doc, "arn:aws:iam::123456789012:role/ChaosAgentFISExecutionRole")
	require.NoError(t, err)
	assert.Equal(t, "EXT123", id)

	in := mock.createInput
	require.NotNil(t, in)
	assert.Equal(t, "stop one ECS task", aws.ToString(in.Description))
	assert.Contains(t, in.Actions, "stopTask")

	// the stored role is always replaced with the provisioned execution role
	assert.Equal(t, "arn:aws:iam::123456789012:role/ChaosAgentFISExecutionRole", aws.ToString(in.RoleArn))
	assert.NotEmpty(t, aws.ToString(in.ClientToken))

	// a document without stop conditions gets the explicit none source
	require.Len(t, in.StopConditions, 1)
	assert.Equal(t, "none", aws.ToString(in.StopConditions[0].Source))
}

func TestStartExperiment(t *testing.T) {
	mock := &mockFIS{}
	ops := NewWithClient(mock, testutil.Logger())

	id, err := ops.StartExperiment(context.Background(), "EXT123")
	require.NoError(t, err)
	assert.Equal(t, "EXP456", id)
	assert.Equal(t, "EXT123", aws.ToString(mock.startInput.ExperimentTemplateId))
	assert.NotEmpty(t, aws.ToString(mock.startInput.ClientToken))
}

func TestWaitForCompletion(t *testing.T) {
	mock := &mockFIS{statuses: []fistypes.ExperimentStatus{
		fistypes.ExperimentStatusPending,
		fistypes.ExperimentStatusRunning,
		fistypes.ExperimentStatusCompleted,
	}}
	ops := NewWithClient(mock, testutil.Logger())
	ops.PollInterval = time.Millisecond

	outcome, err := ops.WaitForCompletion(context.Background(), "EXP456")
	require.NoError(t, err)
	assert.True(t, outcome.Completed())
	assert.Equal(t, "EXP456", outcome.ExperimentID)
}

func TestWaitForCompletion_ContextBoundsTheWait(t *testing.T) {
	mock := &mockFIS{statuses: []fistypes.ExperimentStatus{fistypes.ExperimentStatusRunning}}
	ops := NewWithClient(mock, testutil.Logger())
	ops.PollInterval = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	outcome, err := ops.WaitForCompletion(ctx, "EXP456")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.Equal(t, string(fistypes.ExperimentStatusRunning), outcome.Status)
	assert.False(t, outcome.Completed())
}

func TestWaitForCompletion_Failed(t *testing.T) {
	mock := &mockFIS{statuses: []fistypes.ExperimentStatus{fistypes.ExperimentStatusFailed}}
	ops := NewWithClient(mock, testutil.Logger())
	ops.PollInterval = time.Millisecond

	outcome, err := ops.WaitForCompletion(context.Background(), "EXP456")
	require.NoError(t, err)
	assert.False(t, outcome.Completed())
	assert.Equal(t, string(fistypes.ExperimentStatusFailed), outcome.Status)
}
