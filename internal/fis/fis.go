// Package fis drives AWS Fault Injection Simulator: creating experiment
// templates from the documents agents store in the database, starting
// experiments, and waiting for them to finish.
package fis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsfis "github.com/aws/aws-sdk-go-v2/service/fis"
	fistypes "github.com/aws/aws-sdk-go-v2/service/fis/types"
	"github.com/oklog/ulid/v2"

	"github.com/chaosprobe/chaosprobe/internal/metrics"
)

// API is the FIS surface the operations layer uses.
type API interface {
	CreateExperimentTemplate(ctx context.Context, params *awsfis.CreateExperimentTemplateInput, optFns ...func(*awsfis.Options)) (*awsfis.CreateExperimentTemplateOutput, error)
	StartExperiment(ctx context.Context, params *awsfis.StartExperimentInput, optFns ...func(*awsfis.Options)) (*awsfis.StartExperimentOutput, error)
	GetExperiment(ctx context.Context, params *awsfis.GetExperimentInput, optFns ...func(*awsfis.Options)) (*awsfis.GetExperimentOutput, error)
}

// ErrWaitTimeout is returned when an experiment does not reach a terminal
// state within the wait budget.
var ErrWaitTimeout = errors.New("fis: experiment did not complete in time")

// Outcome is the terminal state of one experiment run.
type Outcome struct {
	ExperimentID string `json:"experiment_id"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
}

// Completed reports whether the run ended in the completed state, as opposed
// to stopped or failed.
func (o Outcome) Completed() bool {
	return o.Status == string(fistypes.ExperimentStatusCompleted)
}

// Operations wraps the FIS client with the call sequences the workflow needs.
type Operations struct {
	client API
	logger *slog.Logger

	// PollInterval controls how often WaitForCompletion checks state.
	PollInterval time.Duration
}

func New(awsCfg aws.Config, logger *slog.Logger) *Operations {
	return NewWithClient(awsfis.NewFromConfig(awsCfg), logger)
}

func NewWithClient(client API, logger *slog.Logger) *Operations {
	if logger == nil {
		logger = slog.Default()
	}
	return &Operations{client: client, logger: logger, PollInterval: 15 * time.Second}
}

// CreateTemplate creates an experiment template from a stored FIS
// configuration document, overriding its role with the pre-provisioned
// execution role. Returns the template id.
func (o *Operations) CreateTemplate(ctx context.Context, doc map[string]any, roleArn string) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding template document: %w", err)
	}
	var input awsfis.CreateExperimentTemplateInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return "", fmt.Errorf("decoding template document: %w", err)
	}

	input.RoleArn = aws.String(roleArn)
	input.ClientToken = aws.String(ulid.Make().String())
	if input.Description == nil {
		input.Description = aws.String("chaosprobe experiment")
	}
	if len(input.StopConditions) == 0 {
		input.StopConditions = []fistypes.CreateExperimentTemplateStopConditionInput{
			{Source: aws.String("none")},
		}
	}

	out, err := o.client.CreateExperimentTemplate(ctx, &input)
	if err != nil {
		return "", fmt.Errorf("creating experiment template: %w", err)
	}
	id := aws.ToString(out.ExperimentTemplate.Id)
	o.logger.Info("created FIS experiment template", "tool_output", id)
	return id, nil
}

// StartExperiment starts a run of the given template and returns the
// experiment id.
func (o *Operations) StartExperiment(ctx context.Context, templateID string) (string, error) {
	out, err := o.client.StartExperiment(ctx, &awsfis.StartExperimentInput{
		ExperimentTemplateId: aws.String(templateID),
		ClientToken:          aws.String(ulid.Make().String()),
	})
	if err != nil {
		return "", fmt.Errorf("starting experiment: %w", err)
	}
	metrics.ExperimentsStarted.Add(1)
	id := aws.ToString(out.Experiment.Id)
	o.logger.Info("started FIS experiment", "tool_output", id)
	return id, nil
}

// WaitForCompletion polls the experiment until it reaches a terminal state
// or ctx expires. The caller bounds the wait through ctx.
func (o *Operations) WaitForCompletion(ctx context.Context, experimentID string) (Outcome, error) {
	ticker := time.NewTicker(o.PollInterval)
	defer ticker.Stop()

	for {
		out, err := o.client.GetExperiment(ctx, &awsfis.GetExperimentInput{
			Id: aws.String(experimentID),
		})
		if err != nil {
			return Outcome{}, fmt.Errorf("polling experiment %s: %w", experimentID, err)
		}

		outcome := Outcome{ExperimentID: experimentID}
		if state := out.Experiment.State; state != nil {
			outcome.Status = string(state.Status)
			outcome.Reason = aws.ToString(state.Reason)
		}
		switch fistypes.ExperimentStatus(outcome.Status) {
		case fistypes.ExperimentStatusCompleted,
			fistypes.ExperimentStatusStopped,
			fistypes.ExperimentStatusFailed:
			o.logger.Info("FIS experiment reached terminal state",
				"tool_output", outcome.Status, "error", outcome.Reason)
			return outcome, nil
		}

		select {
		case <-ctx.Done():
			return outcome, fmt.Errorf("%w: last status %s", ErrWaitTimeout, outcome.Status)
		case <-ticker.C:
		}
	}
}
