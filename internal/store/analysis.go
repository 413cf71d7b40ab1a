package store

import (
	"context"
	"fmt"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"

	"github.com/chaosprobe/chaosprobe/internal/database"
	"github.com/chaosprobe/chaosprobe/pkg/types"
)

// NewSourceAnalysis carries the fields for a source code analysis insert.
// Records are append-only; the latest analysis wins.
type NewSourceAnalysis struct {
	RepositoryURL          string            `json:"repository_url"`
	FrameworkStack         []string          `json:"framework_stack,omitempty"`
	AWSServicesDetected    []string          `json:"aws_services_detected,omitempty"`
	InfrastructurePatterns map[string]string `json:"infrastructure_patterns,omitempty"`
	DeploymentMethods      []string          `json:"deployment_methods,omitempty"`
	ArchitecturalSummary   *string           `json:"architectural_summary,omitempty"`
	FailurePointsAnalysis  *string           `json:"failure_points_analysis,omitempty"`
	Recommendations        *string           `json:"recommendations,omitempty"`
}

// NewResourceAnalysis carries the fields for a resource analysis upsert,
// keyed by resource_id. Zero-value DeploymentStatus defaults to "unknown".
type NewResourceAnalysis struct {
	ResourceType     string         `json:"resource_type"`
	ResourceID       string         `json:"resource_id"`
	AWSAccountID     *string        `json:"aws_account_id,omitempty"`
	Region           *string        `json:"region,omitempty"`
	AnalysisResults  map[string]any `json:"analysis_results,omitempty"`
	DeploymentStatus string         `json:"deployment_status,omitempty"`
	ResourceMetadata map[string]any `json:"resource_metadata,omitempty"`
}

// SourceAnalysisResult is the envelope returned by GetSourceAnalysis.
type SourceAnalysisResult struct {
	Success  bool                      `json:"success"`
	Analysis *types.SourceCodeAnalysis `json:"analysis"`
	Error    string                    `json:"error,omitempty"`
	Message  string                    `json:"message"`
}

// ResourceAnalysisResult is the envelope returned by GetResourceAnalysis.
type ResourceAnalysisResult struct {
	Success  bool                    `json:"success"`
	Analysis *types.ResourceAnalysis `json:"analysis"`
	Error    string                  `json:"error,omitempty"`
	Message  string                  `json:"message"`
}

// DeployedResourcesResult is the envelope returned by GetDeployedResources.
type DeployedResourcesResult struct {
	Success         bool                                `json:"success"`
	Resources       []types.DeployedResource            `json:"resources"`
	ResourcesByType map[string][]types.DeployedResource `json:"resources_by_type,omitempty"`
	TotalCount      int                                 `json:"total_count,omitempty"`
	Error           string                              `json:"error,omitempty"`
	Message         string                              `json:"message"`
}

const insertSourceAnalysisSQL = `
        INSERT INTO source_code_analysis (
            repository_url, framework_stack, aws_services_detected,
            infrastructure_patterns, deployment_methods,
            architectural_summary, failure_points_analysis, recommendations
        )
        VALUES (
            :repository_url, :framework_stack, :aws_services_detected,
            :infrastructure_patterns, :deployment_methods,
            :architectural_summary, :failure_points_analysis, :recommendations
        )
        RETURNING id`

// InsertSourceAnalysis appends one repository analysis record and returns
// its id.
func (s *Store) InsertSourceAnalysis(ctx context.Context, a NewSourceAnalysis) (int64, error) {
	s.logger.Info("inserting source code analysis", "repository_url", a.RepositoryURL)

	params := []rdstypes.SqlParameter{
		database.Param("repository_url", a.RepositoryURL),
		database.JSONParam("framework_stack", sliceOrNil(a.FrameworkStack)),
		database.JSONParam("aws_services_detected", sliceOrNil(a.AWSServicesDetected)),
		database.JSONParam("infrastructure_patterns", stringMapOrNil(a.InfrastructurePatterns)),
		database.JSONParam("deployment_methods", sliceOrNil(a.DeploymentMethods)),
		database.Param("architectural_summary", a.ArchitecturalSummary),
		database.Param("failure_points_analysis", a.FailurePointsAnalysis),
		database.Param("recommendations", a.Recommendations),
	}

	out, err := s.gw.Execute(ctx, insertSourceAnalysisSQL, params)
	if err != nil {
		return 0, fmt.Errorf("inserting source code analysis: %w", err)
	}
	ids := database.ReturnedIDs(out)
	if len(ids) == 0 {
		return 0, fmt.Errorf("inserting source code analysis: no id returned")
	}
	return ids[0], nil
}

const insertResourceAnalysisSQL = `
        INSERT INTO aws_resource_analysis (
            resource_type, resource_id, aws_account_id, region,
            analysis_results, deployment_status, resource_metadata
        )
        VALUES (
            :resource_type, :resource_id, :aws_account_id, :region,
            :analysis_results, :deployment_status, :resource_metadata
        )
        ON CONFLICT (resource_id) DO UPDATE SET
            analysis_results = EXCLUDED.analysis_results,
            deployment_status = EXCLUDED.deployment_status,
            resource_metadata = EXCLUDED.resource_metadata,
            updated_at = CURRENT_TIMESTAMP
        RETURNING id`

// InsertResourceAnalysis upserts one resource analysis record keyed by
// resource_id and returns its id. Re-analyzing a known resource refreshes
// the results in place.
func (s *Store) InsertResourceAnalysis(ctx context.Context, a NewResourceAnalysis) (int64, error) {
	if a.DeploymentStatus == "" {
		a.DeploymentStatus = types.DeploymentUnknown
	}
	s.logger.Info("inserting resource analysis", "resource_type", a.ResourceType, "resource_id", a.ResourceID)

	params := []rdstypes.SqlParameter{
		database.Param("resource_type", a.ResourceType),
		database.Param("resource_id", a.ResourceID),
		database.Param("aws_account_id", a.AWSAccountID),
		database.Param("region", a.Region),
		database.JSONParam("analysis_results", mapOrNil(a.AnalysisResults)),
		database.Param("deployment_status", a.DeploymentStatus),
		database.JSONParam("resource_metadata", mapOrNil(a.ResourceMetadata)),
	}

	out, err := s.gw.Execute(ctx, insertResourceAnalysisSQL, params)
	if err != nil {
		return 0, fmt.Errorf("inserting resource analysis: %w", err)
	}
	ids := database.ReturnedIDs(out)
	if len(ids) == 0 {
		return 0, fmt.Errorf("inserting resource analysis: no id returned")
	}
	return ids[0], nil
}

const getSourceAnalysisSQL = `
        SELECT id, repository_url, framework_stack, aws_services_detected,
               infrastructure_patterns, deployment_methods,
               architectural_summary, failure_points_analysis, recommendations,
               analysis_timestamp
        FROM source_code_analysis
        ORDER BY analysis_timestamp DESC
        LIMIT 1`

// GetSourceAnalysis retrieves the most recent source code analysis.
func (s *Store) GetSourceAnalysis(ctx context.Context) *SourceAnalysisResult {
	s.logger.Info("getting latest source code analysis")

	out, err := s.gw.Execute(ctx, getSourceAnalysisSQL, nil)
	if err != nil {
		s.logger.Error("getting source code analysis failed", "error", err)
		return &SourceAnalysisResult{
			Success: false,
			Error:   err.Error(),
			Message: "Failed to get source code analysis",
		}
	}
	if len(out.Records) == 0 {
		return &SourceAnalysisResult{Success: false, Message: "No source code analysis found"}
	}

	record := out.Records[0]
	return &SourceAnalysisResult{
		Success: true,
		Analysis: &types.SourceCodeAnalysis{
			ID:                     database.Long(record[0]),
			RepositoryURL:          database.Str(record[1]),
			FrameworkStack:         database.JSONStringSlice(record[2], "framework_stack", s.logger),
			AWSServicesDetected:    database.JSONStringSlice(record[3], "aws_services_detected", s.logger),
			InfrastructurePatterns: database.JSONStringMap(record[4], "infrastructure_patterns", s.logger),
			DeploymentMethods:      database.JSONStringSlice(record[5], "deployment_methods", s.logger),
			ArchitecturalSummary:   database.StrPtr(record[6]),
			FailurePointsAnalysis:  database.StrPtr(record[7]),
			Recommendations:        database.StrPtr(record[8]),
			AnalysisTimestamp:      database.Str(record[9]),
		},
		Message: "Source code analysis retrieved successfully",
	}
}

const getResourceAnalysisSQL = `
        SELECT id, aws_account_id, region, resource_metadata, analysis_timestamp
        FROM aws_resource_analysis
        ORDER BY analysis_timestamp DESC
        LIMIT 1`

// GetResourceAnalysis retrieves the most recent resource analysis.
func (s *Store) GetResourceAnalysis(ctx context.Context) *ResourceAnalysisResult {
	s.logger.Info("getting latest resource analysis")

	out, err := s.gw.Execute(ctx, getResourceAnalysisSQL, nil)
	if err != nil {
		s.logger.Error("getting resource analysis failed", "error", err)
		return &ResourceAnalysisResult{
			Success: false,
			Error:   err.Error(),
			Message: "Failed to get AWS resource analysis",
		}
	}
	if len(out.Records) == 0 {
		return &ResourceAnalysisResult{Success: false, Message: "No AWS resource analysis found"}
	}

	record := out.Records[0]
	return &ResourceAnalysisResult{
		Success: true,
		Analysis: &types.ResourceAnalysis{
			ID:                database.Long(record[0]),
			AWSAccountID:      database.StrPtr(record[1]),
			Region:            database.StrPtr(record[2]),
			ResourceMetadata:  database.JSONMap(record[3], "resource_metadata", s.logger),
			AnalysisTimestamp: database.Str(record[4]),
		},
		Message: "AWS resource analysis retrieved successfully",
	}
}

const getDeployedResourcesSQL = `
        SELECT resource_type, resource_id, resource_metadata, analysis_results,
               aws_account_id, region, created_at
        FROM aws_resource_analysis
        WHERE deployment_status = 'deployed'
        ORDER BY created_at DESC`

// GetDeployedResources retrieves only resources with deployment_status
// 'deployed', shaped for hypothesis generation: the deployment_type,
// namespace, and cluster_name metadata keys are lifted to the top level.
func (s *Store) GetDeployedResources(ctx context.Context) *DeployedResourcesResult {
	s.logger.Info("getting deployed resources")

	out, err := s.gw.Execute(ctx, getDeployedResourcesSQL, nil)
	if err != nil {
		s.logger.Error("getting deployed resources failed", "error", err)
		return &DeployedResourcesResult{
			Success:   false,
			Resources: []types.DeployedResource{},
			Error:     err.Error(),
			Message:   "Failed to get deployed resources",
		}
	}
	if len(out.Records) == 0 {
		return &DeployedResourcesResult{
			Success:   false,
			Resources: []types.DeployedResource{},
			Message:   "No deployed resources found",
		}
	}

	resources := make([]types.DeployedResource, 0, len(out.Records))
	byType := make(map[string][]types.DeployedResource)
	for _, record := range out.Records {
		metadata := database.JSONMap(record[2], "resource_metadata", s.logger)
		r := types.DeployedResource{
			ResourceType:     database.Str(record[0]),
			ResourceID:       database.Str(record[1]),
			ResourceMetadata: metadata,
			AnalysisResults:  database.JSONMap(record[3], "analysis_results", s.logger),
			AWSAccountID:     database.StrPtr(record[4]),
			Region:           database.StrPtr(record[5]),
			CreatedAt:        database.Str(record[6]),
			DeploymentType:   metadata["deployment_type"],
			Namespace:        metadata["namespace"],
			ClusterName:      metadata["cluster_name"],
		}
		resources = append(resources, r)
		byType[r.ResourceType] = append(byType[r.ResourceType], r)
	}

	return &DeployedResourcesResult{
		Success:         true,
		Resources:       resources,
		ResourcesByType: byType,
		TotalCount:      len(resources),
		Message:         fmt.Sprintf("Retrieved %d deployed resources", len(resources)),
	}
}

// sliceOrNil maps an empty slice to nil so JSONParam emits SQL NULL, not "[]".
func sliceOrNil(s []string) any {
	if len(s) == 0 {
		return nil
	}
	return s
}

func stringMapOrNil(m map[string]string) any {
	if len(m) == 0 {
		return nil
	}
	return m
}

func mapOrNil(m map[string]any) any {
	if len(m) == 0 {
		return nil
	}
	return m
}
