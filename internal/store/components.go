package store

import (
	"context"
	"fmt"
	"strings"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"

	"github.com/chaosprobe/chaosprobe/internal/database"
	"github.com/chaosprobe/chaosprobe/pkg/types"
)

// NewComponent carries the fields for a system component insert.
type NewComponent struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description *string `json:"description,omitempty"`
}

// ComponentUpdate carries the fields for a component update; nil means
// "leave unchanged".
type ComponentUpdate struct {
	Name        *string `json:"name,omitempty"`
	Type        *string `json:"component_type,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ComponentsResult is the envelope returned by GetSystemComponents.
type ComponentsResult struct {
	Success    bool                    `json:"success"`
	Components []types.SystemComponent `json:"components"`
	Count      int                     `json:"count"`
	TypeFilter string                  `json:"type_filter,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Message    string                  `json:"message"`
}

const insertComponentSQL = `
        INSERT INTO system_component (name, type, description)
        VALUES (:name, :type, :description)
        RETURNING id`

// InsertSystemComponent inserts one component and returns its id.
func (s *Store) InsertSystemComponent(ctx context.Context, c NewComponent) (int64, error) {
	s.logger.Info("inserting system component", "name", c.Name, "type", c.Type)

	params := []rdstypes.SqlParameter{
		database.Param("name", c.Name),
		database.Param("type", c.Type),
		database.Param("description", c.Description),
	}

	out, err := s.gw.Execute(ctx, insertComponentSQL, params)
	if err != nil {
		return 0, fmt.Errorf("inserting system component: %w", err)
	}
	ids := database.ReturnedIDs(out)
	if len(ids) == 0 {
		return 0, fmt.Errorf("inserting system component: no id returned")
	}
	return ids[0], nil
}

// UpdateSystemComponent updates only the supplied fields of one component.
func (s *Store) UpdateSystemComponent(ctx context.Context, id int64, upd ComponentUpdate) Result {
	s.logger.Info("updating system component", "component_id", id)

	var b updateBuilder
	if upd.Name != nil {
		b.set("name = :name", database.Param("name", *upd.Name))
	}
	if upd.Type != nil {
		b.set("type = :type", database.Param("type", *upd.Type))
	}
	if upd.Description != nil {
		b.set("description = :description", database.Param("description", *upd.Description))
	}

	if b.empty() {
		s.logger.Warn("no fields provided for component update", "component_id", id)
		return Result{Kind: KindNotFound}
	}

	sql := b.build("system_component", "id = :component_id")
	params := append(b.params, database.Param("component_id", id))

	out, err := s.gw.Execute(ctx, sql, params)
	if err != nil {
		return Result{Kind: KindTransportError, Err: err}
	}
	if n := database.AffectedRows(out); n > 0 {
		return Result{Kind: KindOk, RowsAffected: n}
	}
	s.logger.Warn("no system component found", "component_id", id)
	return Result{Kind: KindNotFound}
}

const getComponentsBaseSQL = `
        SELECT id, name, type, description, created_at, updated_at
        FROM system_component`

// GetSystemComponents retrieves components ordered by name.
func (s *Store) GetSystemComponents(ctx context.Context, componentType string, limit int64) *ComponentsResult {
	s.logger.Info("getting system components", "type", componentType)

	var b queryBuilder
	if componentType != "" {
		b.where("type = :component_type", database.Param("component_type", componentType))
	}
	if limit <= 0 {
		limit = 50
	}
	sql := b.build(getComponentsBaseSQL, " ORDER BY name LIMIT :limit")
	b.params = append(b.params, database.Param("limit", limit))

	out, err := s.gw.Execute(ctx, sql, b.params)
	if err != nil {
		s.logger.Error("getting system components failed", "error", err)
		return &ComponentsResult{
			Success:    false,
			Components: []types.SystemComponent{},
			Error:      err.Error(),
			Message:    "Failed to get system components from database",
		}
	}

	components := make([]types.SystemComponent, 0, len(out.Records))
	for _, record := range out.Records {
		components = append(components, types.SystemComponent{
			ID:          database.Long(record[0]),
			Name:        database.Str(record[1]),
			Type:        database.Str(record[2]),
			Description: database.Str(record[3]),
			CreatedAt:   database.Str(record[4]),
			UpdatedAt:   database.Str(record[5]),
		})
	}

	return &ComponentsResult{
		Success:    true,
		Components: components,
		Count:      len(components),
		TypeFilter: componentType,
		Message:    fmt.Sprintf("Retrieved %d system components", len(components)),
	}
}

// BatchInsertSystemComponents inserts many components in one multi-VALUES
// statement. Validation is all-or-nothing.
func (s *Store) BatchInsertSystemComponents(ctx context.Context, components []NewComponent) BatchResult {
	s.logger.Info("batch inserting system components", "count", len(components))

	if len(components) == 0 {
		return BatchResult{
			Kind:    KindValidationError,
			Error:   "No system components provided",
			Message: "No system components to insert",
		}
	}
	for i, c := range components {
		if strings.TrimSpace(c.Name) == "" {
			return batchValidationError(
				fmt.Errorf("component %d has invalid name", i),
				"Failed to validate batch insert data")
		}
		if strings.TrimSpace(c.Type) == "" {
			return batchValidationError(
				fmt.Errorf("component %d has invalid type", i),
				"Failed to validate batch insert data")
		}
	}

	valuesClauses := make([]string, len(components))
	var params []rdstypes.SqlParameter
	for i, c := range components {
		valuesClauses[i] = fmt.Sprintf("(:name_%d, :type_%d, :description_%d)", i, i, i)
		params = append(params,
			database.Param(fmt.Sprintf("name_%d", i), c.Name),
			database.Param(fmt.Sprintf("type_%d", i), c.Type),
			database.Param(fmt.Sprintf("description_%d", i), c.Description))
	}

	sql := fmt.Sprintf(`
        INSERT INTO system_component (name, type, description)
        VALUES %s
        RETURNING id`, strings.Join(valuesClauses, ", "))

	out, err := s.gw.Execute(ctx, sql, params)
	if err != nil {
		return batchTransportError(err, "Database error during batch insert")
	}

	ids := database.ReturnedIDs(out)
	if len(ids) == 0 {
		return BatchResult{
			Kind:           KindNotFound,
			RequestedCount: len(components),
			Error:          "No system components were inserted",
			Message:        "Failed to insert system components",
		}
	}

	s.logger.Info("batch inserted system components", "inserted", len(ids))
	return BatchResult{
		Success:        true,
		Kind:           KindOk,
		AffectedCount:  len(ids),
		RequestedCount: len(components),
		InsertedIDs:    ids,
		Message:        fmt.Sprintf("Successfully inserted %d system components", len(ids)),
	}
}
