package store

import (
	"context"
	"fmt"
	"strings"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"

	"github.com/chaosprobe/chaosprobe/internal/database"
	"github.com/chaosprobe/chaosprobe/pkg/types"
)

// NewHypothesis carries the fields for a hypothesis insert. Zero-value
// Status and Priority default to "proposed" and 1.
type NewHypothesis struct {
	Title                  string  `json:"title"`
	Description            *string `json:"description,omitempty"`
	Persona                *string `json:"persona,omitempty"`
	SteadyStateDescription *string `json:"steady_state_description,omitempty"`
	FailureMode            *string `json:"failure_mode,omitempty"`
	Status                 string  `json:"status,omitempty"`
	Priority               int64   `json:"priority,omitempty"`
	Notes                  *string `json:"notes,omitempty"`
	SystemComponentID      *int64  `json:"system_component_id,omitempty"`
}

func (h *NewHypothesis) applyDefaults() {
	if h.Status == "" {
		h.Status = types.HypothesisProposed
	}
	if h.Priority == 0 {
		h.Priority = 1
	}
}

// HypothesisUpdate carries the fields for a hypothesis update; nil means
// "leave unchanged".
type HypothesisUpdate struct {
	Title                  *string `json:"title,omitempty"`
	Description            *string `json:"description,omitempty"`
	Persona                *string `json:"persona,omitempty"`
	SteadyStateDescription *string `json:"steady_state_description,omitempty"`
	FailureMode            *string `json:"failure_mode,omitempty"`
	Status                 *string `json:"status,omitempty"`
	Priority               *int64  `json:"priority,omitempty"`
	Notes                  *string `json:"notes,omitempty"`
	SystemComponentID      *int64  `json:"system_component_id,omitempty"`
}

// HypothesisFilter selects hypotheses for GetHypotheses. Omitted filters
// impose no constraint.
type HypothesisFilter struct {
	IDs               []int64 `json:"hypothesis_ids,omitempty"`
	Status            string  `json:"status_filter,omitempty"`
	Priority          *int64  `json:"priority_filter,omitempty"`
	SystemComponentID *int64  `json:"system_component_id,omitempty"`
	Service           string  `json:"service_filter,omitempty"`
	TopN              *int64  `json:"top_n,omitempty"`
	MinPriority       *int64  `json:"min_priority,omitempty"`
	MaxPriority       *int64  `json:"max_priority,omitempty"`
	Limit             int64   `json:"limit,omitempty"`
}

// HypothesesResult is the envelope returned by GetHypotheses.
type HypothesesResult struct {
	Success    bool               `json:"success"`
	Hypotheses []types.Hypothesis `json:"hypotheses"`
	Count      int                `json:"count"`
	Filters    map[string]any     `json:"filters,omitempty"`
	Error      string             `json:"error,omitempty"`
	Message    string             `json:"message"`
}

// PriorityUpdate is one entry of a batch priority update.
type PriorityUpdate struct {
	HypothesisID int64 `json:"hypothesis_id"`
	Priority     int64 `json:"priority"`
}

const insertHypothesisSQL = `
        INSERT INTO hypothesis (
            title, description, persona, steady_state_description,
            failure_mode, status, priority, notes, system_component_id
        )
        VALUES (
            :title, :description, :persona, :steady_state_description,
            :failure_mode, :status, :priority, :notes, :system_component_id
        )
        RETURNING id`

// InsertHypothesis inserts one hypothesis and returns its id.
func (s *Store) InsertHypothesis(ctx context.Context, h NewHypothesis) (int64, error) {
	h.applyDefaults()
	s.logger.Info("inserting hypothesis", "title", h.Title, "status", h.Status, "priority", h.Priority)

	params := []rdstypes.SqlParameter{
		database.Param("title", h.Title),
		database.Param("description", h.Description),
		database.Param("persona", h.Persona),
		database.Param("steady_state_description", h.SteadyStateDescription),
		database.Param("failure_mode", h.FailureMode),
		database.Param("status", h.Status),
		database.Param("priority", h.Priority),
		database.Param("notes", h.Notes),
		database.Param("system_component_id", h.SystemComponentID),
	}

	out, err := s.gw.Execute(ctx, insertHypothesisSQL, params)
	if err != nil {
		return 0, fmt.Errorf("inserting hypothesis: %w", err)
	}
	ids := database.ReturnedIDs(out)
	if len(ids) == 0 {
		return 0, fmt.Errorf("inserting hypothesis: no id returned")
	}
	return ids[0], nil
}

// UpdateHypothesis updates only the supplied fields of one hypothesis.
// Supplying no fields is a no-op that does not touch the database.
func (s *Store) UpdateHypothesis(ctx context.Context, id int64, upd HypothesisUpdate) Result {
	s.logger.Info("updating hypothesis", "hypothesis_id", id)

	var b updateBuilder
	if upd.Title != nil {
		b.set("title = :title", database.Param("title", *upd.Title))
	}
	if upd.Description != nil {
		b.set("description = :description", database.Param("description", *upd.Description))
	}
	if upd.Persona != nil {
		b.set("persona = :persona", database.Param("persona", *upd.Persona))
	}
	if upd.SteadyStateDescription != nil {
		b.set("steady_state_description = :steady_state_description", database.Param("steady_state_description", *upd.SteadyStateDescription))
	}
	if upd.FailureMode != nil {
		b.set("failure_mode = :failure_mode", database.Param("failure_mode", *upd.FailureMode))
	}
	if upd.Status != nil {
		b.set("status = :status", database.Param("status", *upd.Status))
	}
	if upd.Priority != nil {
		b.set("priority = :priority", database.Param("priority", *upd.Priority))
	}
	if upd.Notes != nil {
		b.set("notes = :notes", database.Param("notes", *upd.Notes))
	}
	if upd.SystemComponentID != nil {
		b.set("system_component_id = :system_component_id", database.Param("system_component_id", *upd.SystemComponentID))
	}

	if b.empty() {
		s.logger.Warn("no fields provided for hypothesis update", "hypothesis_id", id)
		return Result{Kind: KindNotFound}
	}

	sql := b.build("hypothesis", "id = :hypothesis_id")
	params := append(b.params, database.Param("hypothesis_id", id))

	out, err := s.gw.Execute(ctx, sql, params)
	if err != nil {
		return Result{Kind: KindTransportError, Err: err}
	}
	if n := database.AffectedRows(out); n > 0 {
		return Result{Kind: KindOk, RowsAffected: n}
	}
	s.logger.Warn("no hypothesis found", "hypothesis_id", id)
	return Result{Kind: KindNotFound}
}

const getHypothesesBaseSQL = `
        SELECT h.id, h.title, h.description, h.persona, h.steady_state_description,
               h.failure_mode, h.status, h.priority, h.notes, h.system_component_id,
               h.created_at, h.updated_at,
               sc.name as component_name, sc.type as component_type
        FROM hypothesis h
        LEFT JOIN system_component sc ON h.system_component_id = sc.id`

// GetHypotheses retrieves hypotheses with flexible filtering, ordered by
// priority (1 = highest) then recency. Never returns an error: failures are
// reported in the envelope.
func (s *Store) GetHypotheses(ctx context.Context, f HypothesisFilter) *HypothesesResult {
	s.logger.Info("getting hypotheses",
		"ids", f.IDs, "status", f.Status, "priority", f.Priority,
		"component", f.SystemComponentID, "service", f.Service, "top_n", f.TopN)

	var b queryBuilder
	if len(f.IDs) > 0 {
		b.whereIn("h.id", "id", f.IDs)
	}
	if f.Status != "" {
		b.where("h.status = :status", database.Param("status", f.Status))
	}
	if f.Priority != nil {
		b.where("h.priority = :priority", database.Param("priority", *f.Priority))
	}
	if f.SystemComponentID != nil {
		b.where("h.system_component_id = :system_component_id", database.Param("system_component_id", *f.SystemComponentID))
	}
	if f.Service != "" {
		b.whereILike(f.Service, "service_filter", "sc.type", "h.title", "h.description")
	}
	if f.MinPriority != nil && f.MaxPriority != nil {
		b.where("h.priority BETWEEN :min_priority AND :max_priority",
			database.Param("min_priority", *f.MinPriority),
			database.Param("max_priority", *f.MaxPriority))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	var sql string
	if f.TopN != nil {
		sql = b.build(getHypothesesBaseSQL, " ORDER BY h.priority ASC, h.created_at DESC LIMIT :top_n")
		b.params = append(b.params, database.Param("top_n", *f.TopN))
	} else {
		sql = b.build(getHypothesesBaseSQL, " ORDER BY h.priority ASC, h.created_at DESC LIMIT :limit")
		b.params = append(b.params, database.Param("limit", limit))
	}

	out, err := s.gw.Execute(ctx, sql, b.params)
	if err != nil {
		s.logger.Error("getting hypotheses failed", "error", err)
		return &HypothesesResult{
			Success:    false,
			Hypotheses: []types.Hypothesis{},
			Error:      err.Error(),
			Message:    "Failed to get hypotheses from database",
		}
	}

	hypotheses := make([]types.Hypothesis, 0, len(out.Records))
	for _, record := range out.Records {
		hypotheses = append(hypotheses, parseHypothesis(record))
	}

	return &HypothesesResult{
		Success:    true,
		Hypotheses: hypotheses,
		Count:      len(hypotheses),
		Filters: map[string]any{
			"status":              f.Status,
			"priority":            f.Priority,
			"system_component_id": f.SystemComponentID,
		},
		Message: fmt.Sprintf("Retrieved %d hypotheses", len(hypotheses)),
	}
}

func parseHypothesis(record []rdstypes.Field) types.Hypothesis {
	return types.Hypothesis{
		ID:                     database.Long(record[0]),
		Title:                  database.Str(record[1]),
		Description:            database.StrPtr(record[2]),
		Persona:                database.StrPtr(record[3]),
		SteadyStateDescription: database.StrPtr(record[4]),
		FailureMode:            database.StrPtr(record[5]),
		Status:                 database.Str(record[6]),
		Priority:               database.Long(record[7]),
		Notes:                  database.StrPtr(record[8]),
		SystemComponentID:      database.LongPtr(record[9]),
		CreatedAt:              database.Str(record[10]),
		UpdatedAt:              database.Str(record[11]),
		ComponentName:          database.StrPtr(record[12]),
		ComponentType:          database.StrPtr(record[13]),
	}
}

// BatchUpdateHypothesisPriorities updates many hypothesis priorities in one
// CASE-based statement. Validation is all-or-nothing: one malformed entry
// rejects the whole batch before any SQL is built. Duplicate priorities are
// allowed.
func (s *Store) BatchUpdateHypothesisPriorities(ctx context.Context, updates []PriorityUpdate) BatchResult {
	s.logger.Info("batch updating hypothesis priorities", "count", len(updates))

	if len(updates) == 0 {
		return BatchResult{
			Kind:    KindValidationError,
			Error:   "No priority updates provided",
			Message: "No hypotheses to update",
		}
	}
	for i, u := range updates {
		if u.HypothesisID <= 0 {
			return batchValidationError(
				fmt.Errorf("update %d has invalid hypothesis_id", i),
				"Failed to validate batch update data")
		}
		if u.Priority <= 0 {
			return batchValidationError(
				fmt.Errorf("update %d has invalid priority", i),
				"Failed to validate batch update data")
		}
	}

	caseStatements := make([]string, len(updates))
	idPlaceholders := make([]string, len(updates))
	var params []rdstypes.SqlParameter
	for i, u := range updates {
		caseStatements[i] = fmt.Sprintf("WHEN :id_%d THEN :priority_%d", i, i)
		idPlaceholders[i] = fmt.Sprintf(":id_%d", i)
		params = append(params,
			database.Param(fmt.Sprintf("id_%d", i), u.HypothesisID),
			database.Param(fmt.Sprintf("priority_%d", i), u.Priority))
	}

	sql := fmt.Sprintf(`
        UPDATE hypothesis
        SET priority = CASE id
            %s
            END,
            updated_at = CURRENT_TIMESTAMP
        WHERE id IN (%s)`,
		strings.Join(caseStatements, " "), strings.Join(idPlaceholders, ","))

	out, err := s.gw.Execute(ctx, sql, params)
	if err != nil {
		return batchTransportError(err, "Database error during batch update")
	}

	updated := int(database.AffectedRows(out))
	if updated == 0 {
		s.logger.Warn("no hypotheses were updated")
		return BatchResult{
			Kind:           KindNotFound,
			RequestedCount: len(updates),
			Error:          "No hypotheses were updated",
			Message:        "No hypotheses found with provided IDs",
		}
	}

	s.logger.Info("batch updated hypothesis priorities", "updated", updated)
	return BatchResult{
		Success:        true,
		Kind:           KindOk,
		AffectedCount:  updated,
		RequestedCount: len(updates),
		Message:        fmt.Sprintf("Successfully updated %d hypothesis priorities", updated),
	}
}

// BatchInsertHypotheses inserts many hypotheses in one multi-VALUES
// statement, returning the new ids in statement order. Validation is
// all-or-nothing.
func (s *Store) BatchInsertHypotheses(ctx context.Context, hypotheses []NewHypothesis) BatchResult {
	s.logger.Info("batch inserting hypotheses", "count", len(hypotheses))

	if len(hypotheses) == 0 {
		return BatchResult{
			Kind:    KindValidationError,
			Error:   "No hypotheses provided",
			Message: "No hypotheses to insert",
		}
	}
	for i, h := range hypotheses {
		if strings.TrimSpace(h.Title) == "" {
			return batchValidationError(
				fmt.Errorf("hypothesis %d has invalid title", i),
				"Failed to validate batch insert data")
		}
	}

	valuesClauses := make([]string, len(hypotheses))
	var params []rdstypes.SqlParameter
	for i, h := range hypotheses {
		h.applyDefaults()
		valuesClauses[i] = fmt.Sprintf(
			"(:title_%d, :description_%d, :persona_%d, :steady_state_description_%d, :failure_mode_%d, :status_%d, :priority_%d, :notes_%d, :system_component_id_%d)",
			i, i, i, i, i, i, i, i, i)
		params = append(params,
			database.Param(fmt.Sprintf("title_%d", i), h.Title),
			database.Param(fmt.Sprintf("description_%d", i), h.Description),
			database.Param(fmt.Sprintf("persona_%d", i), h.Persona),
			database.Param(fmt.Sprintf("steady_state_description_%d", i), h.SteadyStateDescription),
			database.Param(fmt.Sprintf("failure_mode_%d", i), h.FailureMode),
			database.Param(fmt.Sprintf("status_%d", i), h.Status),
			database.Param(fmt.Sprintf("priority_%d", i), h.Priority),
			database.Param(fmt.Sprintf("notes_%d", i), h.Notes),
			database.Param(fmt.Sprintf("system_component_id_%d", i), h.SystemComponentID))
	}

	sql := fmt.Sprintf(`
        INSERT INTO hypothesis (
            title, description, persona, steady_state_description,
            failure_mode, status, priority, notes, system_component_id
        )
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
			RequestedCount: len(hypotheses),
			Error:          "No hypotheses were inserted",
			Message:        "Failed to insert hypotheses",
		}
	}

	s.logger.Info("batch inserted hypotheses", "inserted", len(ids))
	return BatchResult{
		Success:        true,
		Kind:           KindOk,
		AffectedCount:  len(ids),
		RequestedCount: len(hypotheses),
		InsertedIDs:    ids,
		Message:        fmt.Sprintf("Successfully inserted %d hypotheses", len(ids)),
	}
}
