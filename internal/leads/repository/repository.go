package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"canna_portal_backend/platform/db"
)

const leadColumns = `id, client_id, patient_name, patient_email, patient_phone, consultant_id,
	assigned_consultant_id, assigned_at, status, priority, lead_score, tags, source, company, job_title,
	address_street, address_number, address_complement, address_neighborhood, address_city, address_state,
	address_zip_code, website, linkedin_url, instagram_url, budget, estimated_value, conversion_probability,
	next_follow_up, lost_reason, notes, version, created_at, updated_at`

const historyColumns = `id, lead_id, previous_status, new_status, by_user_id, notes, created_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a lead by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// List returns a filtered page of leads, newest first, with the total
// number of matches.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	addFilter := func(format string, value interface{}) {
		where = append(where, fmt.Sprintf(format, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Status != "" {
		addFilter("status = $%d", params.Status)
	}
	if params.AssignedConsultantID != nil {
		addFilter("assigned_consultant_id = $%d", *params.AssignedConsultantID)
	}
	if params.Priority != "" {
		addFilter("priority = $%d", params.Priority)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		where = append(where, fmt.Sprintf(
			"(patient_name ILIKE $%[1]d OR patient_email ILIKE $%[1]d OR patient_phone ILIKE $%[1]d OR company ILIKE $%[1]d)",
			argIdx))
		args = append(args, "%"+search+"%")
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, leadColumns, whereClause, argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	leads, err := r.queryLeads(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

// ListByStatus returns every lead on a stage, oldest update first.
func (r *Repo) ListByStatus(ctx context.Context, status string) ([]Lead, error) {
	return r.queryLeads(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE status = $1 ORDER BY updated_at ASC, id`, status)
}

// ListByIDs returns the leads among ids that exist. Order is unspecified.
func (r *Repo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Lead, error) {
	if len(ids) == 0 {
		return []Lead{}, nil
	}
	return r.queryLeads(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ANY($1)`, ids)
}

// Create inserts a lead.
func (r *Repo) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	query := `
		INSERT INTO leads (
			client_id, patient_name, patient_email, patient_phone, consultant_id,
			assigned_consultant_id, assigned_at, status, priority, lead_score, tags,
			source, company, job_title, estimated_value, next_follow_up, notes
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, CASE WHEN $6::uuid IS NULL THEN NULL ELSE now() END, $7, $8, $9, COALESCE($10::text[], '{}'),
			$11, $12, $13, $14, $15, $16
		)
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		params.ClientID, params.PatientName, params.PatientEmail, params.PatientPhone, params.ConsultantID,
		params.AssignedConsultantID, params.Status, params.Priority, params.LeadScore, params.Tags,
		params.Source, params.Company, params.JobTitle, params.EstimatedValue, params.NextFollowUp, params.Notes,
	))
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return lead, nil
}

// Update applies a partial update and bumps the row version.
func (r *Repo) Update(ctx context.Context, params UpdateLeadParams) (Lead, error) {
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	addClause := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	fields := []struct {
		enabled bool
		column  string
		value   interface{}
	}{
		{params.PatientName != nil, "patient_name", params.PatientName},
		{params.PatientEmail != nil, "patient_email", params.PatientEmail},
		{params.PatientPhone != nil, "patient_phone", params.PatientPhone},
		{params.Priority != nil, "priority", params.Priority},
		{params.LeadScore != nil, "lead_score", params.LeadScore},
		{params.Tags != nil, "tags", params.Tags},
		{params.Source != nil, "source", params.Source},
		{params.Company != nil, "company", params.Company},
		{params.JobTitle != nil, "job_title", params.JobTitle},
		{params.AddressStreet != nil, "address_street", params.AddressStreet},
		{params.AddressNumber != nil, "address_number", params.AddressNumber},
		{params.AddressComplement != nil, "address_complement", params.AddressComplement},
		{params.AddressNeighborhood != nil, "address_neighborhood", params.AddressNeighborhood},
		{params.AddressCity != nil, "address_city", params.AddressCity},
		{params.AddressState != nil, "address_state", params.AddressState},
		{params.AddressZipCode != nil, "address_zip_code", params.AddressZipCode},
		{params.Website != nil, "website", params.Website},
		{params.LinkedInURL != nil, "linkedin_url", params.LinkedInURL},
		{params.InstagramURL != nil, "instagram_url", params.InstagramURL},
		{params.Budget != nil, "budget", params.Budget},
		{params.EstimatedValue != nil, "estimated_value", params.EstimatedValue},
		{params.ConversionProbability != nil, "conversion_probability", params.ConversionProbability},
		{params.NextFollowUp != nil, "next_follow_up", params.NextFollowUp},
		{params.LostReason != nil, "lost_reason", params.LostReason},
		{params.Notes != nil, "notes", params.Notes},
	}

	for _, field := range fields {
		if field.enabled {
			addClause(field.column, field.value)
		}
	}

	if len(setClauses) == 0 {
		lead, err := r.GetByID(ctx, params.ID)
		if err != nil {
			return Lead{}, err
		}
		if params.ExpectedVersion != nil && *params.ExpectedVersion != lead.Version {
			return Lead{}, ErrStaleVersion
		}
		return lead, nil
	}

	setClauses = append(setClauses, "version = version + 1", "updated_at = now()")
	args = append(args, params.ID, params.ExpectedVersion)

	query := fmt.Sprintf(`
		UPDATE leads SET %s
		WHERE id = $%d AND ($%d::int IS NULL OR version = $%d)
		RETURNING %s`, strings.Join(setClauses, ", "), argIdx, argIdx+1, argIdx+1, leadColumns)

	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, r.missOrStale(ctx, params.ID)
	}
	if err != nil {
		return Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return lead, nil
}

// ChangeStatus writes the new status and appends the history entry in one
// transaction. The row is locked first so the previous status recorded in
// history is the one that was actually replaced.
func (r *Repo) ChangeStatus(ctx context.Context, params StatusChangeParams) (Lead, HistoryEntry, error) {
	var (
		lead  Lead
		entry HistoryEntry
	)

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			current string
			version int
		)
		err := tx.QueryRow(ctx, `SELECT status, version FROM leads WHERE id = $1 FOR UPDATE`, params.LeadID).
			Scan(&current, &version)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock lead: %w", err)
		}
		if current != params.PreviousStatus {
			return ErrStaleVersion
		}
		if params.ExpectedVersion != nil && *params.ExpectedVersion != version {
			return ErrStaleVersion
		}

		lead, err = scanLead(tx.QueryRow(ctx, `
			UPDATE leads
			SET status = $2,
				estimated_value = COALESCE($3, estimated_value),
				version = version + 1,
				updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns,
			params.LeadID, params.NewStatus, params.EstimatedValue))
		if err != nil {
			return fmt.Errorf("update lead status: %w", err)
		}

		previous := params.PreviousStatus
		entry, err = scanHistory(tx.QueryRow(ctx, `
			INSERT INTO lead_stage_history (lead_id, previous_status, new_status, by_user_id, notes)
			VALUES ($1, NULLIF($2, ''), $3, $4, $5)
			RETURNING `+historyColumns,
			params.LeadID, previous, params.NewStatus, params.ActorID, params.Notes))
		if err != nil {
			return fmt.Errorf("insert stage history: %w", err)
		}
		return nil
	})
	if err != nil {
		return Lead{}, HistoryEntry{}, err
	}
	return lead, entry, nil
}

// Assign sets or clears the assigned consultant. assigned_at follows the
// consultant column.
func (r *Repo) Assign(ctx context.Context, params AssignParams) (AssignResult, error) {
	var result AssignResult

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var previous *uuid.UUID
		err := tx.QueryRow(ctx, `SELECT assigned_consultant_id FROM leads WHERE id = $1 FOR UPDATE`, params.LeadID).
			Scan(&previous)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock lead: %w", err)
		}
		if params.OnlyIfUnassigned && previous != nil {
			return ErrAlreadyAssigned
		}

		lead, err := scanLead(tx.QueryRow(ctx, `
			UPDATE leads
			SET assigned_consultant_id = $2,
				assigned_at = CASE WHEN $2::uuid IS NULL THEN NULL ELSE now() END,
				version = version + 1,
				updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns,
			params.LeadID, params.ConsultantID))
		if err != nil {
			return fmt.Errorf("assign lead: %w", err)
		}

		result = AssignResult{Lead: lead, PreviousConsultantID: previous}
		return nil
	})
	if err != nil {
		return AssignResult{}, err
	}
	return result, nil
}

// Delete removes a lead together with its stage history.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM lead_stage_history WHERE lead_id = $1`, id); err != nil {
			return fmt.Errorf("delete stage history: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete lead: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListHistory returns the transitions of a lead in creation order.
func (r *Repo) ListHistory(ctx context.Context, leadID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+historyColumns+`
		FROM lead_stage_history
		WHERE lead_id = $1
		ORDER BY created_at ASC, id`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list stage history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0)
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage history: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage history: %w", err)
	}
	return entries, nil
}

func (r *Repo) queryLeads(ctx context.Context, query string, args ...interface{}) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

// missOrStale tells a missing row apart from a version mismatch after a
// guarded update matched nothing.
func (r *Repo) missOrStale(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check lead: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleVersion
}

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.ClientID, &l.PatientName, &l.PatientEmail, &l.PatientPhone, &l.ConsultantID,
		&l.AssignedConsultantID, &l.AssignedAt, &l.Status, &l.Priority, &l.LeadScore, &l.Tags,
		&l.Source, &l.Company, &l.JobTitle,
		&l.AddressStreet, &l.AddressNumber, &l.AddressComplement, &l.AddressNeighborhood,
		&l.AddressCity, &l.AddressState, &l.AddressZipCode,
		&l.Website, &l.LinkedInURL, &l.InstagramURL, &l.Budget, &l.EstimatedValue, &l.ConversionProbability,
		&l.NextFollowUp, &l.LostReason, &l.Notes, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func scanHistory(row pgx.Row) (HistoryEntry, error) {
	var h HistoryEntry
	err := row.Scan(&h.ID, &h.LeadID, &h.PreviousStatus, &h.NewStatus, &h.ByUserID, &h.Notes, &h.CreatedAt)
	return h, err
}
