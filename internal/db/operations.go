package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type JobOperations struct{}

func (o *JobOperations) CreateRecord(ctx context.Context, r *JobRecord) error {
	_, err := GetDB().ExecContext(ctx, InsertJobRecord,
		r.ID, r.State, r.PagesPrinted, r.TotalPages, r.ErrorMessage,
		r.SubmittedBy, r.CreatedAt, r.StartedAt, r.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}
	return nil
}

func (o *JobOperations) GetRecordByID(ctx context.Context, id string) (*JobRecord, error) {
	r := &JobRecord{}
	err := GetDB().QueryRowContext(ctx, GetJobRecordByID, id).Scan(
		&r.ID, &r.State, &r.PagesPrinted, &r.TotalPages, &r.ErrorMessage,
		&r.SubmittedBy, &r.CreatedAt, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get job record: %w", err)
	}
	return r, nil
}

func (o *JobOperations) ListRecords(ctx context.Context, filter JobFilter) ([]*JobRecord, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := ListJobRecordsBase
	var conds []string
	var args []interface{}
	if filter.State != "" {
		conds = append(conds, "state = ?")
		args = append(args, filter.State)
	}
	if filter.FromDate != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, *filter.ToDate)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list job records: %w", err)
	}
	defer rows.Close()

	var records []*JobRecord
	for rows.Next() {
		r := &JobRecord{}
		if err := rows.Scan(
			&r.ID, &r.State, &r.PagesPrinted, &r.TotalPages, &r.ErrorMessage,
			&r.SubmittedBy, &r.CreatedAt, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (o *JobOperations) Stats(ctx context.Context) (*JobStats, error) {
	rows, err := GetDB().QueryContext(ctx, CountJobRecordsByState)
	if err != nil {
		return nil, fmt.Errorf("failed to count job records: %w", err)
	}
	defer rows.Close()

	stats := &JobStats{}
	for rows.Next() {
		var state string
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		stats.Total += count
		switch state {
		case "completed":
			stats.Completed = count
		case "cancelled":
			stats.Cancelled = count
		case "failed":
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

func (o *JobOperations) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	result, err := GetDB().ExecContext(ctx, DeleteOldJobRecords, fmt.Sprintf("-%d days", days))
	if err != nil {
		return 0, fmt.Errorf("failed to prune job records: %w", err)
	}
	return result.RowsAffected()
}

type WebhookOperations struct{}

func (o *WebhookOperations) CreateWebhook(ctx context.Context, w *Webhook) error {
	result, err := GetDB().ExecContext(ctx, InsertWebhook,
		w.Name, w.URL, w.Secret, w.EventsJSON, w.Enabled)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get webhook id: %w", err)
	}
	w.ID = id
	return nil
}

func (o *WebhookOperations) GetWebhookByID(ctx context.Context, id int64) (*Webhook, error) {
	w := &Webhook{}
	var enabled int
	err := GetDB().QueryRowContext(ctx, GetWebhookByID, id).Scan(
		&w.ID, &w.Name, &w.URL, &w.Secret, &w.EventsJSON, &enabled, &w.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get webhook: %w", err)
	}
	w.Enabled = enabled == 1
	return w, nil
}

func (o *WebhookOperations) ListWebhooks(ctx context.Context) ([]*Webhook, error) {
	rows, err := GetDB().QueryContext(ctx, ListWebhooks)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()

	return scanWebhooks(rows)
}

func (o *WebhookOperations) ListForEvent(ctx context.Context, event string) ([]*Webhook, error) {
	pattern := fmt.Sprintf("%%\"%s\"%%", event)
	rows, err := GetDB().QueryContext(ctx, ListWebhooksForEvent, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks for event: %w", err)
	}
	defer rows.Close()

	return scanWebhooks(rows)
}

func (o *WebhookOperations) UpdateWebhook(ctx context.Context, w *Webhook) error {
	_, err := GetDB().ExecContext(ctx, UpdateWebhook,
		w.Name, w.URL, w.Secret, w.EventsJSON, w.Enabled, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update webhook: %w", err)
	}
	return nil
}

func (o *WebhookOperations) DeleteWebhook(ctx context.Context, id int64) error {
	_, err := GetDB().ExecContext(ctx, DeleteWebhook, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

func scanWebhooks(rows *sql.Rows) ([]*Webhook, error) {
	var webhooks []*Webhook
	for rows.Next() {
		w := &Webhook{}
		var enabled int
		if err := rows.Scan(&w.ID, &w.Name, &w.URL, &w.Secret, &w.EventsJSON, &enabled, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		w.Enabled = enabled == 1
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

type SettingsOperations struct{}

func (o *SettingsOperations) GetSetting(ctx context.Context, key string) (*Setting, error) {
	s := &Setting{Key: key}
	err := GetDB().QueryRowContext(ctx, GetSettingValue, key).Scan(&s.Value, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return s, nil
}

func (o *SettingsOperations) SetSetting(ctx context.Context, key, value string) error {
	_, err := GetDB().ExecContext(ctx, UpsertSetting, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

var (
	Jobs     = &JobOperations{}
	Webhooks = &WebhookOperations{}
	Settings = &SettingsOperations{}
)
