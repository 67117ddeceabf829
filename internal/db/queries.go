package db

const (
	InsertJobRecord = `
		INSERT INTO job_history (id, state, pages_printed, total_pages, error_message, submitted_by, created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	GetJobRecordByID = `
		SELECT id, state, pages_printed, total_pages, error_message, submitted_by, created_at, started_at, completed_at
		FROM job_history WHERE id = ?
	`

	ListJobRecordsBase = `
		SELECT id, state, pages_printed, total_pages, error_message, submitted_by, created_at, started_at, completed_at
		FROM job_history
	`

	CountJobRecordsByState = `
		SELECT state, COUNT(*) as count FROM job_history GROUP BY state
	`

	DeleteOldJobRecords = `
		DELETE FROM job_history WHERE completed_at < datetime('now', ?)
	`
)

const (
	InsertWebhook = `
		INSERT INTO webhooks (name, url, secret, events_json, enabled)
		VALUES (?, ?, ?, ?, ?)
	`

	GetWebhookByID = `
		SELECT id, name, url, secret, events_json, enabled, created_at
		FROM webhooks WHERE id = ?
	`

	ListWebhooks = `
		SELECT id, name, url, secret, events_json, enabled, created_at
		FROM webhooks ORDER BY name ASC
	`

	ListWebhooksForEvent = `
		SELECT id, name, url, secret, events_json, enabled, created_at
		FROM webhooks WHERE enabled = 1 AND events_json LIKE ?
	`

	UpdateWebhook = `
		UPDATE webhooks SET name = ?, url = ?, secret = ?, events_json = ?, enabled = ? WHERE id = ?
	`

	DeleteWebhook = `DELETE FROM webhooks WHERE id = ?`
)

const (
	GetSettingValue = `SELECT value, updated_at FROM settings WHERE key = ?`

	UpsertSetting = `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`

	DeleteSetting = `DELETE FROM settings WHERE key = ?`
)
