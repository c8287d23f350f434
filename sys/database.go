package sys

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/disgoorg/snowflake/v2"
	_ "github.com/mattn/go-sqlite3"
)

// --- Database Connection & Lifecycle ---

var DB *sql.DB

func InitDatabase(ctx context.Context, dataSourceName string) error {
	var err error
	DB, err = sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return err
	}

	DB.SetMaxOpenConns(5)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA cache_size=-2000;",
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, p := range pragmas {
		if _, err := DB.ExecContext(initCtx, p); err != nil {
			return errors.Wrapf(err, MsgDatabasePragmaError, p)
		}
	}

	tx, err := DB.BeginTx(initCtx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tableQueries := []string{
		`CREATE TABLE IF NOT EXISTS bot_config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS used_icons (
			attachment_id TEXT PRIMARY KEY,
			message_id TEXT NOT NULL,
			used_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS action_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			payload TEXT NOT NULL,
			author TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, q := range tableQueries {
		if _, err := tx.ExecContext(initCtx, q); err != nil {
			return errors.Wrap(err, MsgDatabaseTableError)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	migrations := []string{
		"ALTER TABLE action_runs ADD COLUMN trigger_source TEXT DEFAULT 'schedule'",
	}

	for _, m := range migrations {
		if _, err := DB.ExecContext(initCtx, m); err != nil {
			if !strings.Contains(err.Error(), "duplicate column") {
				return errors.Wrap(err, "failed to migrate database")
			}
		}
	}

	LogDatabase(MsgDatabaseInitSuccess)
	return nil
}

func CloseDatabase() {
	if DB != nil {
		DB.Close()
	}
}

// --- Bot Persistence ---

// BotConfig helpers are used by the loader for command hash tracking.
func GetBotConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := DB.QueryRowContext(ctx, "SELECT value FROM bot_config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func SetBotConfig(ctx context.Context, key, value string) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO bot_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// --- Used Icons ---

func MarkIconUsed(ctx context.Context, attachmentID, messageID snowflake.ID) error {
	_, err := DB.ExecContext(ctx,
		"INSERT OR IGNORE INTO used_icons (attachment_id, message_id) VALUES (?, ?)",
		attachmentID.String(), messageID.String())
	return err
}

func GetUsedIcons(ctx context.Context) (map[snowflake.ID]bool, error) {
	rows, err := DB.QueryContext(ctx, "SELECT attachment_id FROM used_icons")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	used := make(map[snowflake.ID]bool)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		if id, err := snowflake.Parse(raw); err == nil {
			used[id] = true
		}
	}
	return used, rows.Err()
}

func ResetUsedIcons(ctx context.Context) error {
	_, err := DB.ExecContext(ctx, "DELETE FROM used_icons")
	return err
}

// --- Action Runs ---

type ActionRun struct {
	ID        int64
	Action    string
	Payload   string
	Author    string
	Trigger   string
	CreatedAt time.Time
}

func RecordRun(ctx context.Context, run ActionRun) error {
	_, err := DB.ExecContext(ctx,
		"INSERT INTO action_runs (action, payload, author, trigger_source) VALUES (?, ?, ?, ?)",
		run.Action, run.Payload, run.Author, run.Trigger)
	return err
}

func GetRecentRuns(ctx context.Context, limit int) ([]*ActionRun, error) {
	rows, err := DB.QueryContext(ctx, `
		SELECT id, action, payload, author, trigger_source, created_at
		FROM action_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*ActionRun
	for rows.Next() {
		r := &ActionRun{}
		if err := rows.Scan(&r.ID, &r.Action, &r.Payload, &r.Author, &r.Trigger, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DBStore exposes the package-level database helpers as a value, for
// components that take their persistence as a dependency.
type DBStore struct{}

func (DBStore) MarkIconUsed(ctx context.Context, attachmentID, messageID snowflake.ID) error {
	return MarkIconUsed(ctx, attachmentID, messageID)
}

func (DBStore) UsedIcons(ctx context.Context) (map[snowflake.ID]bool, error) {
	return GetUsedIcons(ctx)
}

func (DBStore) ResetUsedIcons(ctx context.Context) error {
	return ResetUsedIcons(ctx)
}

func (DBStore) RecordRun(ctx context.Context, run ActionRun) error {
	return RecordRun(ctx, run)
}
