package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RichardoC/elias/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL DEFAULT '',
    persona TEXT NOT NULL,
    user_input TEXT NOT NULL,
    assistant_output TEXT NOT NULL,
    importance_score REAL NOT NULL DEFAULT 0,
    summary TEXT NOT NULL DEFAULT '',
    timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_conversations_persona ON conversations(persona);`

// Columns missing from tables written by older versions, which stored only
// persona, message and response. They are added on open.
var addedColumns = []struct {
	name string
	ddl  string
}{
	{"request_id", "ALTER TABLE conversations ADD COLUMN request_id TEXT NOT NULL DEFAULT ''"},
	{"user_input", "ALTER TABLE conversations ADD COLUMN user_input TEXT NOT NULL DEFAULT ''"},
	{"assistant_output", "ALTER TABLE conversations ADD COLUMN assistant_output TEXT NOT NULL DEFAULT ''"},
	{"importance_score", "ALTER TABLE conversations ADD COLUMN importance_score REAL NOT NULL DEFAULT 0"},
	{"summary", "ALTER TABLE conversations ADD COLUMN summary TEXT NOT NULL DEFAULT ''"},
	{"timestamp", "ALTER TABLE conversations ADD COLUMN timestamp TIMESTAMP"},
}

// Legacy columns whose values move into their replacements once the new
// columns exist.
var legacyColumns = []struct {
	from string
	to   string
}{
	{"message", "user_input"},
	{"response", "assistant_output"},
}

// StorageError wraps every failure of the conversation log.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type Database struct {
	db *sql.DB
}

func New(dbPath string) (*Database, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// One shared connection: SQLite allows a single writer, and an in-memory
	// database would otherwise differ per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (db *Database) migrate() error {
	rows, err := db.db.Query(`SELECT name FROM pragma_table_info('conversations')`)
	if err != nil {
		return fmt.Errorf("failed to inspect conversations table: %w", err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to inspect conversations table: %w", err)
		}
		existing[name] = true
	}
	rows.Close()

	for _, col := range addedColumns {
		if existing[col.name] {
			continue
		}
		if _, err := db.db.Exec(col.ddl); err != nil {
			return fmt.Errorf("failed to add column %s: %w", col.name, err)
		}
	}

	for _, col := range legacyColumns {
		if !existing[col.from] {
			continue
		}
		backfill := fmt.Sprintf(`UPDATE conversations SET %s = %s WHERE %s = '' AND %s IS NOT NULL`,
			col.to, col.from, col.to, col.from)
		if _, err := db.db.Exec(backfill); err != nil {
			return fmt.Errorf("failed to copy %s into %s: %w", col.from, col.to, err)
		}
	}
	return nil
}

func (db *Database) Close() error {
	return db.db.Close()
}

// Append stores one exchange in its own transaction and fills in the
// database-assigned ID and Timestamp.
func (db *Database) Append(ctx context.Context, rec *models.ConversationRecord) (int64, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &StorageError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	query := `
        INSERT INTO conversations (request_id, persona, user_input, assistant_output, importance_score, summary, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
        RETURNING id, timestamp`

	err = tx.QueryRowContext(ctx, query,
		rec.RequestID, rec.Persona, rec.UserInput, rec.AssistantOutput, rec.ImportanceScore, rec.Summary,
	).Scan(&rec.ID, (*timestamp)(&rec.Timestamp))
	if err != nil {
		return 0, &StorageError{Op: "insert", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &StorageError{Op: "commit", Err: err}
	}
	return rec.ID, nil
}

// ListConversations returns the most recent records first.
func (db *Database) ListConversations(ctx context.Context, limit int) ([]models.ConversationRecord, error) {
	query := `
        SELECT id,
               COALESCE(request_id, ''),
               COALESCE(persona, ''),
               COALESCE(user_input, ''),
               COALESCE(assistant_output, ''),
               COALESCE(importance_score, 0),
               COALESCE(summary, ''),
               timestamp
        FROM conversations
        ORDER BY id DESC
        LIMIT ?`

	rows, err := db.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	records := make([]models.ConversationRecord, 0)
	for rows.Next() {
		var rec models.ConversationRecord
		err := rows.Scan(&rec.ID, &rec.RequestID, &rec.Persona, &rec.UserInput, &rec.AssistantOutput,
			&rec.ImportanceScore, &rec.Summary, (*timestamp)(&rec.Timestamp))
		if err != nil {
			return nil, &StorageError{Op: "list", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return records, nil
}

// timestamp scans CURRENT_TIMESTAMP values whether the driver hands them
// over as time.Time or as text.
type timestamp time.Time

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = timestamp(v)
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		*t = timestamp(time.Time{})
		return nil
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*t = timestamp(parsed)
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}
