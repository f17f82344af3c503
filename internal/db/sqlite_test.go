package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichardoC/elias/internal/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "nested", "elias.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	rec := &models.ConversationRecord{
		RequestID:       "req-1",
		Persona:         "travel",
		UserInput:       "where to?",
		AssistantOutput: "Lisbon",
		ImportanceScore: 0.5,
		Summary:         "asks for a destination",
	}
	id, err := database.Append(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, id, rec.ID)
	assert.False(t, rec.Timestamp.IsZero())
	assert.WithinDuration(t, time.Now(), rec.Timestamp, 24*time.Hour)

	id2, err := database.Append(ctx, &models.ConversationRecord{Persona: "fullstack", UserInput: "b", AssistantOutput: "c"})
	require.NoError(t, err)
	assert.Greater(t, id2, id)

	records, err := database.ListConversations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, id2, records[0].ID, "newest first")
	assert.Equal(t, "req-1", records[1].RequestID)
	assert.Equal(t, "where to?", records[1].UserInput)
	assert.Equal(t, "Lisbon", records[1].AssistantOutput)
	assert.Equal(t, 0.5, records[1].ImportanceScore)
	assert.Equal(t, "asks for a destination", records[1].Summary)
}

func TestListConversationsLimit(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := database.Append(ctx, &models.ConversationRecord{Persona: "fullstack", UserInput: fmt.Sprint(i)})
		require.NoError(t, err)
	}
	records, err := database.ListConversations(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "4", records[0].UserInput)
}

func TestConcurrentAppends(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := database.Append(ctx, &models.ConversationRecord{Persona: "fullstack", UserInput: fmt.Sprint(i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, err := database.ListConversations(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, records, n)
}

func TestAppendAfterCloseIsStorageError(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "elias.db"))
	require.NoError(t, err)
	require.NoError(t, database.Close())

	_, err = database.Append(context.Background(), &models.ConversationRecord{Persona: "fullstack"})
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "begin", serr.Op)
}

func TestMigratesLegacyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE conversations (
		id INTEGER PRIMARY KEY,
		persona VARCHAR,
		message TEXT,
		response TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO conversations (persona, message, response) VALUES ('travel', 'old', 'reply')`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO conversations (message, response) VALUES ('no persona', NULL)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	database, err := New(path)
	require.NoError(t, err)
	defer database.Close()

	rec := &models.ConversationRecord{Persona: "fullstack", UserInput: "new", AssistantOutput: "out", Summary: "s", ImportanceScore: 0.5}
	_, err = database.Append(context.Background(), rec)
	require.NoError(t, err)

	records, err := database.ListConversations(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "new", records[0].UserInput)

	assert.Equal(t, "", records[1].Persona)
	assert.Equal(t, "no persona", records[1].UserInput)
	assert.Equal(t, "", records[1].AssistantOutput)

	assert.Equal(t, "travel", records[2].Persona)
	assert.Equal(t, "old", records[2].UserInput)
	assert.Equal(t, "reply", records[2].AssistantOutput)
	assert.Equal(t, "", records[2].Summary)
}

func TestReopenDoesNotOverwriteMigratedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE conversations (id INTEGER PRIMARY KEY, persona VARCHAR, message TEXT, response TEXT)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO conversations (persona, message, response) VALUES ('travel', 'old', 'reply')`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	database, err := New(path)
	require.NoError(t, err)
	require.NoError(t, database.Close())

	database, err = New(path)
	require.NoError(t, err)
	defer database.Close()

	records, err := database.ListConversations(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "old", records[0].UserInput)
	assert.Equal(t, "reply", records[0].AssistantOutput)
	assert.True(t, records[0].Timestamp.IsZero(), "rows written before timestamps existed have none")
}

func TestTimestampScan(t *testing.T) {
	var ts timestamp
	require.NoError(t, ts.Scan("2024-05-01 10:20:30"))
	assert.Equal(t, time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC), time.Time(ts))

	require.NoError(t, ts.Scan([]byte("2024-05-01T10:20:30Z")))
	assert.Equal(t, 2024, time.Time(ts).Year())

	assert.Error(t, ts.Scan("yesterday"))
	assert.Error(t, ts.Scan(42))
}
