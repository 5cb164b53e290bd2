package bus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLiteArchive persists an append-only audit copy of every accepted
// message. The in-process log remains the source of truth; the archive
// exists for offline inspection and is never read back into the bus.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive creates an archive writing to the given connection.
func NewSQLiteArchive(db *sql.DB) *SQLiteArchive {
	return &SQLiteArchive{db: db}
}

// Init creates the messages table if it does not exist.
func (a *SQLiteArchive) Init(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			message_id   TEXT PRIMARY KEY,
			sender_id    TEXT NOT NULL,
			receiver_id  TEXT,
			message_type TEXT NOT NULL,
			timestamp    TEXT NOT NULL,
			payload      TEXT NOT NULL DEFAULT '{}',
			priority     INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id);
		CREATE INDEX IF NOT EXISTS idx_messages_type ON messages(message_type);
	`)
	if err != nil {
		return fmt.Errorf("creating messages table: %w", err)
	}
	return nil
}

// Archive inserts one message. Implements Archiver.
func (a *SQLiteArchive) Archive(ctx context.Context, msg Message) error {
	payloadJSON, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("marshalling payload: %w", err)
	}

	var receiver sql.NullString
	if msg.ReceiverID != nil {
		receiver = sql.NullString{String: *msg.ReceiverID, Valid: true}
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, sender_id, receiver_id, message_type, timestamp, payload, priority)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.MessageID,
		msg.SenderID,
		receiver,
		msg.MessageType,
		msg.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00"),
		string(payloadJSON),
		msg.Priority,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// Count returns the number of archived messages. Intended for
// monitoring and tests.
func (a *SQLiteArchive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return n, nil
}
