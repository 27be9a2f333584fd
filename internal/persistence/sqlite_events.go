package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/mlind/stepflow/pkg/api"
)

// SQLiteEventStore stores workflow events in SQLite. Append order is
// preserved through an autoincrement sequence column, independent of
// event timestamps.
type SQLiteEventStore struct {
	db *sql.DB
}

var _ EventStore = (*SQLiteEventStore)(nil)

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS workflow_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			instance_id TEXT NOT NULL,
			workflow_name TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			step TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT '',
			at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_workflow_events_instance_id ON workflow_events(instance_id, seq);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.WorkflowEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_events (id, instance_id, workflow_name, type, step, detail, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.InstanceID,
		ev.WorkflowName,
		string(ev.Type),
		ev.Step,
		ev.Detail,
		at.UnixNano(),
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, instanceID string) ([]api.WorkflowEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instance_id, workflow_name, type, step, detail, at
		FROM workflow_events
		WHERE instance_id = ?
		ORDER BY seq ASC`, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.WorkflowEvent
	for rows.Next() {
		var ev api.WorkflowEvent
		var typ string
		var atN int64
		if err := rows.Scan(&ev.ID, &ev.InstanceID, &ev.WorkflowName, &typ, &ev.Step, &ev.Detail, &atN); err != nil {
			return nil, err
		}
		ev.Type = api.EventType(typ)
		ev.At = time.Unix(0, atN).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}
