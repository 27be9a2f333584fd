package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mlind/stepflow/pkg/api"
)

// SQLiteInstanceStore is an InstanceStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteInstanceStore struct {
	db *sql.DB
}

var _ InstanceStore = (*SQLiteInstanceStore)(nil)

// NewSQLiteInstanceStore initializes the required schema in the given
// database and returns a new SQLiteInstanceStore.
func NewSQLiteInstanceStore(db *sql.DB) (*SQLiteInstanceStore, error) {
	s := &SQLiteInstanceStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteInstanceStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS instances (
			id TEXT PRIMARY KEY,
			workflow_name TEXT NOT NULL,
			workflow_version TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			data BLOB,
			current_step TEXT NOT NULL DEFAULT '',
			completed_steps BLOB,
			failed_steps BLOB,
			error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_instances_workflow ON instances(workflow_name);
		CREATE INDEX IF NOT EXISTS idx_instances_status ON instances(status);`,
	)
	return err
}

func (s *SQLiteInstanceStore) Save(ctx context.Context, inst *api.WorkflowInstance) error {
	data, err := encodeMap(inst.Data)
	if err != nil {
		return err
	}
	completed, err := encodeStrings(inst.CompletedSteps)
	if err != nil {
		return err
	}
	failed, err := encodeStrings(inst.FailedSteps)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO instances (id, workflow_name, workflow_version, status, data,
			current_step, completed_steps, failed_steps, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workflow_name = excluded.workflow_name,
			workflow_version = excluded.workflow_version,
			status = excluded.status,
			data = excluded.data,
			current_step = excluded.current_step,
			completed_steps = excluded.completed_steps,
			failed_steps = excluded.failed_steps,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		inst.ID,
		inst.WorkflowName,
		inst.WorkflowVersion,
		string(inst.Status),
		data,
		inst.CurrentStep,
		completed,
		failed,
		inst.ErrorMessage,
		inst.CreatedAt.UnixNano(),
		inst.UpdatedAt.UnixNano(),
	)
	return err
}

const instanceColumns = `id, workflow_name, workflow_version, status, data,
	current_step, completed_steps, failed_steps, error, created_at, updated_at`

func (s *SQLiteInstanceStore) Get(ctx context.Context, id string) (*api.WorkflowInstance, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+instanceColumns+` FROM instances WHERE id = ?`, id)

	inst, err := scanInstance(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, err
	}
	return inst, nil
}

func (s *SQLiteInstanceStore) List(ctx context.Context, filter api.InstanceFilter) ([]*api.WorkflowInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM instances`
	var args []any
	var clauses []string

	if filter.WorkflowName != "" {
		clauses = append(clauses, "workflow_name = ?")
		args = append(args, filter.WorkflowName)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.CreatedBefore.IsZero() {
		clauses = append(clauses, "created_at < ?")
		args = append(args, filter.CreatedBefore.UnixNano())
	}
	if !filter.CreatedAfter.IsZero() {
		clauses = append(clauses, "created_at > ?")
		args = append(args, filter.CreatedAfter.UnixNano())
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite requires a LIMIT clause before OFFSET.
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []*api.WorkflowInstance
	for rows.Next() {
		inst, err := scanInstance(rows.Scan)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func (s *SQLiteInstanceStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM instances WHERE id = ?`, id)
	return err
}

func (s *SQLiteInstanceStore) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM instances WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanInstance(scan func(dest ...any) error) (*api.WorkflowInstance, error) {
	var inst api.WorkflowInstance
	var statusStr string
	var data, completed, failed []byte
	var createdAt, updatedAt int64

	if err := scan(
		&inst.ID,
		&inst.WorkflowName,
		&inst.WorkflowVersion,
		&statusStr,
		&data,
		&inst.CurrentStep,
		&completed,
		&failed,
		&inst.ErrorMessage,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	inst.Status = api.Status(statusStr)
	inst.CreatedAt = time.Unix(0, createdAt).UTC()
	inst.UpdatedAt = time.Unix(0, updatedAt).UTC()

	var err error
	if inst.Data, err = decodeMap(data); err != nil {
		return nil, err
	}
	if inst.CompletedSteps, err = decodeStrings(completed); err != nil {
		return nil, err
	}
	if inst.FailedSteps, err = decodeStrings(failed); err != nil {
		return nil, err
	}
	return &inst, nil
}
