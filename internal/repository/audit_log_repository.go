package repository

import (
	"context"
	"database/sql"
)

// AuditLog mirrors the 'audit_logs' table. Rows are written by the
// queue consumer from allocation events, never by request handlers, so
// a broker outage can delay the trail but cannot fail a request.
type AuditLog struct {
	ID        uint64
	Actor     string
	Action    string
	StudentNo string
	BedID     uint64
	Detail    string
	CreatedAt string
}

// AuditLogRepo provides data access for the audit trail.
type AuditLogRepo struct {
	db *sql.DB
}

// NewAuditLogRepo constructs an AuditLogRepo with the given DB handle.
func NewAuditLogRepo(db *sql.DB) *AuditLogRepo { return &AuditLogRepo{db: db} }

// Insert appends one audit row.
func (r *AuditLogRepo) Insert(ctx context.Context, l *AuditLog) error {
	const q = `INSERT INTO audit_logs (actor, action, student_no, bed_id, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, l.Actor, l.Action, l.StudentNo, l.BedID, l.Detail, l.CreatedAt)
	return err
}

// ListRecent returns the newest rows up to limit.
func (r *AuditLogRepo) ListRecent(ctx context.Context, limit int) ([]AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `SELECT id, actor, action, student_no, bed_id, detail, created_at
	           FROM audit_logs ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AuditLog, 0)
	for rows.Next() {
		var l AuditLog
		if err := rows.Scan(&l.ID, &l.Actor, &l.Action, &l.StudentNo, &l.BedID, &l.Detail, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
