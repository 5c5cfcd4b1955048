package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/instrument"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DB persists the auth module's audit trail.
type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RecordAuditEvent appends one row to the audit trail.
func (s *DB) RecordAuditEvent(ctx context.Context, ev entity.AuditEvent) (err error) {
	ctx, span := s.startSpan(ctx, "RecordAuditEvent")
	defer func() { s.endSpan(span, err) }()

	var metadata []byte
	if len(ev.Metadata) > 0 {
		metadata, err = json.Marshal(ev.Metadata)
		if err != nil {
			return err
		}
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO auth_audit_events (id, user_id, email, action, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.UserID, ev.Email, ev.Action, ev.IP, metadata, ev.CreatedAt,
	)
	err = s.mapError(err)
	return err
}
