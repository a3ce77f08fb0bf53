package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/ostap/huddle/internal/domain"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var meetingColumns = []string{"id", "name", "host_id", "max_participants", "status", "created_at"}

// PostgresStore implements Directory on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetMeeting(ctx context.Context, id domain.MeetingID) (domain.Meeting, error) {
	query, args, err := psq.Select(meetingColumns...).
		From("meetings").
		Where(sq.Eq{"id": string(id)}).
		ToSql()
	if err != nil {
		return domain.Meeting{}, fmt.Errorf("building meeting query: %w", err)
	}

	var m domain.Meeting
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&m.ID, &m.Name, &m.HostID, &m.MaxParticipants, &m.Status, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Meeting{}, domain.ErrMeetingNotFound
	}
	if err != nil {
		return domain.Meeting{}, fmt.Errorf("querying meeting: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) CreateMeeting(ctx context.Context, host domain.UserID, name string, maxParticipants int) (domain.Meeting, error) {
	id := domain.MeetingID(uuid.NewString())
	query, args, err := psq.Insert("meetings").
		Columns("id", "name", "host_id", "max_participants", "status").
		Values(string(id), name, string(host), maxParticipants, string(domain.MeetingActive)).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return domain.Meeting{}, fmt.Errorf("building meeting insert: %w", err)
	}

	m := domain.Meeting{
		ID:              id,
		Name:            name,
		HostID:          host,
		MaxParticipants: maxParticipants,
		Status:          domain.MeetingActive,
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&m.CreatedAt); err != nil {
		return domain.Meeting{}, fmt.Errorf("inserting meeting: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) SetEnded(ctx context.Context, id domain.MeetingID) error {
	query, args, err := psq.Update("meetings").
		Set("status", string(domain.MeetingEnded)).
		Where(sq.Eq{"id": string(id)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building meeting update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ending meeting: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrMeetingNotFound
	}
	return nil
}

func (s *PostgresStore) ApproveParticipant(ctx context.Context, id domain.MeetingID, user domain.UserID) error {
	query, args, err := psq.Insert("meeting_participants").
		Columns("meeting_id", "user_id").
		Values(string(id), string(user)).
		Suffix("ON CONFLICT (meeting_id, user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("building approval insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("approving participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasParticipant(ctx context.Context, id domain.MeetingID, user domain.UserID) (bool, error) {
	query, args, err := psq.Select("1").
		From("meeting_participants").
		Where(sq.Eq{"meeting_id": string(id), "user_id": string(user)}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building participant query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying participant: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) UpsertParticipant(ctx context.Context, id domain.MeetingID, user domain.UserID, connection string) error {
	query, args, err := psq.Insert("meeting_participants").
		Columns("meeting_id", "user_id", "connection_id", "joined_at", "left_at").
		Values(string(id), string(user), connection, sq.Expr("now()"), nil).
		Suffix("ON CONFLICT (meeting_id, user_id) DO UPDATE SET connection_id = EXCLUDED.connection_id, joined_at = now(), left_at = NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("building participant upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkLeft(ctx context.Context, id domain.MeetingID, user domain.UserID) error {
	query, args, err := psq.Update("meeting_participants").
		Set("left_at", sq.Expr("now()")).
		Where(sq.Eq{"meeting_id": string(id), "user_id": string(user)}).
		Where("left_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("building leave update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("marking participant left: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkAllLeft(ctx context.Context, id domain.MeetingID) error {
	query, args, err := psq.Update("meeting_participants").
		Set("left_at", sq.Expr("now()")).
		Where(sq.Eq{"meeting_id": string(id)}).
		Where("left_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("building leave-all update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("marking participants left: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListParticipants(ctx context.Context, id domain.MeetingID) ([]domain.Participant, error) {
	query, args, err := psq.Select("meeting_id", "user_id", "connection_id", "joined_at", "left_at").
		From("meeting_participants").
		Where(sq.Eq{"meeting_id": string(id)}).
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building roster query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying roster: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		var conn sql.NullString
		var joined, left sql.NullTime
		if err := rows.Scan(&p.MeetingID, &p.UserID, &conn, &joined, &left); err != nil {
			return nil, fmt.Errorf("scanning roster row: %w", err)
		}
		p.ConnectionID = conn.String
		if joined.Valid {
			p.JoinedAt = &joined.Time
		}
		if left.Valid {
			p.LeftAt = &left.Time
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roster: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountActive(ctx context.Context, id domain.MeetingID) (int, error) {
	query, args, err := psq.Select("COUNT(*)").
		From("meeting_participants").
		Where(sq.Eq{"meeting_id": string(id)}).
		Where("joined_at IS NOT NULL AND left_at IS NULL").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting active participants: %w", err)
	}
	return n, nil
}
