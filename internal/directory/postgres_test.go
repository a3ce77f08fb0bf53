package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ostap/huddle/internal/domain"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresStore(db), mock
}

func TestGetMeeting(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, name, host_id, max_participants, status, created_at FROM meetings").
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(meetingColumns).
			AddRow("m1", "standup", "host", 8, "active", created))

	m, err := s.GetMeeting(context.Background(), "m1")
	require.NoError(t, err)
	require.Equal(t, domain.MeetingID("m1"), m.ID)
	require.Equal(t, domain.UserID("host"), m.HostID)
	require.Equal(t, 8, m.MaxParticipants)
	require.Equal(t, domain.MeetingActive, m.Status)
	require.Equal(t, created, m.CreatedAt)
}

func TestGetMeetingNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, name, host_id").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(meetingColumns))

	_, err := s.GetMeeting(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrMeetingNotFound)
}

func TestCreateMeeting(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO meetings").
		WithArgs(sqlmock.AnyArg(), "standup", "host", 8, "active").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	m, err := s.CreateMeeting(context.Background(), "host", "standup", 8)
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)
	require.Equal(t, domain.MeetingActive, m.Status)
	require.Equal(t, created, m.CreatedAt)
}

func TestSetEnded(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE meetings SET status").
		WithArgs("ended", "m1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SetEnded(context.Background(), "m1"))
}

func TestSetEndedUnknownMeeting(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE meetings SET status").
		WithArgs("ended", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.SetEnded(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrMeetingNotFound)
}

func TestApproveParticipant(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO meeting_participants .+ ON CONFLICT \\(meeting_id, user_id\\) DO NOTHING").
		WithArgs("m1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.ApproveParticipant(context.Background(), "m1", "u1"))
}

func TestHasParticipant(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT 1 FROM meeting_participants").
		WithArgs("m1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM meeting_participants").
		WithArgs("m1", "u2").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err := s.HasParticipant(context.Background(), "m1", "u1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.HasParticipant(context.Background(), "m1", "u2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpsertParticipant(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO meeting_participants .+ DO UPDATE SET connection_id = EXCLUDED.connection_id").
		WithArgs("m1", "u1", "c1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpsertParticipant(context.Background(), "m1", "u1", "c1"))
}

func TestMarkLeft(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE meeting_participants SET left_at = now\\(\\) WHERE meeting_id = .+ AND user_id = .+ AND left_at IS NULL").
		WithArgs("m1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.MarkLeft(context.Background(), "m1", "u1"))
}

func TestMarkAllLeft(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE meeting_participants SET left_at = now\\(\\) WHERE meeting_id = .+ AND left_at IS NULL").
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, s.MarkAllLeft(context.Background(), "m1"))
}

func TestListParticipants(t *testing.T) {
	s, mock := newMockStore(t)
	joined := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	cols := []string{"meeting_id", "user_id", "connection_id", "joined_at", "left_at"}
	mock.ExpectQuery("SELECT meeting_id, user_id, connection_id, joined_at, left_at FROM meeting_participants").
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("m1", "u1", "c1", joined, nil).
			AddRow("m1", "u2", nil, nil, nil))

	ps, err := s.ListParticipants(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, ps, 2)

	require.True(t, ps[0].Active())
	require.Equal(t, "c1", ps[0].ConnectionID)
	require.Equal(t, joined, *ps[0].JoinedAt)

	// approved but never joined
	require.False(t, ps[1].Active())
	require.Nil(t, ps[1].JoinedAt)
}

func TestCountActive(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM meeting_participants WHERE meeting_id = .+ AND joined_at IS NOT NULL AND left_at IS NULL").
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := s.CountActive(context.Background(), "m1")
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestDirectoryErrorsPropagate(t *testing.T) {
	s, mock := newMockStore(t)
	dbErr := errors.New("connection reset")

	mock.ExpectQuery("SELECT id, name, host_id").WithArgs("m1").WillReturnError(dbErr)
	_, err := s.GetMeeting(context.Background(), "m1")
	require.ErrorIs(t, err, dbErr)

	mock.ExpectQuery("SELECT COUNT").WithArgs("m1").WillReturnError(dbErr)
	_, err = s.CountActive(context.Background(), "m1")
	require.ErrorIs(t, err, dbErr)
}
