package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("u1", "Alice")
	require.NoError(t, err)
	require.Equal(t, UserID("u1"), u.ID)

	_, err = NewUser("u1", "")
	require.ErrorIs(t, err, ErrDisplayNameEmpty)

	_, err = NewUser("u1", strings.Repeat("x", MaxDisplayNameLen+1))
	require.ErrorIs(t, err, ErrDisplayNameTooLong)
}

func TestMeetingStatus(t *testing.T) {
	m := Meeting{ID: "m1", HostID: "host", Status: MeetingActive}
	require.False(t, m.Ended())
	require.True(t, m.IsHost("host"))
	require.False(t, m.IsHost("guest"))

	m.Status = MeetingEnded
	require.True(t, m.Ended())
}

func TestErrorCode(t *testing.T) {
	cases := map[string]error{
		"not_authenticated": ErrNotAuthenticated,
		"meeting_not_found": ErrMeetingNotFound,
		"meeting_ended":     ErrMeetingEnded,
		"meeting_full":      ErrMeetingFull,
		"not_authorized":    ErrNotAuthorized,
	}
	for code, err := range cases {
		require.Equal(t, code, ErrorCode(err))
		// wrapping preserves the code
		require.Equal(t, code, ErrorCode(fmt.Errorf("handling join: %w", err)))
	}

	require.Equal(t, "service_unavailable", ErrorCode(ErrServiceUnavailable))
	require.Equal(t, "service_unavailable", ErrorCode(errors.New("disk on fire")))
}
