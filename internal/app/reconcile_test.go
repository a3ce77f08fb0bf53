package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ostap/huddle/internal/core"
	"github.com/ostap/huddle/internal/domain"
)

// joinedMeeting wires host+guest into one active meeting and clears the
// notification backlog so tests assert only on what they trigger.
func joinedMeeting(t *testing.T) (*Orchestrator, *fakeDirectory, *fakeConn, *fakeConn, context.Context) {
	t.Helper()
	o, dir := newTestOrch()
	dir.meetings["m1"] = domain.Meeting{ID: "m1", HostID: "host", MaxParticipants: 4, Status: domain.MeetingActive}
	require.NoError(t, dir.ApproveParticipant(context.Background(), "m1", "guest"))

	hostConn, _ := bind(o, "ch", "host")
	guestConn, guestCtx := bind(o, "cg", "guest")

	_, err := o.Join(context.Background(), "ch", "m1")
	require.NoError(t, err)
	_, err = o.Join(context.Background(), "cg", "m1")
	require.NoError(t, err)

	hostConn.frames = nil
	guestConn.frames = nil
	return o, dir, hostConn, guestConn, guestCtx
}

func TestLeave(t *testing.T) {
	o, dir, hostConn, guestConn, _ := joinedMeeting(t)

	o.Leave(context.Background(), "cg")

	require.False(t, dir.active("m1", "guest"))
	_, _, joined := o.Registry.MeetingOf("cg")
	require.False(t, joined)
	require.Equal(t, []string{EventUserLeft}, hostConn.eventTypes(t))
	require.Empty(t, guestConn.frames, "the leaver gets no notification")

	sess, ok := o.Meetings.Get("m1")
	require.True(t, ok)
	require.False(t, sess.Has("cg"))
	require.True(t, sess.Has("ch"))

	// remaining connection is still bound and can rejoin
	_, ok = o.Registry.Get("cg")
	require.True(t, ok)
}

func TestLeaveLastMemberStopsSession(t *testing.T) {
	o, _, _, _, _ := joinedMeeting(t)

	o.Leave(context.Background(), "cg")
	o.Leave(context.Background(), "ch")

	_, ok := o.Meetings.Get("m1")
	require.False(t, ok)
}

func TestLeaveDirectoryFailureStillCleansUp(t *testing.T) {
	o, dir, hostConn, _, _ := joinedMeeting(t)
	dir.markLeftErr = errors.New("connection reset")

	o.Leave(context.Background(), "cg")

	_, _, joined := o.Registry.MeetingOf("cg")
	require.False(t, joined)
	require.Equal(t, []string{EventUserLeft}, hostConn.eventTypes(t))
}

func TestLeaveNotJoinedIsNoop(t *testing.T) {
	o, _ := newTestOrch()
	bind(o, "c1", "alice")
	o.Leave(context.Background(), "c1")
	o.Leave(context.Background(), "never-bound")
}

func TestKickByHost(t *testing.T) {
	o, dir, hostConn, guestConn, guestCtx := joinedMeeting(t)

	require.NoError(t, o.Kick(context.Background(), "host", "cg"))

	// target hears kicked, never its own user-left
	require.Equal(t, []string{EventKicked}, guestConn.eventTypes(t))
	ev := guestConn.events(t)[0]
	require.Equal(t, "m1", ev["meeting"])

	require.Equal(t, []string{EventUserLeft}, hostConn.eventTypes(t))
	require.False(t, dir.active("m1", "guest"))
	_, _, joined := o.Registry.MeetingOf("cg")
	require.False(t, joined)

	// transport told to close
	require.ErrorIs(t, guestCtx.Err(), context.Canceled)
}

func TestKickByNonHost(t *testing.T) {
	o, dir, hostConn, _, guestCtx := joinedMeeting(t)

	err := o.Kick(context.Background(), "guest", "ch")
	require.ErrorIs(t, err, domain.ErrNotAuthorized)

	require.Empty(t, hostConn.frames)
	require.True(t, dir.active("m1", "host"))
	require.NoError(t, guestCtx.Err())
	sess, ok := o.Meetings.Get("m1")
	require.True(t, ok)
	require.True(t, sess.Has("ch"))
}

func TestKickUnjoinedTargetIsNoop(t *testing.T) {
	o, _ := newTestOrch()
	bind(o, "c1", "alice")
	require.NoError(t, o.Kick(context.Background(), "host", "c1"))
	require.NoError(t, o.Kick(context.Background(), "host", "ghost"))
}

func TestKickDeliveredEvenWhenTargetSlow(t *testing.T) {
	o, _, hostConn, guestConn, _ := joinedMeeting(t)
	guestConn.fail = true

	// an undeliverable notice must not abort the removal
	require.NoError(t, o.Kick(context.Background(), "host", "cg"))
	require.Equal(t, []string{EventUserLeft}, hostConn.eventTypes(t))
	_, _, joined := o.Registry.MeetingOf("cg")
	require.False(t, joined)
}

func TestOnDisconnect(t *testing.T) {
	o, dir, hostConn, _, _ := joinedMeeting(t)

	o.OnDisconnect("cg")

	require.False(t, dir.active("m1", "guest"))
	require.Equal(t, []string{EventUserLeft}, hostConn.eventTypes(t))

	// unlike leave, disconnect purges the binding entirely
	_, ok := o.Registry.Get("cg")
	require.False(t, ok)
}

func TestOnDisconnectNotJoined(t *testing.T) {
	o, _ := newTestOrch()
	bind(o, "c1", "alice")

	o.OnDisconnect("c1")
	_, ok := o.Registry.Get("c1")
	require.False(t, ok)

	o.OnDisconnect("never-bound")
}

func TestEndMeeting(t *testing.T) {
	o, dir, hostConn, guestConn, _ := joinedMeeting(t)

	require.NoError(t, o.EndMeeting(context.Background(), "host", "m1"))

	require.Equal(t, domain.MeetingEnded, dir.meetings["m1"].Status)
	require.False(t, dir.active("m1", "host"))
	require.False(t, dir.active("m1", "guest"))

	require.Equal(t, []string{EventMeetingEnded}, hostConn.eventTypes(t))
	require.Equal(t, []string{EventMeetingEnded}, guestConn.eventTypes(t))

	_, ok := o.Meetings.Get("m1")
	require.False(t, ok)
	for _, cid := range []core.ConnectionID{"ch", "cg"} {
		_, _, joined := o.Registry.MeetingOf(cid)
		require.False(t, joined)
		_, bound := o.Registry.Get(cid)
		require.True(t, bound, "connections survive the meeting ending")
	}

	// the ended meeting rejects rejoins
	_, err := o.Join(context.Background(), "cg", "m1")
	require.ErrorIs(t, err, domain.ErrMeetingEnded)
}

func TestEndMeetingByNonHost(t *testing.T) {
	o, dir, _, guestConn, _ := joinedMeeting(t)

	err := o.EndMeeting(context.Background(), "guest", "m1")
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
	require.Equal(t, domain.MeetingActive, dir.meetings["m1"].Status)
	require.Empty(t, guestConn.frames)
}

func TestEndMeetingNotFound(t *testing.T) {
	o, _ := newTestOrch()
	err := o.EndMeeting(context.Background(), "host", "ghost")
	require.ErrorIs(t, err, domain.ErrMeetingNotFound)
}

func TestEndMeetingDirectoryUnavailable(t *testing.T) {
	o, dir, _, _, _ := joinedMeeting(t)
	dir.failAll = errors.New("connection refused")

	err := o.EndMeeting(context.Background(), "host", "m1")
	require.ErrorIs(t, err, domain.ErrServiceUnavailable)

	// no eviction happened
	sess, ok := o.Meetings.Get("m1")
	require.True(t, ok)
	require.Equal(t, 2, sess.MemberCount())
}
