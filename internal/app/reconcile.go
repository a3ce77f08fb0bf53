package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/ostap/huddle/internal/core"
	"github.com/ostap/huddle/internal/domain"
)

// Leave removes the connection from its current meeting: durable record
// first (best effort), then the in-memory membership, then the room-wide
// notification. A connection with no membership is a no-op.
func (o *Orchestrator) Leave(ctx context.Context, cid core.ConnectionID) {
	id, memberSess, ok := o.Registry.MeetingOf(cid)
	if !ok {
		return
	}
	user := memberSess.User()

	o.markLeft(ctx, id, user.ID)
	o.removeAndNotify(id, cid, user)
}

// Kick removes the target on behalf of the requester. The requester must
// be the meeting's current host, re-checked against the directory at kick
// time. The target hears `kicked` before its membership mutates; everyone
// else sees a regular `user-left` afterwards.
func (o *Orchestrator) Kick(ctx context.Context, requester domain.UserID, target core.ConnectionID) error {
	id, memberSess, ok := o.Registry.MeetingOf(target)
	if !ok {
		return nil
	}

	dctx, cancel := o.directoryCtx(ctx)
	meeting, err := o.Directory.GetMeeting(dctx, id)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrMeetingNotFound) {
			return err
		}
		return unavailable(err)
	}
	if !meeting.IsHost(requester) {
		return domain.ErrNotAuthorized
	}

	user := memberSess.User()
	if frame := encodeEvent(Event{Type: EventKicked, Meeting: id, Reason: "removed by host"}); frame != nil {
		if err := memberSess.Signal().TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.reconcile").Str("cid", string(target)).Msg("kicked notice not delivered")
		}
	}

	o.markLeft(ctx, id, user.ID)
	o.removeAndNotify(id, target, user)
	o.Registry.Cancel(target)

	log.Info().Str("module", "app.reconcile").Str("host", string(requester)).Str("cid", string(target)).Str("meeting", string(id)).Msg("kicked member")
	return nil
}

// OnDisconnect reconciles membership after a transport-level connection
// loss. It runs to completion even though the connection itself is gone;
// notifying the vanished connection is skipped by construction.
func (o *Orchestrator) OnDisconnect(cid core.ConnectionID) {
	if id, memberSess, ok := o.Registry.MeetingOf(cid); ok {
		user := memberSess.User()
		o.markLeft(context.Background(), id, user.ID)
		o.removeAndNotify(id, cid, user)
	}
	o.Registry.Unbind(cid)
}

// EndMeeting marks the meeting ended in the directory, closes out every
// live participant record and evicts every connection still in the room.
func (o *Orchestrator) EndMeeting(ctx context.Context, requester domain.UserID, id domain.MeetingID) error {
	dctx, cancel := o.directoryCtx(ctx)
	defer cancel()

	meeting, err := o.Directory.GetMeeting(dctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrMeetingNotFound) {
			return err
		}
		return unavailable(err)
	}
	if !meeting.IsHost(requester) {
		return domain.ErrNotAuthorized
	}

	if err := o.Directory.SetEnded(dctx, id); err != nil {
		return unavailable(err)
	}
	if err := o.Directory.MarkAllLeft(dctx, id); err != nil {
		log.Warn().Err(err).Str("module", "app.reconcile").Str("meeting", string(id)).Msg("directory mark-all-left failed")
	}

	if sess, ok := o.Meetings.Get(id); ok {
		frame := encodeEvent(Event{Type: EventMeetingEnded, Meeting: id})
		for _, p := range sess.Peers("") {
			if frame != nil {
				sess.Send(p.ID, frame)
			}
			sess.RemoveMember(p.ID)
			o.Registry.ClearMeeting(p.ID)
		}
		o.Meetings.Stop(id)
	}

	log.Info().Str("module", "app.reconcile").Str("host", string(requester)).Str("meeting", string(id)).Msg("meeting ended")
	return nil
}

// markLeft is the best-effort durable write on the leave path. Failures
// are logged, never block in-memory cleanup: a stale "still joined" row
// self-corrects on the next join upsert.
func (o *Orchestrator) markLeft(ctx context.Context, id domain.MeetingID, user domain.UserID) {
	dctx, cancel := o.directoryCtx(ctx)
	defer cancel()
	if err := o.Directory.MarkLeft(dctx, id, user); err != nil {
		log.Warn().Err(err).Str("module", "app.reconcile").Str("meeting", string(id)).Str("user", string(user)).Msg("directory mark-left failed")
	}
}

func (o *Orchestrator) removeAndNotify(id domain.MeetingID, cid core.ConnectionID, user *domain.User) {
	sess, ok := o.Meetings.Get(id)
	if ok {
		sess.RemoveMember(cid)
	}
	o.Registry.ClearMeeting(cid)
	if !ok {
		return
	}
	if frame := encodeEvent(Event{Type: EventUserLeft, Peer: peerOf(cid, user)}); frame != nil {
		o.applyBackpressure(sess, sess.Broadcast(cid, frame))
	}
	if sess.Empty() {
		o.Meetings.Stop(id)
	}
}
