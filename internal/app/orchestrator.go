package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ostap/huddle/internal/core"
	"github.com/ostap/huddle/internal/directory"
	"github.com/ostap/huddle/internal/domain"
)

// Orchestrator coordinates joins, signaling relay and membership
// reconciliation across the registry, the live meeting sessions and the
// durable directory. Directory calls are bounded by Timeout and always
// happen outside the per-meeting membership locks.
type Orchestrator struct {
	Registry  *Registry
	Meetings  core.MeetingManager
	Directory directory.Directory
	Policy    Policy
	Timeout   time.Duration
}

const defaultDirectoryTimeout = 5 * time.Second

func (o *Orchestrator) directoryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	t := o.Timeout
	if t <= 0 {
		t = defaultDirectoryTimeout
	}
	return context.WithTimeout(ctx, t)
}

// unavailable wraps directory failures into the client-facing taxonomy.
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
}

// Join admits the connection into the meeting and returns the other
// currently-registered members, the "existing peers" list the new
// connection negotiates with.
//
// Validation order follows the directory-as-source-of-truth rule: meeting
// existence, status, capacity, then authorization. The registry is only
// mutated after every directory call has succeeded, so a failed join
// never leaves a partial membership behind.
func (o *Orchestrator) Join(ctx context.Context, cid core.ConnectionID, id domain.MeetingID) ([]core.PeerDTO, error) {
	user, ok := o.Registry.UserOf(cid)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}

	if cur, _, joined := o.Registry.MeetingOf(cid); joined {
		if cur == id {
			// Repeated join with no intervening leave is a no-op: same
			// peer list, no duplicate registry entry.
			if sess, ok := o.Meetings.Get(cur); ok {
				return sess.Peers(cid), nil
			}
		}
		// At most one active membership per connection.
		o.Leave(ctx, cid)
	}

	dctx, cancel := o.directoryCtx(ctx)
	defer cancel()

	meeting, err := o.Directory.GetMeeting(dctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrMeetingNotFound) {
			return nil, err
		}
		return nil, unavailable(err)
	}
	if meeting.Ended() {
		return nil, domain.ErrMeetingEnded
	}

	active, err := o.Directory.CountActive(dctx, id)
	if err != nil {
		return nil, unavailable(err)
	}
	if active >= meeting.MaxParticipants {
		return nil, domain.ErrMeetingFull
	}

	if !meeting.IsHost(user.ID) {
		approved, err := o.Directory.HasParticipant(dctx, id, user.ID)
		if err != nil {
			return nil, unavailable(err)
		}
		if !approved {
			return nil, domain.ErrNotAuthorized
		}
	}

	if err := o.Directory.UpsertParticipant(dctx, id, user.ID, string(cid)); err != nil {
		return nil, unavailable(err)
	}

	memberSess, ok := o.Registry.Get(cid)
	if !ok {
		// Connection vanished while we were talking to the directory;
		// the stale participant row self-corrects on the next join.
		return nil, domain.ErrNotAuthenticated
	}

	sess := o.Meetings.GetOrCreate(meeting)
	sess.AddMember(cid, memberSess)
	if !o.Registry.SetMeeting(cid, meeting.ID) {
		// Disconnect raced the join between the registry re-check and
		// the membership insert; undo it so the closed connection never
		// lingers in the meeting.
		sess.RemoveMember(cid)
		if sess.Empty() {
			o.Meetings.Stop(meeting.ID)
		}
		o.markLeft(ctx, meeting.ID, user.ID)
		return nil, domain.ErrNotAuthenticated
	}
	peers := sess.Peers(cid)

	if frame := encodeEvent(Event{Type: EventUserJoined, Peer: peerOf(cid, user)}); frame != nil {
		o.applyBackpressure(sess, sess.Broadcast(cid, frame))
	}

	log.Info().Str("module", "app.orchestrator").Str("cid", string(cid)).Str("user", string(user.ID)).Str("meeting", string(id)).Int("peers", len(peers)).Msg("joined meeting")
	return peers, nil
}

func (o *Orchestrator) applyBackpressure(sess core.MeetingSession, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(sess, slow) {
		case KickMember:
			// Closing the transport routes cleanup through the normal
			// disconnect path.
			o.Registry.Cancel(slow)
		case DropFrame, NoAction:
		}
	}
}
