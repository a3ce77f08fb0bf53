package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ostap/huddle/internal/core"
	"github.com/ostap/huddle/internal/domain"
)

type sessionEntry struct {
	User    *domain.User
	Meeting domain.MeetingID // empty when not joined
	Session core.MemberSession
	Cancel  context.CancelFunc
}

// Registry is the in-memory source of truth for who is connected right
// now and in which meeting. It exclusively owns the connection-to-meeting
// reverse mapping; per-meeting membership sets live in the meeting
// sessions handed out by the MeetingManager.
type Registry struct {
	mu      sync.RWMutex
	entries map[core.ConnectionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[core.ConnectionID]*sessionEntry)}
}

// Bind registers an authenticated connection with no meeting membership.
func (r *Registry) Bind(cid core.ConnectionID, user *domain.User, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[cid] = &sessionEntry{User: user, Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("user", string(user.ID)).Msg("bound connection")
}

// Unbind purges the connection entirely; the closed state is terminal.
// The stored cancel fires here so the per-connection context is released
// even when the transport closed on its own.
func (r *Registry) Unbind(cid core.ConnectionID) {
	r.mu.Lock()
	e, ok := r.entries[cid]
	delete(r.entries, cid)
	r.mu.Unlock()
	if ok && e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("unbound connection")
}

func (r *Registry) Get(cid core.ConnectionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[cid]; ok {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) UserOf(cid core.ConnectionID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[cid]; ok {
		return e.User, true
	}
	return nil, false
}

// MeetingOf is the reverse mapping used by the reconciler on disconnect.
func (r *Registry) MeetingOf(cid core.ConnectionID) (domain.MeetingID, core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[cid]
	if !ok || e.Meeting == "" {
		return "", nil, false
	}
	return e.Meeting, e.Session, true
}

func (r *Registry) SetMeeting(cid core.ConnectionID, id domain.MeetingID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[cid]
	if !ok {
		return false
	}
	e.Meeting = id
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("meeting", string(id)).Msg("updated meeting")
	return true
}

func (r *Registry) ClearMeeting(cid core.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[cid]; ok {
		e.Meeting = ""
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("cleared meeting association")
}

// Cancel asks the transport layer to force-close the connection.
func (r *Registry) Cancel(cid core.ConnectionID) bool {
	r.mu.RLock()
	e, ok := r.entries[cid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("canceled connection")
	return true
}
