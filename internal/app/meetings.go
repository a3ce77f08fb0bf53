package app

import (
	"sync"

	"github.com/ostap/huddle/internal/core"
	"github.com/ostap/huddle/internal/domain"
)

type MeetingManagerImpl struct {
	mu       sync.RWMutex
	sessions map[domain.MeetingID]core.MeetingSession
}

func NewMeetingManager() core.MeetingManager {
	return &MeetingManagerImpl{sessions: make(map[domain.MeetingID]core.MeetingSession)}
}

// GetOrCreate returns the live session for the meeting, creating one with
// the given directory snapshot on first join.
func (f *MeetingManagerImpl) GetOrCreate(meeting domain.Meeting) core.MeetingSession {
	f.mu.RLock()
	sess, ok := f.sessions[meeting.ID]
	f.mu.RUnlock()
	if ok {
		return sess
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess, ok = f.sessions[meeting.ID]; ok {
		return sess
	}
	sess = core.NewMeetingSession(meeting)
	f.sessions[meeting.ID] = sess
	return sess
}

func (f *MeetingManagerImpl) Get(id domain.MeetingID) (core.MeetingSession, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	sess, ok := f.sessions[id]
	return sess, ok
}

func (f *MeetingManagerImpl) List() []core.MeetingInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.MeetingInfo, 0, len(f.sessions))
	for id, s := range f.sessions {
		out = append(out, core.MeetingInfo{ID: id, Name: s.Meeting().Name, MemberCount: s.MemberCount()})
	}
	return out
}

func (f *MeetingManagerImpl) Stop(id domain.MeetingID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
}
