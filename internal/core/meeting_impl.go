package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ostap/huddle/internal/domain"
)

type memberEntry struct {
	session       MemberSession
	screenSharing bool
}

// meetingImpl is a threadsafe in-memory meeting session.
// It never closes adapter-owned resources.
type meetingImpl struct {
	meeting domain.Meeting
	mu      sync.RWMutex
	byConn  map[ConnectionID]*memberEntry
	byUser  map[domain.UserID]ConnectionID
}

func NewMeetingSession(meeting domain.Meeting) MeetingSession {
	return &meetingImpl{
		meeting: meeting,
		byConn:  make(map[ConnectionID]*memberEntry),
		byUser:  make(map[domain.UserID]ConnectionID),
	}
}

func (m *meetingImpl) Meeting() domain.Meeting { return m.meeting }

func (m *meetingImpl) MemberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byConn)
}

func (m *meetingImpl) Empty() bool {
	return m.MemberCount() == 0
}

func (m *meetingImpl) Has(cid ConnectionID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byConn[cid]
	return ok
}

func (m *meetingImpl) AddMember(cid ConnectionID, ms MemberSession) bool {
	u := ms.User().ID
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byConn[cid]; ok {
		return false
	}
	m.byConn[cid] = &memberEntry{session: ms}
	m.byUser[u] = cid
	log.Info().Str("module", "core.meeting").Str("meeting", string(m.meeting.ID)).Str("cid", string(cid)).Str("user", string(u)).Msg("member added")
	return true
}

func (m *meetingImpl) RemoveMember(cid ConnectionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.byConn[cid]; ok {
		u := e.session.User().ID
		if m.byUser[u] == cid {
			delete(m.byUser, u)
		}
	}
	delete(m.byConn, cid)
	log.Info().Str("module", "core.meeting").Str("meeting", string(m.meeting.ID)).Str("cid", string(cid)).Msg("member removed")
}

func (m *meetingImpl) SetScreenSharing(cid ConnectionID, on bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byConn[cid]
	if !ok {
		return false
	}
	e.screenSharing = on
	return true
}

// Broadcast fans the frame out to every member except the sender.
// The membership snapshot and delivery happen under the read lock so a
// member mid-removal never receives a stray frame.
func (m *meetingImpl) Broadcast(from ConnectionID, data Frame) PublishResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := PublishResult{}
	for cid, e := range m.byConn {
		if cid == from {
			continue
		}
		if err := e.session.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, cid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.meeting").Str("meeting", string(m.meeting.ID)).Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (m *meetingImpl) Send(cid ConnectionID, data Frame) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byConn[cid]
	if !ok {
		return false
	}
	return e.session.Signal().TrySend(data) == nil
}

func (m *meetingImpl) Peers(except ConnectionID) []PeerDTO {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PeerDTO, 0, len(m.byConn))
	for cid, e := range m.byConn {
		if cid == except {
			continue
		}
		u := e.session.User()
		out = append(out, PeerDTO{ID: cid, User: u.ID, Name: u.Name, ScreenSharing: e.screenSharing})
	}
	return out
}
