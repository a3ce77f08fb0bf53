package core

import "github.com/ostap/huddle/internal/domain"

// Frame is a raw signaling payload already encoded for the wire.
type Frame []byte

// ConnectionID identifies one live transport-level connection.
type ConnectionID string

// SignalConnection abstracts the control-plane transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds a verified user and its transport endpoint.
// This is what a meeting session stores and fans out to.
type MemberSession interface {
	User() *domain.User
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to the orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []ConnectionID
}

// PeerDTO is a read-only member view for the wire (no transport fields).
type PeerDTO struct {
	ID            ConnectionID  `json:"id"`
	User          domain.UserID `json:"user"`
	Name          string        `json:"name"`
	ScreenSharing bool          `json:"screenSharing,omitempty"`
}

// MeetingSession is the core-facing API of one live meeting.
// It owns the membership set but never touches transport resources.
// All methods are safe for concurrent use; each session carries its own
// lock so unrelated meetings never block each other.
type MeetingSession interface {
	Meeting() domain.Meeting
	MemberCount() int
	Empty() bool
	Has(cid ConnectionID) bool

	// Peers returns every member except the given connection.
	Peers(except ConnectionID) []PeerDTO

	// AddMember reports false when the connection is already a member.
	AddMember(cid ConnectionID, ms MemberSession) bool
	RemoveMember(cid ConnectionID)
	SetScreenSharing(cid ConnectionID, on bool) bool

	Broadcast(from ConnectionID, data Frame) PublishResult
	Send(cid ConnectionID, data Frame) bool
}

type MeetingInfo struct {
	ID          domain.MeetingID `json:"id"`
	Name        string           `json:"name"`
	MemberCount int              `json:"member_count"`
}

// MeetingManager hands out live meeting sessions keyed by meeting id.
type MeetingManager interface {
	GetOrCreate(meeting domain.Meeting) MeetingSession
	Get(id domain.MeetingID) (MeetingSession, bool)
	List() []MeetingInfo
	Stop(id domain.MeetingID)
}
