package app

import "github.com/ostap/huddle/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what to do with members whose send queue overflowed
// during a broadcast.
type Policy interface {
	OnBackPressure(session core.MeetingSession, cid core.ConnectionID) BackpressureAction
}

// SimplePolicy drops the connection of slow consumers; the disconnect
// path then reconciles membership like any other connection loss.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(session core.MeetingSession, cid core.ConnectionID) BackpressureAction {
	return KickMember
}
