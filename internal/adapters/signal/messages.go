package signal

import (
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/ostap/huddle/internal/core"
	"github.com/ostap/huddle/internal/domain"
)

var (
	errMissingTarget    = errors.New("signal: missing target connection id")
	errMissingSDP       = errors.New("signal: missing session description")
	errMissingCandidate = errors.New("signal: missing candidate")
	errMissingMeeting   = errors.New("signal: missing meeting id")
)

type joinRequest struct {
	Type    string `json:"type"`
	Meeting string `json:"meeting"`
}

func (r joinRequest) Validate() error {
	if r.Meeting == "" {
		return errMissingMeeting
	}
	return nil
}

type kickRequest struct {
	Type   string            `json:"type"`
	Target core.ConnectionID `json:"target"`
}

func (r kickRequest) Validate() error {
	if r.Target == "" {
		return errMissingTarget
	}
	return nil
}

// relayMessage is the point-to-point negotiation payload. It is relayed
// to the target unmodified except for the caller stamp; the pion
// conversions below only validate its shape.
type relayMessage struct {
	Type          string            `json:"type"`
	Target        core.ConnectionID `json:"target,omitempty"`
	Caller        core.ConnectionID `json:"caller,omitempty"`
	SDP           string            `json:"sdp,omitempty"`
	Candidate     string            `json:"candidate,omitempty"`
	SDPMid        *string           `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16           `json:"sdpMLineIndex,omitempty"`
}

func (m relayMessage) sessionDescription() (webrtc.SessionDescription, error) {
	var t webrtc.SDPType
	switch m.Type {
	case "offer":
		t = webrtc.SDPTypeOffer
	case "answer":
		t = webrtc.SDPTypeAnswer
	default:
		return webrtc.SessionDescription{}, fmt.Errorf("unsupported sdp type %q", m.Type)
	}
	if m.SDP == "" {
		return webrtc.SessionDescription{}, errMissingSDP
	}
	return webrtc.SessionDescription{Type: t, SDP: m.SDP}, nil
}

func (m relayMessage) iceCandidate() (webrtc.ICECandidateInit, error) {
	if m.Candidate == "" {
		return webrtc.ICECandidateInit{}, errMissingCandidate
	}
	return webrtc.ICECandidateInit{
		Candidate:     m.Candidate,
		SDPMid:        m.SDPMid,
		SDPMLineIndex: m.SDPMLineIndex,
	}, nil
}

func (m relayMessage) Validate() error {
	if m.Target == "" {
		return errMissingTarget
	}
	switch m.Type {
	case "offer", "answer":
		_, err := m.sessionDescription()
		return err
	case "candidate":
		_, err := m.iceCandidate()
		return err
	default:
		return fmt.Errorf("unsupported relay type %q", m.Type)
	}
}

type errorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newErrorEvent(err error) errorEvent {
	code := domain.ErrorCode(err)
	msg := err.Error()
	// Wrapped causes stay in the logs, not on the wire.
	for _, sentinel := range []error{
		domain.ErrNotAuthenticated, domain.ErrMeetingNotFound, domain.ErrMeetingEnded,
		domain.ErrMeetingFull, domain.ErrNotAuthorized, domain.ErrServiceUnavailable,
	} {
		if errors.Is(err, sentinel) {
			msg = sentinel.Error()
			break
		}
	}
	return errorEvent{Type: "error", Code: code, Message: msg}
}
