package web

import (
	"strings"

	"github.com/MrEthical07/prepwise"
)

// CallStatus is the state of an interview call.
type CallStatus string

const (
	CallInactive   CallStatus = "INACTIVE"
	CallConnecting CallStatus = "CONNECTING"
	CallActive     CallStatus = "ACTIVE"
	CallFinished   CallStatus = "FINISHED"
)

// ParseCallStatus accepts the status names case-insensitively.
func ParseCallStatus(s string) (CallStatus, bool) {
	switch st := CallStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case CallInactive, CallConnecting, CallActive, CallFinished:
		return st, true
	default:
		return "", false
	}
}

// ActionLabel is the text of the single call button for this state.
func (c CallStatus) ActionLabel() string {
	switch c {
	case CallActive:
		return "End Interview"
	case CallConnecting:
		return "Connecting..."
	default:
		return "Start Interview"
	}
}

type agentView struct {
	Status     CallStatus
	IsSpeaking bool
	UserName   string
}

func newAgentView(user *prepwise.User, status CallStatus, speaking bool) agentView {
	name := "You"
	if user != nil && user.DisplayName != "" {
		name = user.DisplayName
	}
	return agentView{Status: status, IsSpeaking: speaking, UserName: name}
}

func (a agentView) ActionLabel() string { return a.Status.ActionLabel() }

// Busy reports whether the button should be disabled.
func (a agentView) Busy() bool { return a.Status == CallConnecting }

// Initial is the first letter of the user's name, for the avatar.
func (a agentView) Initial() string {
	for _, r := range a.UserName {
		return strings.ToUpper(string(r))
	}
	return "?"
}
