package domain

import "time"

// SessionEventType defines the type of session transition
type SessionEventType string

const (
	SessionLoginEvent            SessionEventType = "SESSION_LOGIN"
	SessionLogoutEvent           SessionEventType = "SESSION_LOGOUT"
	SessionClearedEvent          SessionEventType = "SESSION_CLEARED"
	SessionOptimisticEvent       SessionEventType = "SESSION_OPTIMISTIC"
	SessionRestoredEvent         SessionEventType = "SESSION_RESTORED"
	SessionTransientFailureEvent SessionEventType = "SESSION_TRANSIENT_FAILURE"
	SessionAnonymousEvent        SessionEventType = "SESSION_ANONYMOUS"
)

// SessionEvent describes a transition of the client session
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	UserID    uint             `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	ErrorMsg  string           `json:"error_msg,omitempty"`
}

// NewSessionEvent creates a session event stamped with the current time
func NewSessionEvent(eventType SessionEventType, user *User) SessionEvent {
	e := SessionEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
	if user != nil {
		e.UserID = user.ID
	}
	return e
}

// WithError sets error information on the event
func (e SessionEvent) WithError(err error) SessionEvent {
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}
