package events

const (
	// KindSessionReady identifies the remote agent accepting its configuration.
	KindSessionReady Kind = "session.ready"
	// KindSessionError identifies a protocol-level error reported mid-call.
	KindSessionError Kind = "session.error"
)

// SessionReady marks the control channel as open and configured.
type SessionReady struct{ Base }

// NewSessionReady creates a session ready event.
func NewSessionReady() SessionReady {
	return SessionReady{Base: NewBase(KindSessionReady)}
}

// SessionError carries a protocol-level error message from the remote side.
// Receiving one does not end the session; ending is always caller-driven.
type SessionError struct {
	Base
	Message string
}

// NewSessionError creates a session error event.
func NewSessionError(message string) SessionError {
	return SessionError{Base: NewBase(KindSessionError), Message: message}
}
