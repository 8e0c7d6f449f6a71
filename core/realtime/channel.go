package realtime

// Channel is one live bidirectional connection to the remote voice agent.
// Providers return their concrete channel type; consumers hold this.
type Channel interface {
	// SendAudio forwards one chunk of rep microphone audio.
	SendAudio(audio []byte) error
	// CreateResponse asks the remote agent to speak next.
	CreateResponse() error
	// Close tears the connection down. Must be safe to call more than once.
	Close() error
}
