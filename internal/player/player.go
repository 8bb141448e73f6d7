// package player manages the embedded playback context: an isolated actor
// hosting the vendor playback SDK, reachable only via message passing.
package player

import "context"

// EventType classifies SDK lifecycle notifications.
type EventType string

const (
	EventReady        EventType = "ready"
	EventNotReady     EventType = "not_ready"
	EventAuthError    EventType = "authentication_error"
	EventAccountError EventType = "account_error"
)

// Event is a lifecycle notification emitted by the SDK. Events update the
// device identity but are not commands.
type Event struct {
	Type     EventType
	DeviceID string
	Message  string
}

// TokenFunc supplies a fresh access token to the SDK on demand.
type TokenFunc func(ctx context.Context) (string, error)

// SDK is the opaque vendor playback capability hosted inside the embedded
// context. Its audio pipeline is not modeled here; only transport operations
// and lifecycle events are.
type SDK interface {
	Connect(ctx context.Context) error
	Disconnect()
	Play(contextURI string, uris []string) error
	Pause() error
	Resume() error
	Next() error
	Previous() error
	SetVolume(level float64) error
	// Events delivers lifecycle notifications until Disconnect.
	Events() <-chan Event
}

// SDKOpts carries what a vendor binding needs to announce the device: a
// token source plus the name and volume it registers with.
type SDKOpts struct {
	GetToken      TokenFunc
	Name          string
	InitialVolume float64
}

// Factory constructs a fresh SDK instance for a new embedded context.
type Factory func(opts SDKOpts) SDK

// CommandType discriminates commands relayed into the embedded context.
type CommandType string

const (
	CmdPlay       CommandType = "PLAY"
	CmdPause      CommandType = "PAUSE"
	CmdResume     CommandType = "RESUME"
	CmdNext       CommandType = "NEXT"
	CmdPrevious   CommandType = "PREVIOUS"
	CmdSetVolume  CommandType = "SET_VOLUME"
	CmdDisconnect CommandType = "DISCONNECT"
)

// Command is a message relayed to the embedded context.
type Command struct {
	Type       CommandType
	ContextURI string
	TrackURIs  []string
	Volume     float64
}

// Response is the result envelope returned across the context boundary.
// Failures are values, never raised faults.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
