package protocol

const (
	// CommandActivate asks the running instance to present its window.
	CommandActivate = "window.activate"
	// CommandPause keeps focus loss from hiding the window, for popups
	// opened from inside it.
	CommandPause = "window.pause"
	// CommandResume re-arms auto-hide after CommandPause.
	CommandResume = "window.resume"
	// CommandStatus requests the running instance's window and sign-in state.
	CommandStatus = "status.get"
)

// Request is the control payload sent to the running instance.
type Request struct {
	Token   string `json:"token"`
	Command string `json:"command"`
}

// Status describes the running instance.
type Status struct {
	Window    string `json:"window"`
	Paused    bool   `json:"paused"`
	SignedIn  bool   `json:"signedIn"`
	Acquiring bool   `json:"acquiring"`
}

// Response is the reply emitted by the running instance.
type Response struct {
	Error  string  `json:"error,omitempty"`
	Status *Status `json:"status,omitempty"`
}
