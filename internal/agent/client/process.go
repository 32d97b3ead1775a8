package client

// Process represents a running headless agent session.
// Implementations provide access to the event stream, process lifecycle,
// and conversation metadata.
type Process interface {
	// Events returns a channel of decoded output events.
	// The channel is closed when the process output ends.
	Events() <-chan OutputEvent

	// Errors returns a channel of process-level errors (launch failures,
	// non-zero exits). The channel is closed after the process exits.
	Errors() <-chan error

	// SessionRef returns the conversation identifier (session ID or thread
	// ID). May be empty until the init event is received.
	SessionRef() string

	// Status returns the current process status.
	Status() ProcessStatus

	// IsRunning returns true if the process is actively running.
	IsRunning() bool

	// WorkDir returns the working directory of the process.
	WorkDir() string

	// PID returns the OS process ID, or -1 if not running.
	PID() int

	// Cancel terminates the process.
	Cancel() error

	// Wait blocks until the process and its readers complete.
	Wait() error
}
