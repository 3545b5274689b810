package models

// SSHShutdownConfig holds the remote shutdown hook of a section.
type SSHShutdownConfig struct {
	Host          string
	Port          int
	Username      string
	PrivateKey    []byte // loaded from file path
	KeyPath       string // path to key file
	ShutdownDelay int    // minutes; 0 shuts down immediately
	OS            string // "linux" (default) or "windows"
}

// SSHResult holds the result of an SSH operation.
type SSHResult struct {
	CommandRun bool
	Output     string
	Error      error
}
