package prepwise

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method runs on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrSessionCreationFailed wraps every CreateSession failure.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrInvalidConfig is wrapped by Config.Validate failures.
	ErrInvalidConfig = errors.New("invalid config")
)
