package deploy

import "fmt"

// ConfigurationError reports an invalid or incomplete deployment request:
// missing source, a malformed cron interval, or a bad config entry.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid deployment configuration: " + e.Reason
}

// SpawnError reports that the network accepted the spawn request but did not
// produce a process identifier.
type SpawnError struct {
	Name string
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning process %q yielded no process identifier", e.Name)
}

// IndexingTimeoutError reports that a freshly spawned process was not
// observed by the lookup service within the bounded polling window.
type IndexingTimeoutError struct {
	ProcessID string
	Attempts  int
}

func (e *IndexingTimeoutError) Error() string {
	return fmt.Sprintf("process %s not indexed by the gateway after %d attempts", e.ProcessID, e.Attempts)
}

// EvaluationError reports that the remote evaluation completed but returned
// an application-level failure payload.
type EvaluationError struct {
	Payload string
}

func (e *EvaluationError) Error() string {
	return "contract evaluation failed: " + e.Payload
}
