package ir

// Version constants stamped on stored runs.
const (
	// IRVersion is the trace record schema version.
	IRVersion = "1"

	// EngineVersion is the scheduler version.
	EngineVersion = "0.1.0"
)
