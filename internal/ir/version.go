package ir

// Version constants stamped into encoded transaction logs.
const (
	// CodecVersion is the wire schema version for encoded logs.
	CodecVersion = "1"

	// EngineVersion is the cruxtx release version.
	EngineVersion = "0.1.0"
)
