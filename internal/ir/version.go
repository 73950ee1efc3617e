package ir

// Version constants for the artifact format and engine.
const (
	// FormatName identifies the artifact format.
	FormatName = "folio/1"

	// FormatVersion is the artifact format version.
	FormatVersion = "1"

	// EngineVersion is the folio engine version.
	EngineVersion = "0.1.0"
)
