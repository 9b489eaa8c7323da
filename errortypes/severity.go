package errortypes

// Severity represents the severity level of an ad processing error.
type Severity int

const (
	// SeverityUnknown represents an unknown severity level.
	SeverityUnknown Severity = iota

	// SeverityFatal represents a fatal ad processing error which prevents the
	// affected request or break from producing playable ads.
	SeverityFatal

	// SeverityWarning represents a non-fatal ad processing error where invalid
	// or ambiguous data was ignored.
	SeverityWarning
)

// IsWarning returns true if an error is labeled with a Severity of SeverityWarning.
func IsWarning(err error) bool {
	s, ok := err.(Coder)
	return ok && s.Severity() == SeverityWarning
}
