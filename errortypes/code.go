package errortypes

// Defines numeric codes for well-known errors.
const (
	UnknownErrorCode     = 999
	VMAPParsingErrorCode = iota
	VASTParsingErrorCode
	VMAPValidationErrorCode
	VASTValidationErrorCode
	WrapperDepthErrorCode
	TransportErrorCode
	InternalErrorCode
	SetupErrorCode
)

// Defines numeric codes for well-known warnings.
const (
	UnknownWarningCode      = 10999
	EmptyAdBreakWarningCode = iota + 10000
	UnresolvedOffsetWarningCode
	BeaconDroppedWarningCode
)

// IAB VAST error codes, reported through the [ERRORCODE] macro on
// error-event beacons. See VAST 3.0 section 2.4.2.3.
const (
	VASTErrorXMLParsing       = 100
	VASTErrorSchemaValidation = 101
	VASTErrorWrapperTimeout   = 301
	VASTErrorWrapperLimit     = 302
	VASTErrorNoAds            = 303
	VASTErrorUndefined        = 900
)

// Coder provides an error or warning code with severity.
type Coder interface {
	Code() int
	Severity() Severity
}

// ReadCode returns the error or warning code, or UnknownErrorCode if unavailable.
func ReadCode(err error) int {
	if e, ok := err.(Coder); ok {
		return e.Code()
	}
	return UnknownErrorCode
}

// VASTCoder is implemented by errors that map onto a standard IAB VAST
// error code suitable for the [ERRORCODE] beacon macro.
type VASTCoder interface {
	VASTCode() int
}

// ReadVASTCode returns the IAB VAST error code for err, or
// VASTErrorUndefined when the error carries none.
func ReadVASTCode(err error) int {
	if e, ok := err.(VASTCoder); ok {
		return e.VASTCode()
	}
	return VASTErrorUndefined
}
