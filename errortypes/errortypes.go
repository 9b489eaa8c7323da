package errortypes

// VMAPParsingError should be used when a VMAP-typed ad request returned a
// response body that is not well-formed XML.
type VMAPParsingError struct {
	Message string
}

func (err *VMAPParsingError) Error() string {
	return err.Message
}

func (err *VMAPParsingError) Code() int {
	return VMAPParsingErrorCode
}

func (err *VMAPParsingError) Severity() Severity {
	return SeverityFatal
}

func (err *VMAPParsingError) VASTCode() int {
	return VASTErrorXMLParsing
}

// VASTParsingError should be used when a VAST-typed ad request (the initial
// request or any wrapper redirect) returned a response body that is not
// well-formed XML.
type VASTParsingError struct {
	Message string
}

func (err *VASTParsingError) Error() string {
	return err.Message
}

func (err *VASTParsingError) Code() int {
	return VASTParsingErrorCode
}

func (err *VASTParsingError) Severity() Severity {
	return SeverityFatal
}

func (err *VASTParsingError) VASTCode() int {
	return VASTErrorXMLParsing
}

// VMAPValidationError should be used when a VMAP document parsed cleanly but
// violates the VMAP structural rules. Message identifies the offending
// element.
type VMAPValidationError struct {
	Message string
}

func (err *VMAPValidationError) Error() string {
	return err.Message
}

func (err *VMAPValidationError) Code() int {
	return VMAPValidationErrorCode
}

func (err *VMAPValidationError) Severity() Severity {
	return SeverityFatal
}

func (err *VMAPValidationError) VASTCode() int {
	return VASTErrorSchemaValidation
}

// VASTValidationError should be used when a VAST document parsed cleanly but
// violates the VAST structural rules.
type VASTValidationError struct {
	Message string
}

func (err *VASTValidationError) Error() string {
	return err.Message
}

func (err *VASTValidationError) Code() int {
	return VASTValidationErrorCode
}

func (err *VASTValidationError) Severity() Severity {
	return SeverityFatal
}

func (err *VASTValidationError) VASTCode() int {
	return VASTErrorSchemaValidation
}

// WrapperDepthExceeded should be used when resolving a VAST wrapper chain
// passed the configured redirect ceiling. It aborts resolution of the
// affected ad break only, never the whole session.
type WrapperDepthExceeded struct {
	Message string
}

func (err *WrapperDepthExceeded) Error() string {
	return err.Message
}

func (err *WrapperDepthExceeded) Code() int {
	return WrapperDepthErrorCode
}

func (err *WrapperDepthExceeded) Severity() Severity {
	return SeverityFatal
}

func (err *WrapperDepthExceeded) VASTCode() int {
	return VASTErrorWrapperLimit
}

// TransportError should be used when the network collaborator failed to
// deliver a response at all. The underlying cause is surfaced as-is in the
// message.
type TransportError struct {
	Message string
}

func (err *TransportError) Error() string {
	return err.Message
}

func (err *TransportError) Code() int {
	return TransportErrorCode
}

func (err *TransportError) Severity() Severity {
	return SeverityFatal
}

// InternalError covers unexpected states such as a parse succeeding but
// yielding an empty document.
type InternalError struct {
	Message string
}

func (err *InternalError) Error() string {
	return err.Message
}

func (err *InternalError) Code() int {
	return InternalErrorCode
}

func (err *InternalError) Severity() Severity {
	return SeverityFatal
}

// SetupError should be used when a session is constructed with incomplete
// configuration, e.g. a missing renderer or transport.
type SetupError struct {
	Message string
}

func (err *SetupError) Error() string {
	return err.Message
}

func (err *SetupError) Code() int {
	return SetupErrorCode
}

func (err *SetupError) Severity() Severity {
	return SeverityFatal
}

// Warning is a generic non-fatal error.
type Warning struct {
	Message     string
	WarningCode int
}

func (err *Warning) Error() string {
	return err.Message
}

func (err *Warning) Code() int {
	return err.WarningCode
}

func (err *Warning) Severity() Severity {
	return SeverityWarning
}
