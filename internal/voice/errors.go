package voice

import (
	"errors"
	"fmt"
)

// ErrorKind tags the unified failure taxonomy surfaced to voice-input consumers.
type ErrorKind string

const (
	KindUnsupported      ErrorKind = "unsupported"
	KindPermissionDenied ErrorKind = "permission-denied"
	KindRecognition      ErrorKind = "recognition-error"
	KindEmptySpeech      ErrorKind = "empty-speech"
	KindQuotaExceeded    ErrorKind = "transcription-quota-exceeded"
	KindGateway          ErrorKind = "gateway-failure"
	KindProcessing       ErrorKind = "processing-failure"
	KindSessionActive    ErrorKind = "session-active"
)

// Error is the single failure value retained by the orchestrator. At most one
// is live at a time; an accepted Start clears it.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s:%s: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is enables errors.Is matching on kind-only template errors.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind && (other.Code == "" || other.Code == e.Code)
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func recognitionError(code string, message string) *Error {
	if code == "" {
		code = "unknown"
	}
	return &Error{Kind: KindRecognition, Code: code, Message: message}
}

// errorCoder is implemented by engine errors carrying a wire-level code.
type errorCoder interface {
	ErrorCode() string
}

// statusCoder is implemented by gateway errors carrying transport status.
type statusCoder interface {
	StatusCode() int
	ErrorCode() string
}

// classifyEngine translates a recognition adapter error into the taxonomy.
// Adapter errors arrive wrapped, so the code is unwrapped with errors.As.
func classifyEngine(err error) *Error {
	code := ""
	var coded errorCoder
	if errors.As(err, &coded) {
		code = coded.ErrorCode()
	}
	return recognitionError(code, err.Error())
}

// classifyGateway translates a transcription gateway error into the taxonomy.
// Quota exhaustion is the one service failure the composer UI names explicitly.
func classifyGateway(err error) *Error {
	var coded statusCoder
	if errors.As(err, &coded) {
		if coded.StatusCode() == 429 || coded.ErrorCode() == "insufficient_quota" {
			return &Error{Kind: KindQuotaExceeded, Code: coded.ErrorCode(), Message: err.Error()}
		}
		return &Error{Kind: KindGateway, Code: coded.ErrorCode(), Message: err.Error()}
	}
	return newError(KindGateway, err.Error())
}
