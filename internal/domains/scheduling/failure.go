package scheduling

import "errors"

type FailureMode int

const (
	// FailureUnavailable means the provider or the transport to it cannot be
	// reached or is misconfigured. It degrades the whole booking flow.
	FailureUnavailable FailureMode = iota + 1
	// FailureRejected means the provider refused one specific request with a
	// reason. The flow continues; only that request failed.
	FailureRejected
)

// Failure classifies a provider interaction error. The classification is
// deliberately coarse: the flow cannot meaningfully distinguish a provider
// outage from a configuration error, so both collapse into unavailable.
type Failure struct {
	Mode    FailureMode
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

func Unavailable() error {
	return &Failure{
		Mode:    FailureUnavailable,
		Message: "scheduling provider unavailable",
	}
}

func Rejected(message string) error {
	return &Failure{
		Mode:    FailureRejected,
		Message: message,
	}
}

func IsUnavailable(err error) bool {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Mode == FailureUnavailable
	}

	return false
}

func IsRejected(err error) bool {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Mode == FailureRejected
	}

	return false
}

// MessageOf returns the human readable reason attached to a rejection, or an
// empty string when the error carries none.
func MessageOf(err error) string {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Message
	}

	return ""
}
