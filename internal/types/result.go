package types

// AbsenceReason explains why a best-effort value is missing.
type AbsenceReason string

const (
	AbsenceNone          AbsenceReason = ""
	AbsenceNotConfigured AbsenceReason = "not_configured"
	AbsenceCallFailed    AbsenceReason = "call_failed"
	AbsenceNoData        AbsenceReason = "no_data"
)

// StatusOK is reported for a section whose value is present.
const StatusOK = "ok"

// Result holds either a value or the typed reason it is absent.
// Err keeps the underlying cause for logs; it is never shown to end users.
type Result[T any] struct {
	Value  T
	Reason AbsenceReason
	Err    error
}

// Found wraps a present value.
func Found[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Absent builds a missing result. An empty reason is treated as a failed call.
func Absent[T any](reason AbsenceReason, err error) Result[T] {
	if reason == AbsenceNone {
		reason = AbsenceCallFailed
	}
	return Result[T]{Reason: reason, Err: err}
}

func (r Result[T]) Ok() bool {
	return r.Reason == AbsenceNone
}

// Status is "ok" for a present value and the absence reason otherwise.
func (r Result[T]) Status() string {
	if r.Ok() {
		return StatusOK
	}
	return string(r.Reason)
}

// Ptr returns a pointer to the value, or nil when absent.
func (r Result[T]) Ptr() *T {
	if !r.Ok() {
		return nil
	}
	v := r.Value
	return &v
}
