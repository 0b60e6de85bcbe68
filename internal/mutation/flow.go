// Package mutation implements the modal create/update/delete flows.
//
// Every modal follows one state machine:
//
//	Closed → Open → Submitting → Closed            (success)
//	                           → Open with error   (failure)
//
// THE CONSTRUCTOR PATTERN USED HERE:
// ──────────────────────────────────
// A Flow itself knows nothing about students or payments. The per-record
// constructors (NewCreateStudent, NewUpdatePayment, ...) accept the
// dependencies — the record service and the query cache — and bind them
// into the flow's validate/submit/success functions as closures, the same
// way an HTTP handler factory closes over its storage. The hosting view
// only ever drives the Flow.
package mutation

import "context"

// State is the lifecycle position of a modal instance.
type State int

const (
	Closed State = iota
	Open
	Submitting
)

// Flow is one modal instance. Not safe for concurrent use: all
// transitions happen on the single UI event loop.
type Flow struct {
	state  State
	errMsg string

	// onOpen initializes whatever the modal needs on display, e.g. the
	// payment form loading its student picker options. Optional.
	onOpen func(ctx context.Context)
	// validate returns the inline error message, or "" when the form
	// may be submitted. Nil for flows without a form (delete).
	validate func() string
	// submit performs the service call. Required.
	submit func(ctx context.Context) error
	// onSuccess runs after a successful submit: cache invalidation,
	// form reset, and the hosting view's completion callback.
	onSuccess func()
}

// State reports where the flow currently is.
func (f *Flow) State() State { return f.state }

// Err is the inline error message, "" when there is none.
func (f *Flow) Err() string { return f.errMsg }

// Open transitions Closed → Open, clearing any stale error and running
// the flow's on-open hook.
func (f *Flow) Open(ctx context.Context) {
	f.errMsg = ""
	f.state = Open
	if f.onOpen != nil {
		f.onOpen(ctx)
	}
}

// Close dismisses the modal without submitting. Form state is kept, as
// a reopened modal shows whatever was last typed; only success resets.
func (f *Flow) Close() {
	f.state = Closed
}

// Submit runs the full validate → submit → settle sequence and reports
// whether the mutation succeeded.
//
// A validation failure sets the inline message and never touches the
// network. A service failure leaves the modal open with the service's
// message; nothing is partially persisted on this side. Success closes
// the modal and runs the success hook, whose cache invalidation is the
// only way the rest of the UI learns about the change.
func (f *Flow) Submit(ctx context.Context) bool {
	if f.state != Open {
		return false
	}
	f.errMsg = ""

	if f.validate != nil {
		if msg := f.validate(); msg != "" {
			f.errMsg = msg
			return false
		}
	}

	f.state = Submitting
	if err := f.submit(ctx); err != nil {
		f.state = Open
		f.errMsg = err.Error()
		return false
	}

	f.state = Closed
	if f.onSuccess != nil {
		f.onSuccess()
	}
	return true
}
