package capture

import (
	"errors"
	"fmt"

	"dirigia/internal/model"
)

// State of one upload attempt.
type State string

const (
	StateIdle             State = "idle"
	StatePriming          State = "priming"
	StateRequestingAccess State = "requesting_access"
	StateDenied           State = "denied"
	StateViewfinder       State = "viewfinder"
	StateSelecting        State = "selecting"
	StatePreview          State = "preview"
	StateConfirmed        State = "confirmed"
	StateSubmitting       State = "submitting"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// ErrInFlight is returned when a second submission is attempted while one is outstanding.
var ErrInFlight = errors.New("upload already in progress")

// TransitionError reports an event that is not valid in the current state.
type TransitionError struct {
	From  State
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("capture: %s not allowed in state %s", e.Event, e.From)
}

// Flow walks one file from mode selection to submission. It is not safe for
// concurrent use; each client session owns its own Flow.
type Flow struct {
	state   State
	mode    model.CaptureMode
	file    *FileInfo
	lastErr error
	primed  func(model.CaptureMode) bool
}

// NewFlow returns an idle flow. primed reports whether the priming dialog may be skipped.
func NewFlow(primed func(model.CaptureMode) bool) *Flow {
	if primed == nil {
		primed = func(model.CaptureMode) bool { return false }
	}
	return &Flow{state: StateIdle, primed: primed}
}

func (f *Flow) State() State            { return f.state }
func (f *Flow) Mode() model.CaptureMode { return f.mode }
func (f *Flow) File() *FileInfo         { return f.file }
func (f *Flow) Err() error              { return f.lastErr }

func (f *Flow) require(event string, allowed ...State) error {
	for _, s := range allowed {
		if f.state == s {
			return nil
		}
	}
	return &TransitionError{From: f.state, Event: event}
}

// acquire moves to the step that follows priming for the current mode.
func (f *Flow) acquire() {
	if f.mode == model.CaptureCamera {
		f.state = StateRequestingAccess
		return
	}
	f.state = StateSelecting
}

// Start begins a new attempt in the given mode.
func (f *Flow) Start(mode model.CaptureMode) error {
	if err := f.require("start", StateIdle, StateDone, StateFailed); err != nil {
		return err
	}
	if mode != model.CaptureCamera && mode != model.CaptureFile {
		return fmt.Errorf("capture: unknown mode %q", mode)
	}
	f.mode, f.file, f.lastErr = mode, nil, nil
	if f.primed(mode) {
		f.acquire()
		return nil
	}
	f.state = StatePriming
	return nil
}

// AcceptPriming is fired when the user accepts the priming dialog.
func (f *Flow) AcceptPriming() error {
	if err := f.require("accept_priming", StatePriming); err != nil {
		return err
	}
	f.acquire()
	return nil
}

// Grant is fired when the browser grants camera access.
func (f *Flow) Grant() error {
	if err := f.require("grant", StateRequestingAccess); err != nil {
		return err
	}
	f.state = StateViewfinder
	return nil
}

// Deny is fired when camera access is refused; the denied dialog offers Retry.
func (f *Flow) Deny() error {
	if err := f.require("deny", StateRequestingAccess); err != nil {
		return err
	}
	f.state = StateDenied
	return nil
}

func (f *Flow) Retry() error {
	if err := f.require("retry", StateDenied); err != nil {
		return err
	}
	f.state = StateRequestingAccess
	return nil
}

// Capture accepts a frame taken from the viewfinder.
func (f *Flow) Capture(file FileInfo) error {
	if err := f.require("capture", StateViewfinder); err != nil {
		return err
	}
	if err := ValidateFile(file); err != nil {
		f.lastErr = err
		return err
	}
	f.file, f.lastErr = &file, nil
	f.state = StatePreview
	return nil
}

// Select validates a picked file. A rejected file keeps the flow in Selecting
// with the reason available from Err.
func (f *Flow) Select(file FileInfo) error {
	if err := f.require("select", StateSelecting); err != nil {
		return err
	}
	if err := ValidateFile(file); err != nil {
		f.lastErr = err
		return err
	}
	f.file, f.lastErr = &file, nil
	f.state = StatePreview
	return nil
}

// Retake discards the previewed file and returns to acquisition.
func (f *Flow) Retake() error {
	if err := f.require("retake", StatePreview); err != nil {
		return err
	}
	f.file = nil
	if f.mode == model.CaptureCamera {
		f.state = StateViewfinder
		return nil
	}
	f.state = StateSelecting
	return nil
}

func (f *Flow) Confirm() error {
	if err := f.require("confirm", StatePreview); err != nil {
		return err
	}
	f.state = StateConfirmed
	return nil
}

// Submit hands the confirmed file to the OCR gateway.
func (f *Flow) Submit() error {
	if f.state == StateSubmitting {
		return ErrInFlight
	}
	if err := f.require("submit", StateConfirmed); err != nil {
		return err
	}
	f.state = StateSubmitting
	return nil
}

func (f *Flow) Succeed() error {
	if err := f.require("succeed", StateSubmitting); err != nil {
		return err
	}
	f.state = StateDone
	return nil
}

// Fail records the gateway error; Start may be called again afterwards.
func (f *Flow) Fail(err error) error {
	if e := f.require("fail", StateSubmitting); e != nil {
		return e
	}
	f.lastErr = err
	f.state = StateFailed
	return nil
}

// Cancel abandons the attempt from any state.
func (f *Flow) Cancel() {
	f.state, f.file, f.lastErr = StateIdle, nil, nil
}
