package form

import (
	"context"
	"fmt"
	"sync"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/shared"
)

// Mode is the tag of the dialog state
type Mode string

const (
	ModeClosed            Mode = "closed"
	ModeCreating          Mode = "creating"
	ModeEditing           Mode = "editing"
	ModeConfirmingDelete  Mode = "confirming_delete"
	ModeAdjustingQuantity Mode = "adjusting_quantity"
)

// ErrDialogBusy is returned when a submit is already in flight
var ErrDialogBusy = shared.NewDomainError("DIALOG_BUSY", "Dialog is already submitting")

// State is a snapshot of one entity dialog. Target is set in every mode except
// Closed and Creating; Draft is meaningful in Creating and Editing; Adjustment
// and Direction in AdjustingQuantity.
type State[T catalog.Record, R any] struct {
	Mode        Mode                       `json:"mode"`
	Target      *T                         `json:"target,omitempty"`
	Draft       R                          `json:"draft"`
	Adjustment  catalog.QuantityAdjustment `json:"adjustment"`
	Direction   catalog.AdjustDirection    `json:"direction,omitempty"`
	Errors      ValidationErrors           `json:"errors,omitempty"`
	Submitting  bool                       `json:"submitting"`
	ConfirmText string                     `json:"confirmText,omitempty"`
}

// Submission is what a submit hands to the mutation call
type Submission[T catalog.Record, R any] struct {
	Mode       Mode
	Target     *T
	Draft      R
	Adjustment catalog.QuantityAdjustment
	Direction  catalog.AdjustDirection
}

// TargetID returns the id of the record being edited, deleted or adjusted
func (s Submission[T, R]) TargetID() int64 {
	if s.Target == nil {
		return 0
	}
	return (*s.Target).RecordID()
}

// SubmitFunc performs the network call of a submission
type SubmitFunc[T catalog.Record, R any] func(ctx context.Context, sub Submission[T, R]) error

// DeleteConfirmText is the question shown before deleting a record
func DeleteConfirmText(name string) string {
	return fmt.Sprintf("Вы уверены, что хотите удалить «%s»?", name)
}

// Dialog is the create/edit/delete/adjust dialog of one entity page. Only one
// mode is active at a time and a new dialog can only open from Closed.
type Dialog[T catalog.Record, R any] struct {
	mu        sync.Mutex
	validator *Validator
	newDraft  func() R
	toDraft   func(T) R
	state     State[T, R]
	// seq changes on every transition so a submit finishing after the dialog
	// moved on leaves the new state alone
	seq uint64
}

// NewDialog creates a closed dialog. newDraft returns the defaults of a create
// draft, toDraft copies a record into an edit draft.
func NewDialog[T catalog.Record, R any](v *Validator, newDraft func() R, toDraft func(T) R) *Dialog[T, R] {
	if v == nil {
		v = NewValidator()
	}
	d := &Dialog[T, R]{validator: v, newDraft: newDraft, toDraft: toDraft}
	d.resetLocked()
	return d
}

// State returns a copy of the current state
func (d *Dialog[T, R]) State() State[T, R] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.copyLocked()
}

// OpenCreate moves Closed -> Creating with an empty draft
func (d *Dialog[T, R]) OpenCreate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireClosedLocked(); err != nil {
		return err
	}
	d.transitionLocked(ModeCreating, nil)
	d.state.Draft = d.newDraft()
	return nil
}

// OpenEdit moves Closed -> Editing with a copy of record as the draft
func (d *Dialog[T, R]) OpenEdit(record T) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireClosedLocked(); err != nil {
		return err
	}
	d.transitionLocked(ModeEditing, &record)
	d.state.Draft = d.toDraft(record)
	return nil
}

// OpenDelete moves Closed -> ConfirmingDelete for record
func (d *Dialog[T, R]) OpenDelete(record T) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireClosedLocked(); err != nil {
		return err
	}
	d.transitionLocked(ModeConfirmingDelete, &record)
	d.state.ConfirmText = DeleteConfirmText(record.DisplayName())
	return nil
}

// OpenAdjust moves Closed -> AdjustingQuantity for record
func (d *Dialog[T, R]) OpenAdjust(record T, direction catalog.AdjustDirection) error {
	if direction != catalog.AdjustAdd && direction != catalog.AdjustRemove {
		return shared.NewDomainError("INVALID_DIRECTION", fmt.Sprintf("unknown adjust direction %q", direction))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireClosedLocked(); err != nil {
		return err
	}
	d.transitionLocked(ModeAdjustingQuantity, &record)
	d.state.Direction = direction
	d.state.Adjustment = catalog.QuantityAdjustment{Quantity: 1}
	return nil
}

// SetDraft replaces the draft and revalidates it, as on every keystroke
func (d *Dialog[T, R]) SetDraft(draft R) (ValidationErrors, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Mode != ModeCreating && d.state.Mode != ModeEditing {
		return nil, d.invalidModeLocked("edit draft")
	}
	if d.state.Submitting {
		return nil, ErrDialogBusy
	}
	d.state.Draft = draft
	d.state.Errors = d.validator.Struct(draft)
	return d.state.Errors, nil
}

// SetAdjustment replaces the quantity of the adjust dialog and revalidates it
func (d *Dialog[T, R]) SetAdjustment(quantity int) (ValidationErrors, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Mode != ModeAdjustingQuantity {
		return nil, d.invalidModeLocked("set quantity")
	}
	if d.state.Submitting {
		return nil, ErrDialogBusy
	}
	d.state.Adjustment = catalog.QuantityAdjustment{Quantity: quantity}
	d.state.Errors = d.validator.Struct(d.state.Adjustment)
	return d.state.Errors, nil
}

// Close returns to Closed from any mode
func (d *Dialog[T, R]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
}

// Submit validates the draft and, when it is valid, runs fn with the submission.
// A draft failing validation never reaches fn: the errors are stored on the state
// and returned as ValidationErrors. On success the dialog closes; when fn fails
// the dialog stays open with its draft and the error is returned.
func (d *Dialog[T, R]) Submit(ctx context.Context, fn SubmitFunc[T, R]) error {
	d.mu.Lock()
	if d.state.Mode == ModeClosed {
		err := d.invalidModeLocked("submit")
		d.mu.Unlock()
		return err
	}
	if d.state.Submitting {
		d.mu.Unlock()
		return ErrDialogBusy
	}

	var errs ValidationErrors
	switch d.state.Mode {
	case ModeCreating, ModeEditing:
		errs = d.validator.Struct(d.state.Draft)
	case ModeAdjustingQuantity:
		errs = d.validator.Struct(d.state.Adjustment)
	}
	d.state.Errors = errs
	if len(errs) > 0 {
		d.mu.Unlock()
		return errs
	}

	sub := Submission[T, R]{
		Mode:       d.state.Mode,
		Target:     d.state.Target,
		Draft:      d.state.Draft,
		Adjustment: d.state.Adjustment,
		Direction:  d.state.Direction,
	}
	d.state.Submitting = true
	seq := d.seq
	d.mu.Unlock()

	err := fn(ctx, sub)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seq != seq {
		return err
	}
	d.state.Submitting = false
	if err == nil {
		d.resetLocked()
	}
	return err
}

func (d *Dialog[T, R]) requireClosedLocked() error {
	if d.state.Mode != ModeClosed {
		return d.invalidModeLocked("open dialog")
	}
	return nil
}

func (d *Dialog[T, R]) invalidModeLocked(action string) error {
	return shared.NewDomainError("INVALID_STATE",
		fmt.Sprintf("cannot %s while dialog is %s", action, d.state.Mode))
}

func (d *Dialog[T, R]) transitionLocked(mode Mode, target *T) {
	d.seq++
	var zero R
	d.state = State[T, R]{Mode: mode, Target: target, Draft: zero}
}

func (d *Dialog[T, R]) resetLocked() {
	d.transitionLocked(ModeClosed, nil)
}

func (d *Dialog[T, R]) copyLocked() State[T, R] {
	s := d.state
	if s.Target != nil {
		t := *s.Target
		s.Target = &t
	}
	if s.Errors != nil {
		s.Errors = make(ValidationErrors, len(d.state.Errors))
		for k, v := range d.state.Errors {
			s.Errors[k] = v
		}
	}
	return s
}
