// Package formstate tracks a draft record together with its submission
// status and per-field errors, independent of how the form is rendered.
package formstate

import (
	"context"
	"errors"
	"sync"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

// FieldErrorer is implemented by errors that carry per-field messages,
// such as validation failures and backend rejections.
type FieldErrorer interface {
	FieldErrors() map[string]string
}

// Form holds a draft of shape R. All methods are safe for concurrent use.
type Form[R ~map[string]any] struct {
	mu         sync.Mutex
	initial    R
	data       R
	submitting bool
	errors     map[string]string
}

// New creates a form seeded with a deep copy of initial. A nil initial
// starts from an empty draft.
func New[R ~map[string]any](initial R) *Form[R] {
	f := &Form[R]{}
	f.Load(initial)
	return f
}

// Load replaces the initial record and resets the draft to it.
func (f *Form[R]) Load(initial R) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initial = clone(initial)
	f.data = clone(initial)
	f.errors = map[string]string{}
}

// Update sets one field and clears its error.
func (f *Form[R]) Update(key string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	delete(f.errors, key)
}

// UpdateFields merges several fields at once. Errors are left as they are.
func (f *Form[R]) UpdateFields(updates R) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range models.Record(updates).Clone() {
		f.data[k] = v
	}
}

// Reset discards edits and errors and returns to the initial record.
func (f *Form[R]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = clone(f.initial)
	f.errors = map[string]string{}
}

// Data returns a deep copy of the draft.
func (f *Form[R]) Data() R {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(f.data)
}

// IsSubmitting reports whether Submit is running.
func (f *Form[R]) IsSubmitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Errors returns a copy of the current field errors.
func (f *Form[R]) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyErrors(f.errors)
}

// SetErrors replaces the field errors.
func (f *Form[R]) SetErrors(errs map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = copyErrors(errs)
}

// Submit clears the errors and runs handler on a copy of the draft. If the
// handler fails with an error carrying field errors they are stored on the
// form. The handler's error is always returned unchanged. Submit does not
// stop a second concurrent call.
func (f *Form[R]) Submit(ctx context.Context, handler func(ctx context.Context, data R) error) error {
	if handler == nil {
		return nil
	}

	f.mu.Lock()
	f.submitting = true
	f.errors = map[string]string{}
	data := clone(f.data)
	f.mu.Unlock()

	err := handler(ctx, data)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	var fe FieldErrorer
	if errors.As(err, &fe) {
		if fields := fe.FieldErrors(); len(fields) > 0 {
			f.errors = copyErrors(fields)
		}
	}
	return err
}

func clone[R ~map[string]any](r R) R {
	out := R(models.Record(r).Clone())
	if out == nil {
		out = R{}
	}
	return out
}

func copyErrors(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
