// Package editor implements the entity-editing controller shared by every
// configuration command: open a create or edit session, change fields,
// save through the matching remote call, and delete behind a confirmation.
//
// A session is a small state machine:
//
//	CLOSED --OpenModal--> OPEN --HandleSave ok--> CLOSED
//	OPEN --UpdateFormData / HandleSave failed--> OPEN
//	OPEN --CloseModal--> CLOSED
//
// HandleDelete does not touch the session.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/confirm"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/events"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/formstate"
	inthttp "github.com/MurLoper/structsim-ai-platform-sub001/internal/http"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/logging"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/notify"
)

var (
	// ErrNoSession is returned by HandleSave when no modal is open.
	ErrNoSession = errors.New("no entity is being edited")
	// ErrUnknownKind is returned for a kind without a descriptor.
	ErrUnknownKind = errors.New("unknown entity kind")
)

// Toast messages.
const (
	msgCreated     = "创建成功"
	msgUpdated     = "更新成功"
	msgDeleted     = "删除成功"
	msgSaveFailed  = "保存失败"
	msgDelFailed   = "删除失败"
	msgStaleList   = "操作已成功，但列表刷新失败，数据可能不是最新"
	msgDeleteTitle = "删除确认"
)

// Options configures a Controller. Every field is optional.
type Options struct {
	Notifier  notify.Notifier
	Confirmer confirm.Confirmer
	Bus       *events.EventBus
	Logger    *logging.Logger
	// RefreshRetry controls how a failed post-mutation refresh is retried.
	// Defaults to inthttp.DefaultConfig().
	RefreshRetry *inthttp.Config
}

// Controller owns at most one editing session at a time. It serialises its
// own state but does not stop concurrent saves; callers that must not
// double-submit check IsSubmitting first.
type Controller struct {
	descriptors map[models.Kind]Descriptor
	notifier    notify.Notifier
	confirmer   confirm.Confirmer
	bus         *events.EventBus
	logger      *logging.Logger
	retry       inthttp.Config

	mu      sync.Mutex
	open    bool
	kind    models.Kind
	editing models.Record
	form    *formstate.Form[models.Record]
}

// New creates a controller over the given descriptor table. Without a
// Confirmer every delete is declined.
func New(descriptors map[models.Kind]Descriptor, opts Options) *Controller {
	c := &Controller{
		descriptors: descriptors,
		notifier:    opts.Notifier,
		confirmer:   opts.Confirmer,
		bus:         opts.Bus,
		logger:      opts.Logger,
		retry:       inthttp.DefaultConfig(),
		form:        formstate.New[models.Record](nil),
	}
	if c.notifier == nil {
		c.notifier = notify.Multi{}
	}
	if c.confirmer == nil {
		c.confirmer = confirm.Deny{}
	}
	if c.logger == nil {
		c.logger = logging.Nop()
	}
	c.logger = c.logger.Component("editor")
	if opts.RefreshRetry != nil {
		c.retry = *opts.RefreshRetry
	}
	return c
}

// OpenModal starts a session for kind. With a nil item the draft is the
// kind's default record and saving creates; otherwise the draft is a deep
// copy of item and saving updates it when it has an id. An open session is
// replaced.
func (c *Controller) OpenModal(kind models.Kind, item models.Record) error {
	desc, ok := c.descriptors[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	seed := desc.Defaults
	if item != nil {
		seed = item
	}

	c.mu.Lock()
	c.open = true
	c.kind = kind
	c.editing = item.Clone()
	c.form = formstate.New(seed)
	c.mu.Unlock()

	id, _ := item.ID()
	c.logger.Debug().Str("kind", kind.String()).Int64("id", id).Msg("session opened")
	c.bus.PublishSessionChanged(kind, true, id)
	return nil
}

// UpdateFormData sets one field of the draft. Nothing is validated here.
// Without an open session the call is ignored.
func (c *Controller) UpdateFormData(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return
	}
	c.form.Update(key, value)
}

// HandleSave validates the draft and sends it: an update when the edited
// item has an id, a create otherwise. On success it shows a success toast,
// refreshes the kind's store once and closes the session. On failure the
// session and the draft are kept, one error toast is shown and the error
// is returned.
func (c *Controller) HandleSave(ctx context.Context) error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return ErrNoSession
	}
	kind, editing, form := c.kind, c.editing, c.form
	c.mu.Unlock()

	desc := c.descriptors[kind]
	id, isUpdate := editing.ID()

	var saved models.Record
	err := form.Submit(ctx, func(ctx context.Context, data models.Record) error {
		if err := desc.validate(data); err != nil {
			return err
		}
		var err error
		if isUpdate {
			saved, err = desc.Update(ctx, id, data)
		} else {
			saved, err = desc.Create(ctx, data)
		}
		return err
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("kind", kind.String()).Int64("id", id).Msg("save failed")
		c.notifier.Show(notify.Error, failureMessage(err, msgSaveFailed))
		return fmt.Errorf("save %s: %w", desc.Label, err)
	}

	if !isUpdate {
		id, _ = saved.ID()
	}
	if isUpdate {
		c.notifier.Show(notify.Success, msgUpdated)
	} else {
		c.notifier.Show(notify.Success, msgCreated)
	}
	c.bus.PublishEntitySaved(kind, id, !isUpdate)
	c.refresh(ctx, kind, desc)

	c.mu.Lock()
	if c.form == form {
		c.closeLocked()
	}
	c.mu.Unlock()
	return nil
}

// CloseModal ends the session and discards the draft. Safe to call when
// nothing is open.
func (c *Controller) CloseModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) closeLocked() {
	wasOpen := c.open
	kind := c.kind
	c.open = false
	c.editing = nil
	c.form = formstate.New[models.Record](nil)
	if wasOpen {
		c.bus.PublishSessionChanged(kind, false, 0)
	}
}

// HandleDelete asks for confirmation and, once approved, deletes the
// record and refreshes the kind's store once. Declining sends nothing and
// returns (false, nil). A failed delete shows an error toast and is not
// retried.
func (c *Controller) HandleDelete(ctx context.Context, kind models.Kind, id int64, name string) (bool, error) {
	desc, ok := c.descriptors[kind]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var (
		approved bool
		err      error
	)
	message := fmt.Sprintf("确定要删除 %q 吗？", name)
	c.confirmer.Confirm(msgDeleteTitle, message, func() {
		approved = true
		err = desc.Delete(ctx, id)
	}, confirm.Danger)

	if !approved {
		c.logger.Debug().Str("kind", kind.String()).Int64("id", id).Msg("delete declined")
		return false, nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("kind", kind.String()).Int64("id", id).Msg("delete failed")
		c.notifier.Show(notify.Error, failureMessage(err, msgDelFailed))
		return false, fmt.Errorf("delete %s %d: %w", desc.Label, id, err)
	}

	c.notifier.Show(notify.Success, msgDeleted)
	c.bus.PublishEntityDeleted(kind, id, name)
	c.refresh(ctx, kind, desc)
	return true, nil
}

// refresh reloads the kind's list after a successful mutation. Retryable
// failures are retried with backoff; if the list still cannot be loaded the
// user is told it may be stale and the mutation still counts as done.
func (c *Controller) refresh(ctx context.Context, kind models.Kind, desc Descriptor) {
	if desc.Refresh == nil {
		return
	}
	cfg := c.retry
	cfg.OnRetry = func(attempt int, err error, errType inthttp.ErrorType) {
		c.logger.Debug().Err(err).Int("attempt", attempt).
			Str("class", inthttp.ErrorTypeName(errType)).
			Str("kind", kind.String()).Msg("retrying list refresh")
	}
	err := inthttp.ExecuteWithRetry(ctx, cfg, func() error {
		return desc.Refresh(ctx)
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("kind", kind.String()).Msg("list refresh failed after mutation")
		c.notifier.Show(notify.Info, msgStaleList)
	}
}

// IsSubmitting reports whether a save is in flight.
func (c *Controller) IsSubmitting() bool {
	c.mu.Lock()
	form := c.form
	c.mu.Unlock()
	return form.IsSubmitting()
}

// ModalOpen reports whether a session is open.
func (c *Controller) ModalOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// ModalType returns the kind of the open session, or "" when closed.
func (c *Controller) ModalType() models.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ""
	}
	return c.kind
}

// EditingItem returns a copy of the record being edited, or nil when
// creating or closed.
func (c *Controller) EditingItem() models.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing.Clone()
}

// FormData returns a copy of the draft.
func (c *Controller) FormData() models.Record {
	c.mu.Lock()
	form := c.form
	c.mu.Unlock()
	return form.Data()
}

// FieldErrors returns the field errors of the last failed save.
func (c *Controller) FieldErrors() map[string]string {
	c.mu.Lock()
	form := c.form
	c.mu.Unlock()
	return form.Errors()
}

// failureMessage picks the text of an error toast.
func failureMessage(err error, fallback string) string {
	var verr *formstate.ValidationError
	if errors.As(err, &verr) {
		return "请检查表单输入: " + verr.Summary()
	}
	var se interface{ UserMessage() string }
	if errors.As(err, &se) {
		if msg := se.UserMessage(); msg != "" {
			return msg
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
