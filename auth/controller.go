// Package auth drives the sign-in / sign-up form and the identity-provider
// callbacks. Every successful path ends in one session Establish call.
package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"

	"github.com/memoriesapp/memories/client/internal/errors"
	"github.com/memoriesapp/memories/client/internal/types"
	"github.com/memoriesapp/memories/client/notify"
	"github.com/memoriesapp/memories/client/query"
)

// Mode selects which remote operation Submit calls.
type Mode int

const (
	ModeSignIn Mode = iota
	ModeSignUp
)

func (m Mode) String() string {
	if m == ModeSignUp {
		return "signup"
	}
	return "signin"
}

// Form field names accepted by SetField.
const (
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// DefaultRequestTimeout bounds one sign-in or sign-up call.
const DefaultRequestTimeout = 15 * time.Second

// ErrSubmitPending is returned when Submit is called while another
// submission is in flight.
var ErrSubmitPending = stderrors.New("auth: submission already in progress")

// Remote performs the credential operations.
type Remote interface {
	SignIn(ctx context.Context, form types.AuthForm) (*types.Session, error)
	SignUp(ctx context.Context, form types.AuthForm) (*types.Session, error)
}

// Establisher activates a session; *session.Manager implements it.
type Establisher interface {
	Establish(ctx context.Context, result types.Profile, token string) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithPreviewStore replaces the in-memory preview store.
func WithPreviewStore(p PreviewStore) Option {
	return func(c *Controller) { c.previews = p }
}

// WithRequestTimeout bounds each credential call.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Controller holds the form state. It is safe for concurrent use.
type Controller struct {
	remote   Remote
	sessions Establisher
	nav      query.Navigator
	notes    notify.Sink
	previews PreviewStore
	timeout  time.Duration

	mu           sync.Mutex
	mode         Mode
	form         types.AuthForm
	showPassword bool
	preview      string
	pending      bool
}

// New builds a Controller in sign-in mode.
func New(remote Remote, sessions Establisher, nav query.Navigator, notes notify.Sink, opts ...Option) *Controller {
	c := &Controller{
		remote:   remote,
		sessions: sessions,
		nav:      nav,
		notes:    notes,
		previews: NewMemoryPreviews(),
		timeout:  DefaultRequestTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) ShowPassword() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showPassword
}

// Preview is the display reference of the selected picture, or "".
func (c *Controller) Preview() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

// Form returns a copy of the current field values.
func (c *Controller) Form() types.AuthForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// SwitchMode flips between sign-in and sign-up and hides the password.
// Entered values are kept.
func (c *Controller) SwitchMode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeSignIn {
		c.mode = ModeSignUp
	} else {
		c.mode = ModeSignIn
	}
	c.showPassword = false
	return c.mode
}

func (c *Controller) ToggleShowPassword() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showPassword = !c.showPassword
	return c.showPassword
}

// SetField sets one named form field.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch name {
	case FieldFirstName:
		c.form.FirstName = value
	case FieldLastName:
		c.form.LastName = value
	case FieldEmail:
		c.form.Email = value
	case FieldPassword:
		c.form.Password = value
	case FieldConfirmPassword:
		c.form.ConfirmPassword = value
	default:
		return errors.NewValidationError(name, fmt.Sprintf("unknown field %q", name))
	}
	return nil
}

// SelectImage accepts exactly one JPEG or PNG file, detected from its
// content. The previous picture's preview is revoked before the new one is
// created.
func (c *Controller) SelectImage(files ...types.ImageFile) error {
	if len(files) != 1 {
		return errors.NewValidationError("picture", "Please select a single image.")
	}
	img := files[0]
	mt := mimetype.Detect(img.Data)
	if !mt.Is("image/jpeg") && !mt.Is("image/png") {
		return errors.NewValidationError("picture", "Only JPEG and PNG images are accepted.")
	}
	img.ContentType = mt.String()
	img.Data = append([]byte(nil), img.Data...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.preview != "" {
		c.previews.Revoke(c.preview)
	}
	c.form.Picture = &img
	c.preview = c.previews.Create(img)
	return nil
}

// Reset clears every field and the picture, revoking its preview. The mode
// is kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	if c.preview != "" {
		c.previews.Revoke(c.preview)
	}
	c.form = types.AuthForm{}
	c.preview = ""
	c.showPassword = false
}

// Validate checks the fields the current mode needs.
func (c *Controller) Validate() error {
	c.mu.Lock()
	mode, form := c.mode, c.form
	c.mu.Unlock()
	return validate(mode, form)
}

func validate(mode Mode, f types.AuthForm) error {
	if mode == ModeSignUp {
		if strings.TrimSpace(f.FirstName) == "" {
			return errors.NewValidationError(FieldFirstName, "First name is required.")
		}
		if strings.TrimSpace(f.LastName) == "" {
			return errors.NewValidationError(FieldLastName, "Last name is required.")
		}
	}
	if strings.TrimSpace(f.Email) == "" {
		return errors.NewValidationError(FieldEmail, "Email is required.")
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return errors.NewValidationError(FieldEmail, "Please enter a valid email address.")
	}
	if f.Password == "" {
		return errors.NewValidationError(FieldPassword, "Password is required.")
	}
	if mode == ModeSignUp && f.ConfirmPassword != f.Password {
		return errors.NewValidationError(FieldConfirmPassword, "Passwords do not match.")
	}
	return nil
}

// Submit validates the form and sends it to sign-in or sign-up. A "please
// wait" notification is shown for the duration of the call. On success the
// session is established, the form is reset and the feed root is opened.
// Every failure is shown as one error notification and also returned.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrSubmitPending
	}
	mode, form := c.mode, c.form
	c.pending = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	}()

	if err := validate(mode, form); err != nil {
		c.notes.Error(errors.ReasonOf(err))
		return err
	}

	wait := c.notes.Info(MsgPleaseWait)
	sess, err := c.call(ctx, mode, form)
	c.notes.Retract(wait)
	if err != nil {
		log.Error().Err(err).Str("mode", mode.String()).Str("reason", errors.ReasonOf(err)).Msg("auth submission failed")
		c.notes.Error(MessageFor(mode, err))
		return err
	}

	if err := c.sessions.Establish(ctx, sess.Result, sess.Token); err != nil {
		log.Error().Err(err).Str("mode", mode.String()).Msg("could not establish session")
		c.notes.Error(MsgGeneric)
		return err
	}
	c.Reset()
	c.navigateHome()
	return nil
}

func (c *Controller) call(ctx context.Context, mode Mode, form types.AuthForm) (*types.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if mode == ModeSignUp {
		return c.remote.SignUp(ctx, form)
	}
	return c.remote.SignIn(ctx, form)
}

func (c *Controller) navigateHome() {
	if c.nav != nil {
		c.nav.Navigate(query.RootPath)
	}
}
