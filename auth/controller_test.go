package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkerrors "github.com/memoriesapp/memories/client/internal/errors"
	"github.com/memoriesapp/memories/client/internal/types"
	"github.com/memoriesapp/memories/client/notify"
	"github.com/memoriesapp/memories/client/query"
	"github.com/memoriesapp/memories/client/session"
)

var (
	pngData  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	jpegData = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	gifData  = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00")
)

type fakeRemote struct {
	mu      sync.Mutex
	err     error
	session *types.Session
	block   chan struct{}
	forms   []types.AuthForm
	modes   []Mode
}

func (r *fakeRemote) handle(ctx context.Context, mode Mode, form types.AuthForm) (*types.Session, error) {
	r.mu.Lock()
	r.forms = append(r.forms, form)
	r.modes = append(r.modes, mode)
	block := r.block
	r.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, sdkerrors.NewNetworkError("auth", ctx.Err())
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.session, nil
}

func (r *fakeRemote) SignIn(ctx context.Context, f types.AuthForm) (*types.Session, error) {
	return r.handle(ctx, ModeSignIn, f)
}

func (r *fakeRemote) SignUp(ctx context.Context, f types.AuthForm) (*types.Session, error) {
	return r.handle(ctx, ModeSignUp, f)
}

type navRecorder struct {
	mu        sync.Mutex
	addresses []string
}

func (n *navRecorder) Navigate(a string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.addresses = append(n.addresses, a)
}

type fixture struct {
	c        *Controller
	remote   *fakeRemote
	sessions *session.Manager
	nav      *navRecorder
	notes    *notify.Controller
	previews *MemoryPreviews
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		remote:   &fakeRemote{session: &types.Session{Result: types.Profile{ID: "u1", Email: "ada@example.com"}, Token: "tok"}},
		sessions: session.NewManager(&session.MemoryStore{}),
		nav:      &navRecorder{},
		notes:    notify.New(notify.WithAutoDismiss(0)),
		previews: NewMemoryPreviews(),
	}
	require.NoError(t, f.sessions.Init(context.Background()))
	f.c = New(f.remote, f.sessions, f.nav, f.notes, WithPreviewStore(f.previews))
	return f
}

func (f *fixture) fill(t *testing.T, fields map[string]string) {
	t.Helper()
	for k, v := range fields {
		require.NoError(t, f.c.SetField(k, v))
	}
}

func (f *fixture) messages(sev notify.Severity) []string {
	var out []string
	for _, n := range f.notes.Active() {
		if n.Severity == sev {
			out = append(out, n.Message)
		}
	}
	return out
}

var signUpFields = map[string]string{
	FieldFirstName: "Ada", FieldLastName: "Lovelace", FieldEmail: "ada@example.com",
	FieldPassword: "pw", FieldConfirmPassword: "pw",
}

func TestSwitchMode_KeepsFieldsResetsVisibility(t *testing.T) {
	f := newFixture(t)
	f.fill(t, map[string]string{FieldEmail: "a@b.c"})
	assert.True(t, f.c.ToggleShowPassword())

	assert.Equal(t, ModeSignUp, f.c.SwitchMode())
	assert.False(t, f.c.ShowPassword())
	assert.Equal(t, "a@b.c", f.c.Form().Email)
	assert.Equal(t, ModeSignIn, f.c.SwitchMode())
}

func TestSetField_Unknown(t *testing.T) {
	f := newFixture(t)
	err := f.c.SetField("nickname", "x")
	assert.Equal(t, sdkerrors.KindValidation, sdkerrors.KindOf(err))
}

func TestSelectImage(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.c.SelectImage(types.ImageFile{Name: "a.png", Data: pngData}))
	first := f.c.Preview()
	assert.NotEmpty(t, first)
	assert.Equal(t, "image/png", f.c.Form().Picture.ContentType)

	require.NoError(t, f.c.SelectImage(types.ImageFile{Name: "b.jpg", Data: jpegData}))
	second := f.c.Preview()
	assert.NotEqual(t, first, second)
	_, live := f.previews.Get(first)
	assert.False(t, live, "replaced preview must be revoked")
	assert.Equal(t, 1, f.previews.Live())
	assert.Equal(t, "image/jpeg", f.c.Form().Picture.ContentType)

	assert.Error(t, f.c.SelectImage(types.ImageFile{Name: "c.gif", Data: gifData}))
	assert.Error(t, f.c.SelectImage())
	assert.Error(t, f.c.SelectImage(types.ImageFile{Data: pngData}, types.ImageFile{Data: pngData}))
	assert.Equal(t, second, f.c.Preview(), "rejected files leave the selection alone")

	f.c.Reset()
	assert.Empty(t, f.c.Preview())
	assert.Nil(t, f.c.Form().Picture)
	assert.Zero(t, f.previews.Live())
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	f.fill(t, map[string]string{FieldEmail: "ada@example.com", FieldPassword: "pw"})
	assert.NoError(t, f.c.Validate(), "sign-in needs only email and password")

	f.c.SwitchMode()
	err := f.c.Validate()
	require.Error(t, err)
	assert.Equal(t, "First name is required.", sdkerrors.ReasonOf(err))

	f.fill(t, signUpFields)
	require.NoError(t, f.c.SetField(FieldConfirmPassword, "other"))
	assert.Equal(t, "Passwords do not match.", sdkerrors.ReasonOf(f.c.Validate()))

	require.NoError(t, f.c.SetField(FieldEmail, "not-an-email"))
	assert.Equal(t, "Please enter a valid email address.", sdkerrors.ReasonOf(f.c.Validate()))
}

func TestSubmit_ValidationFailureSkipsRemote(t *testing.T) {
	f := newFixture(t)
	require.Error(t, f.c.Submit(context.Background()))
	assert.Empty(t, f.remote.forms)
	assert.Equal(t, []string{"Email is required."}, f.messages(notify.SeverityError))
}

func TestSubmit_SignUpSuccess(t *testing.T) {
	f := newFixture(t)
	f.c.SwitchMode()
	f.fill(t, signUpFields)
	require.NoError(t, f.c.SelectImage(types.ImageFile{Name: "me.png", Data: pngData}))

	require.NoError(t, f.c.Submit(context.Background()))

	require.Len(t, f.remote.forms, 1)
	assert.Equal(t, ModeSignUp, f.remote.modes[0])
	assert.Equal(t, "Ada", f.remote.forms[0].FirstName)
	require.NotNil(t, f.remote.forms[0].Picture)
	assert.Equal(t, "u1", f.sessions.UserID())
	assert.Equal(t, "tok", f.sessions.Token())
	assert.Equal(t, []string{query.RootPath}, f.nav.addresses)
	assert.Empty(t, f.notes.Active(), "please-wait is retracted")
	assert.Zero(t, f.previews.Live())
}

func TestSubmit_PleaseWaitWhileInFlight(t *testing.T) {
	f := newFixture(t)
	f.fill(t, map[string]string{FieldEmail: "ada@example.com", FieldPassword: "pw"})
	f.remote.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- f.c.Submit(context.Background()) }()

	require.Eventually(t, func() bool {
		return len(f.messages(notify.SeverityInfo)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{MsgPleaseWait}, f.messages(notify.SeverityInfo))
	assert.ErrorIs(t, f.c.Submit(context.Background()), ErrSubmitPending)

	close(f.remote.block)
	require.NoError(t, <-done)
	assert.Empty(t, f.messages(notify.SeverityInfo))
}

func TestSubmit_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		mode   Mode
		status int
		reason string
		want   string
	}{
		{"duplicate sign-up", ModeSignUp, http.StatusBadRequest, ReasonUserExists, MsgEmailInUse},
		{"bad credentials", ModeSignIn, http.StatusBadRequest, ReasonInvalidCredentials, MsgBadLogin},
		{"unknown user", ModeSignIn, http.StatusNotFound, "User doesn't exist", MsgGeneric},
		{"reason from other mode", ModeSignIn, http.StatusBadRequest, ReasonUserExists, MsgGeneric},
		{"server error", ModeSignUp, http.StatusInternalServerError, "boom", MsgGeneric},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			if c.mode == ModeSignUp {
				f.c.SwitchMode()
			}
			f.fill(t, signUpFields)
			f.remote.err = sdkerrors.NewAuthError(c.status, `{"message":"`+c.reason+`"}`, "auth")

			require.Error(t, f.c.Submit(context.Background()))
			assert.Equal(t, []string{c.want}, f.messages(notify.SeverityError))
			assert.Empty(t, f.messages(notify.SeverityInfo))
			_, ok := f.sessions.Current()
			assert.False(t, ok)
			assert.Empty(t, f.nav.addresses)
		})
	}
}

func TestSubmit_TimeoutIsGeneric(t *testing.T) {
	f := newFixture(t)
	WithRequestTimeout(10 * time.Millisecond)(f.c)
	f.fill(t, map[string]string{FieldEmail: "ada@example.com", FieldPassword: "pw"})
	f.remote.block = make(chan struct{})
	defer close(f.remote.block)

	require.Error(t, f.c.Submit(context.Background()))
	assert.Equal(t, []string{MsgGeneric}, f.messages(notify.SeverityError))
}

func TestMessageFor_NetworkError(t *testing.T) {
	assert.Equal(t, MsgGeneric, MessageFor(ModeSignIn, errors.New("connection reset")))
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func TestOnOAuthSuccess_DerivesGoogleID(t *testing.T) {
	f := newFixture(t)
	tok := signedToken(t, jwt.MapClaims{"sub": "g-123", "email": "ada@gmail.com", "name": "Ada"})

	require.NoError(t, f.c.OnOAuthSuccess(context.Background(), IdentityResult{Profile: types.Profile{Name: "Countess"}, IDToken: tok}))

	s, ok := f.sessions.Current()
	require.True(t, ok)
	assert.Equal(t, "g-123", s.Result.GoogleID)
	assert.Equal(t, "Countess", s.Result.Name, "provider profile wins over claims")
	assert.Equal(t, "ada@gmail.com", s.Result.Email)
	assert.Equal(t, tok, s.Token)
	assert.Equal(t, []string{query.RootPath}, f.nav.addresses)
	assert.Empty(t, f.remote.forms, "identity sign-in bypasses the form")
}

func TestOnOAuthSuccess_UnusableResultNotifies(t *testing.T) {
	f := newFixture(t)
	require.Error(t, f.c.OnOAuthSuccess(context.Background(), IdentityResult{IDToken: "garbage"}))
	assert.Equal(t, []string{MsgGoogleFailed}, f.messages(notify.SeverityError))
	assert.Empty(t, f.nav.addresses)
}

func TestOnOAuthFailure_Notifies(t *testing.T) {
	f := newFixture(t)
	f.c.OnOAuthFailure(errors.New("popup closed"))
	assert.Equal(t, []string{MsgGoogleFailed}, f.messages(notify.SeverityError))
}
