package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/memoriesapp/memories/client/internal/errors"
	"github.com/memoriesapp/memories/client/internal/types"
)

// SignIn posts the credential form to /user/signin.
func SignIn(ctx context.Context, httpClient HTTPClient, baseURL string, form types.AuthForm) (*types.Session, error) {
	return submitAuth(ctx, httpClient, baseURL+"/user/signin", "sign in", form)
}

// SignUp posts the registration form (with optional picture) to /user/signup.
func SignUp(ctx context.Context, httpClient HTTPClient, baseURL string, form types.AuthForm) (*types.Session, error) {
	return submitAuth(ctx, httpClient, baseURL+"/user/signup", "sign up", form)
}

func submitAuth(ctx context.Context, httpClient HTTPClient, url, op string, form types.AuthForm) (*types.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, contentType, err := EncodeAuthForm(form)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := do(httpClient, req, op, http.StatusOK, http.StatusCreated)
	if err != nil {
		var ce *errors.ClassifiedError
		if errors.As(err, &ce) && ce.StatusCode > 0 {
			return nil, errors.NewAuthError(ce.StatusCode, ce.Body, op)
		}
		return nil, err
	}
	var s types.Session
	if err := decode(resp, op, &s); err != nil {
		return nil, err
	}
	if s.Token == "" {
		return nil, errors.NewNetworkError(op, fmt.Errorf("response carried no token"))
	}
	return &s, nil
}

// EncodeAuthForm builds the multipart body: one text part per field plus
// an optional "picture" file part.
func EncodeAuthForm(form types.AuthForm) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := []struct{ name, value string }{
		{"firstName", form.FirstName},
		{"lastName", form.LastName},
		{"email", form.Email},
		{"password", form.Password},
		{"confirmPassword", form.ConfirmPassword},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if pic := form.Picture; pic != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="picture"; filename=%q`, pic.Name))
		h.Set("Content-Type", pic.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(pic.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
