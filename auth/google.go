package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/memoriesapp/memories/client/internal/types"
)

// GoogleUserInfoURL is Google's OpenID Connect userinfo endpoint.
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleProvider runs the authorization-code flow against Google and turns
// the result into an IdentityResult.
type GoogleProvider struct {
	config      *oauth2.Config
	userinfo    *resty.Client
	userinfoURL string
}

// GoogleOption configures a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithEndpoint points the provider at another authorization server.
func WithEndpoint(ep oauth2.Endpoint) GoogleOption {
	return func(p *GoogleProvider) { p.config.Endpoint = ep }
}

// WithUserInfoURL overrides the userinfo endpoint.
func WithUserInfoURL(u string) GoogleOption {
	return func(p *GoogleProvider) { p.userinfoURL = u }
}

// NewGoogleProvider requests the openid, email and profile scopes.
func NewGoogleProvider(clientID, clientSecret, redirectURL string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userinfo: resty.New().
			SetHeader("Accept", "application/json").
			SetTimeout(10 * time.Second),
		userinfoURL: GoogleUserInfoURL,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// AuthURL is where the user is sent to consent. state must round-trip.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUser struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// Exchange trades an authorization code for the user's identity.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (IdentityResult, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return IdentityResult{}, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return IdentityResult{}, fmt.Errorf("auth: token response carried no id_token")
	}

	var u googleUser
	resp, err := p.userinfo.R().
		SetContext(ctx).
		SetAuthToken(tok.AccessToken).
		SetResult(&u).
		Get(p.userinfoURL)
	if err != nil {
		return IdentityResult{}, fmt.Errorf("auth: calling userinfo: %w", err)
	}
	if resp.IsError() {
		return IdentityResult{}, fmt.Errorf("auth: userinfo returned status %d", resp.StatusCode())
	}

	return IdentityResult{
		Profile: types.Profile{
			GoogleID:   u.Sub,
			Email:      u.Email,
			Name:       u.Name,
			GivenName:  u.GivenName,
			FamilyName: u.FamilyName,
			ImageURL:   u.Picture,
		},
		IDToken: idToken,
	}, nil
}

// SignIn completes the flow for code and reports the outcome to c: success
// establishes the session, failure shows the Google error notification.
func (p *GoogleProvider) SignIn(ctx context.Context, c *Controller, code string) error {
	res, err := p.Exchange(ctx, code)
	if err != nil {
		c.OnOAuthFailure(err)
		return err
	}
	return c.OnOAuthSuccess(ctx, res)
}
