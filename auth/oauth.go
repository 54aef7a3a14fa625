package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/memoriesapp/memories/client/internal/types"
)

// IdentityResult is what an identity provider hands back on success.
type IdentityResult struct {
	Profile types.Profile
	IDToken string
}

// OnOAuthSuccess establishes a session from an identity-provider result.
// Profile fields the provider left empty are filled from the identity
// token's claims. The token is not verified here; the service does that.
func (c *Controller) OnOAuthSuccess(ctx context.Context, res IdentityResult) error {
	p := res.Profile
	fillFromIDToken(&p, res.IDToken)
	if err := c.sessions.Establish(ctx, p, res.IDToken); err != nil {
		c.OnOAuthFailure(err)
		return err
	}
	c.navigateHome()
	return nil
}

// OnOAuthFailure logs the provider error and tells the user.
func (c *Controller) OnOAuthFailure(err error) {
	log.Error().Err(err).Msg("google sign in failed")
	c.notes.Error(MsgGoogleFailed)
}

func fillFromIDToken(p *types.Profile, idToken string) {
	if idToken == "" {
		return
	}
	tok, _, err := jwt.NewParser().ParseUnverified(idToken, jwt.MapClaims{})
	if err != nil {
		log.Warn().Err(err).Msg("unreadable identity token")
		return
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return
	}
	if p.GoogleID == "" {
		p.GoogleID, _ = claims.GetSubject()
	}
	setIfEmpty(&p.Email, claims, "email")
	setIfEmpty(&p.Name, claims, "name")
	setIfEmpty(&p.GivenName, claims, "given_name")
	setIfEmpty(&p.FamilyName, claims, "family_name")
	setIfEmpty(&p.ImageURL, claims, "picture")
}

func setIfEmpty(dst *string, claims jwt.MapClaims, key string) {
	if *dst != "" {
		return
	}
	if v, ok := claims[key].(string); ok {
		*dst = v
	}
}
