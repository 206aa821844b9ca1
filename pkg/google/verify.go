// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"errors"
	"strings"

	"cashmate/pkg/apperr"
	"cashmate/pkg/auth"

	"google.golang.org/api/idtoken"
)

type validateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// Verifier checks the signature and audience of an ID token and turns its
// claims into an auth.Assertion.
type Verifier struct {
	ClientID string
	validate validateFunc
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{ClientID: clientID, validate: idtoken.Validate}
}

// Verify validates credential against the configured client id.
func (v *Verifier) Verify(ctx context.Context, credential string) (auth.Assertion, error) {
	if v.ClientID == "" {
		return auth.Assertion{}, (&apperr.Error{
			Kind:    apperr.KindInternal,
			Message: "Autentikasi Google tidak dikonfigurasi dengan benar di server",
			Err:     errors.New("google client id not configured"),
		}).WithCode("google_not_configured")
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return auth.Assertion{}, apperr.Validation("Data tidak valid", apperr.FieldError{
			Field: "credential", Message: "Google credential is required", Type: "required",
		})
	}

	payload, err := v.validate(ctx, credential, v.ClientID)
	if err != nil {
		if strings.Contains(err.Error(), "expired") {
			return auth.Assertion{}, apperr.External("Google token sudah expired, silakan coba lagi.", err).
				WithCode("google_token_expired")
		}
		return auth.Assertion{}, apperr.External("Google token tidak valid, silakan coba lagi.", err).
			WithCode("google_token_invalid")
	}
	if payload == nil {
		return auth.Assertion{}, apperr.External("Invalid Google token", errors.New("empty payload")).
			WithCode("google_token_invalid")
	}
	return assertionFromPayload(payload), nil
}

func assertionFromPayload(p *idtoken.Payload) auth.Assertion {
	a := auth.Assertion{ExternalID: p.Subject}
	a.Email, _ = p.Claims["email"].(string)
	a.DisplayName, _ = p.Claims["name"].(string)
	a.PictureURL, _ = p.Claims["picture"].(string)
	switch v := p.Claims["email_verified"].(type) {
	case bool:
		a.EmailVerified = v
	case string:
		a.EmailVerified = v == "true"
	}
	if a.ExternalID == "" {
		a.ExternalID, _ = p.Claims["sub"].(string)
	}
	return a
}
