package google

import (
	"context"
	"errors"
	"testing"

	"cashmate/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func stubVerifier(payload *idtoken.Payload, err error) (*Verifier, *string) {
	var gotAudience string
	return &Verifier{
		ClientID: "client-123",
		validate: func(_ context.Context, _ string, audience string) (*idtoken.Payload, error) {
			gotAudience = audience
			return payload, err
		},
	}, &gotAudience
}

func TestVerify_MapsClaims(t *testing.T) {
	v, aud := stubVerifier(&idtoken.Payload{
		Subject: "sub-1",
		Claims: map[string]any{
			"email":          "g@x.com",
			"name":           "Gita",
			"picture":        "https://example.com/p.png",
			"email_verified": true,
		},
	}, nil)

	a, err := v.Verify(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "client-123", *aud)
	assert.Equal(t, "sub-1", a.ExternalID)
	assert.Equal(t, "g@x.com", a.Email)
	assert.Equal(t, "Gita", a.DisplayName)
	assert.Equal(t, "https://example.com/p.png", a.PictureURL)
	assert.True(t, a.EmailVerified)
}

func TestVerify_ClassifiesFailures(t *testing.T) {
	ctx := context.Background()

	v, _ := stubVerifier(nil, errors.New("idtoken: token expired: now=2, expires=1"))
	_, err := v.Verify(ctx, "tok")
	assert.Equal(t, "google_token_expired", apperr.As(err).MachineCode())
	assert.Equal(t, apperr.KindExternalService, apperr.KindOf(err))

	v, _ = stubVerifier(nil, errors.New("idtoken: audience provided does not match aud claim in the JWT"))
	_, err = v.Verify(ctx, "tok")
	assert.Equal(t, "google_token_invalid", apperr.As(err).MachineCode())

	_, err = v.Verify(ctx, "  ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	unconfigured := NewVerifier("")
	_, err = unconfigured.Verify(ctx, "tok")
	assert.Equal(t, "google_not_configured", apperr.As(err).MachineCode())
	assert.Equal(t, 500, apperr.Status(err))
}
