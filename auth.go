package main

import (
	"context"
	"strings"

	"cashmate/models"
	"cashmate/pkg/apperr"
	"cashmate/pkg/auth"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// identityVerifier turns a federated credential into a verified assertion.
type identityVerifier interface {
	Verify(ctx context.Context, credential string) (auth.Assertion, error)
}

// requireAuth resolves the bearer token and stores the session on the
// request context. Handlers read it with currentSession.
func (s *server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			respondError(c, s.cfg.IsProduction(), apperr.Unauthenticated())
			c.Abort()
			return
		}
		sess, err := s.auth.ValidateToken(c.Request.Context(), raw)
		if err != nil {
			respondError(c, s.cfg.IsProduction(), err)
			c.Abort()
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func currentSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*auth.Session)
	return sess
}

// currentUser returns nil for anonymous requests; core operations reject nil
// users as Unauthenticated.
func currentUser(c *gin.Context) *models.User {
	sess := currentSession(c)
	if sess == nil {
		return nil
	}
	return &sess.User
}
