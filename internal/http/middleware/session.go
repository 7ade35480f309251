package middleware

import (
	"net/http"
	"net/url"

	"todoweb/internal/logger"
	"todoweb/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	ctxSessionKey = "session"
	ctxUserIDKey  = "user_id"
)

// EnsureSession resolves the session behind the request cookie, issuing an
// anonymous one when the cookie is missing, invalid or expired. Every
// downstream handler can rely on a session being present.
func EnsureSession(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := mgr.Load(c)
		if err != nil {
			sess, err = mgr.Issue(c, 0)
			if err != nil {
				logger.Error("failed to issue session", "error", err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		}

		c.Set(ctxSessionKey, sess)
		if sess.LoggedIn() {
			c.Set(ctxUserIDKey, sess.UserID)
		}
		c.Next()
	}
}

// RequireUser redirects anonymous visitors to the login page, preserving
// the requested path in ?next=.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok || !sess.LoggedIn() {
			next := url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, "/login?next="+next)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session placed in the context by EnsureSession.
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}

// CurrentUserID returns the authenticated user's ID, if any.
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
