package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CSRF rejects state-changing requests whose csrf_token form field does not
// match the token stored in the session. Safe methods pass through.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		sess, ok := CurrentSession(c)
		if !ok {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		token := c.PostForm("csrf_token")
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(sess.CSRFToken)) != 1 {
			c.HTML(http.StatusForbidden, "error.html", gin.H{
				"Status":  http.StatusForbidden,
				"Message": "CSRF verification failed. Request aborted.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
