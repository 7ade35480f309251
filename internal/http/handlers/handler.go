package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"todoweb/internal/domain"
	"todoweb/internal/http/middleware"
	"todoweb/internal/logger"
	"todoweb/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// UserStore is the persistence surface the auth handlers need.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// TaskStore is the persistence surface the task handlers need. Every
// method is scoped by the owning user.
type TaskStore interface {
	ListByUser(ctx context.Context, userID int64, f domain.TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, userID, taskID int64) (*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	ToggleCompleted(ctx context.Context, userID, taskID int64) (bool, error)
	Delete(ctx context.Context, userID, taskID int64) error
}

type Handler struct {
	Users    UserStore
	Tasks    TaskStore
	Sessions *session.Manager
}

func NewHandler(users UserStore, tasks TaskStore, sessions *session.Manager) *Handler {
	return &Handler{Users: users, Tasks: tasks, Sessions: sessions}
}

func (h *Handler) Home(c *gin.Context) {
	h.render(c, http.StatusOK, "home.html", nil)
}

// render wraps c.HTML, injecting the keys every page expects: login state,
// CSRF token and pending flash messages.
func (h *Handler) render(c *gin.Context, code int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if sess, ok := middleware.CurrentSession(c); ok {
		data["LoggedIn"] = sess.LoggedIn()
		data["CSRFToken"] = sess.CSRFToken
		data["Flashes"] = h.Sessions.PopFlashes(c, sess)
		data["Username"] = ""
		if sess.LoggedIn() {
			if u, err := h.Users.GetByID(c.Request.Context(), sess.UserID); err == nil {
				data["Username"] = u.Username
			}
		}
	}
	c.HTML(code, name, data)
}

func (h *Handler) renderError(c *gin.Context, code int, message string) {
	h.render(c, code, "error.html", gin.H{
		"Status":  code,
		"Message": message,
	})
	c.Abort()
}

func (h *Handler) notFound(c *gin.Context) {
	h.renderError(c, http.StatusNotFound, "The page you requested was not found.")
}

func (h *Handler) serverError(c *gin.Context, err error) {
	logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	h.renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// fieldErrors maps binding failures to per-field messages keyed by the
// struct field name, so templates can show them next to each input.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["Form"] = "Invalid form submission."
		return out
	}

	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "This field is required."
		case "max":
			out[fe.Field()] = fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
		case "min":
			out[fe.Field()] = fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
		default:
			out[fe.Field()] = "This value is invalid."
		}
	}
	return out
}
