package handlers

import (
	"errors"
	"net/http"
	"strings"

	"todoweb/internal/http/middleware"
	"todoweb/internal/logger"
	"todoweb/internal/repository"
	"todoweb/internal/service"

	"github.com/gin-gonic/gin"
)

type signupForm struct {
	Username  string `form:"username" binding:"required,max=150"`
	Password1 string `form:"password1" binding:"required,min=8"`
	Password2 string `form:"password2" binding:"required"`
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h *Handler) SignupPage(c *gin.Context) {
	h.render(c, http.StatusOK, "signup.html", gin.H{"Form": signupForm{}, "Errors": map[string]string{}})
}

func (h *Handler) Signup(c *gin.Context) {
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		// re-bind leniently so entered values survive the re-render
		form.Username = c.PostForm("username")
		h.render(c, http.StatusOK, "signup.html", gin.H{"Form": form, "Errors": fieldErrors(err)})
		return
	}

	if form.Password1 != form.Password2 {
		h.render(c, http.StatusOK, "signup.html", gin.H{
			"Form":   form,
			"Errors": map[string]string{"Password2": "The two password fields didn't match."},
		})
		return
	}

	hash, err := service.HashPassword(form.Password1)
	if err != nil {
		h.serverError(c, err)
		return
	}

	user, err := h.Users.Create(c.Request.Context(), form.Username, hash)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			h.render(c, http.StatusOK, "signup.html", gin.H{
				"Form":   form,
				"Errors": map[string]string{"Username": "A user with that username already exists."},
			})
			return
		}
		h.serverError(c, err)
		return
	}

	logger.Info("new user registered", "username", user.Username)

	sess, _ := middleware.CurrentSession(c)
	if _, err := h.Sessions.Rotate(c, sess, user.ID); err != nil {
		h.serverError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/tasks")
}

func (h *Handler) LoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{
		"Form": loginForm{},
		"Next": safeNext(c.Query("next")),
	})
}

func (h *Handler) Login(c *gin.Context) {
	const badCredentials = "Please enter a correct username and password."

	var form loginForm
	next := safeNext(c.PostForm("next"))

	if err := c.ShouldBind(&form); err != nil {
		form.Username = c.PostForm("username")
		h.render(c, http.StatusOK, "login.html", gin.H{"Form": form, "Next": next, "FormError": badCredentials})
		return
	}

	user, err := h.Users.GetByUsername(c.Request.Context(), form.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.render(c, http.StatusOK, "login.html", gin.H{"Form": form, "Next": next, "FormError": badCredentials})
			return
		}
		h.serverError(c, err)
		return
	}

	if !service.CheckPassword(user.PasswordHash, form.Password) {
		h.render(c, http.StatusOK, "login.html", gin.H{"Form": form, "Next": next, "FormError": badCredentials})
		return
	}

	sess, _ := middleware.CurrentSession(c)
	if _, err := h.Sessions.Rotate(c, sess, user.ID); err != nil {
		h.serverError(c, err)
		return
	}

	logger.Info("user logged in", "username", user.Username)

	if next == "" {
		next = "/tasks"
	}
	c.Redirect(http.StatusFound, next)
}

func (h *Handler) Logout(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)
	h.Sessions.Clear(c, sess)
	c.Redirect(http.StatusFound, "/login")
}

// safeNext keeps redirect targets on this site: local paths only.
// "//host" and "/\host" are both scheme-relative to browsers.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
