package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"todoweb/internal/domain"
	"todoweb/internal/http/middleware"
	"todoweb/internal/repository"

	"github.com/gin-gonic/gin"
)

type taskForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Description string `form:"description"`
	Completed   bool   `form:"completed"`
}

func (h *Handler) TaskList(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	filter, raw := parseTaskFilter(c)

	tasks, err := h.Tasks.ListByUser(c.Request.Context(), userID, filter)
	if err != nil {
		h.serverError(c, err)
		return
	}

	h.render(c, http.StatusOK, "task_list.html", gin.H{
		"Tasks":  tasks,
		"Filter": raw,
	})
}

func (h *Handler) TaskCreatePage(c *gin.Context) {
	h.render(c, http.StatusOK, "task_form.html", gin.H{
		"Heading": "New task",
		"Action":  "/tasks/new",
		"Form":    taskForm{},
		"Errors":  map[string]string{},
	})
}

func (h *Handler) TaskCreate(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var form taskForm
	if err := c.ShouldBind(&form); err != nil {
		form.Title = c.PostForm("title")
		form.Description = c.PostForm("description")
		form.Completed = c.PostForm("completed") == "true"
		h.render(c, http.StatusOK, "task_form.html", gin.H{
			"Heading": "New task",
			"Action":  "/tasks/new",
			"Form":    form,
			"Errors":  fieldErrors(err),
		})
		return
	}

	task := &domain.Task{
		UserID:      userID,
		Title:       form.Title,
		Description: form.Description,
		Completed:   form.Completed,
	}
	if err := h.Tasks.Create(c.Request.Context(), task); err != nil {
		h.serverError(c, err)
		return
	}

	sess, _ := middleware.CurrentSession(c)
	h.Sessions.AddFlash(c, sess, "Task created successfully.")
	c.Redirect(http.StatusFound, "/tasks")
}

func (h *Handler) TaskUpdatePage(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	taskID, ok := taskIDParam(c)
	if !ok {
		h.notFound(c)
		return
	}

	task, err := h.Tasks.GetByID(c.Request.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}

	h.render(c, http.StatusOK, "task_form.html", gin.H{
		"Heading": "Edit task",
		"Action":  "/tasks/" + strconv.FormatInt(task.ID, 10) + "/edit",
		"Form": taskForm{
			Title:       task.Title,
			Description: task.Description,
			Completed:   task.Completed,
		},
		"Errors": map[string]string{},
	})
}

func (h *Handler) TaskUpdate(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	taskID, ok := taskIDParam(c)
	if !ok {
		h.notFound(c)
		return
	}

	var form taskForm
	if err := c.ShouldBind(&form); err != nil {
		form.Title = c.PostForm("title")
		form.Description = c.PostForm("description")
		form.Completed = c.PostForm("completed") == "true"
		h.render(c, http.StatusOK, "task_form.html", gin.H{
			"Heading": "Edit task",
			"Action":  "/tasks/" + strconv.FormatInt(taskID, 10) + "/edit",
			"Form":    form,
			"Errors":  fieldErrors(err),
		})
		return
	}

	task := &domain.Task{
		ID:          taskID,
		UserID:      userID,
		Title:       form.Title,
		Description: form.Description,
		Completed:   form.Completed,
	}
	if err := h.Tasks.Update(c.Request.Context(), task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}

	sess, _ := middleware.CurrentSession(c)
	h.Sessions.AddFlash(c, sess, "Task updated successfully.")
	c.Redirect(http.StatusFound, "/tasks")
}

func (h *Handler) TaskDeletePage(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	taskID, ok := taskIDParam(c)
	if !ok {
		h.notFound(c)
		return
	}

	task, err := h.Tasks.GetByID(c.Request.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}

	h.render(c, http.StatusOK, "task_confirm_delete.html", gin.H{"Task": task})
}

func (h *Handler) TaskDelete(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	taskID, ok := taskIDParam(c)
	if !ok {
		h.notFound(c)
		return
	}

	if err := h.Tasks.Delete(c.Request.Context(), userID, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}

	sess, _ := middleware.CurrentSession(c)
	h.Sessions.AddFlash(c, sess, "Task deleted successfully.")
	c.Redirect(http.StatusFound, "/tasks")
}

func (h *Handler) TaskToggle(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	taskID, ok := taskIDParam(c)
	if !ok {
		h.notFound(c)
		return
	}

	if _, err := h.Tasks.ToggleCompleted(c.Request.Context(), userID, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/tasks")
}

func taskIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
