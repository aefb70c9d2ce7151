package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/taskboard-api/internal/api/metrics"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

// maxTaskBody bounds a task document sent by a client.
const maxTaskBody = 1 << 20

// TaskHandler handles HTTP requests for board operations.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// List handles GET /tasks?uid=.
//
// @Summary      List a user's board
// @Description  Tasks are ordered by category, then position.
// @Tags         tasks
// @Produce      json
// @Param        uid  query     string  true  "Owner uid"
// @Success      200  {array}   taskDocument
// @Failure      400  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	var q listTasksQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	tasks, err := h.service.ListTasks(c.Request().Context(), q.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// Create handles POST /tasks.
//
// @Summary      Create a task
// @Description  The task is appended to the end of its category and broadcast as taskCreated.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      object  true  "Task document; uid and title are required"
// @Success      201   {object}  taskDocument
// @Failure      400   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	payload, err := bindObject(c, false)
	if err != nil {
		return err
	}

	task, err := h.service.CreateTask(c.Request().Context(), payload)
	if err != nil {
		return err
	}

	metrics.TaskMutationsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, task)
}

// Update handles PUT /tasks/:id.
//
// @Summary      Update a task
// @Description  Merges the given fields and broadcasts taskUpdated. id, uid and timestamps cannot be changed.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "Task id"
// @Param        body  body      object  true  "Fields to change"
// @Success      200   {object}  taskDocument
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	payload, err := bindObject(c, true)
	if err != nil {
		return err
	}

	task, err := h.service.UpdateTask(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return err
	}

	metrics.TaskMutationsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, task)
}

// Delete handles DELETE /tasks/:id. Deleting an unknown id succeeds.
//
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  deleteTaskResponse
// @Failure      400  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	deleted, err := h.service.DeleteTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	metrics.TaskMutationsTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, deleteTaskResponse{Message: "Task deleted", Deleted: deleted})
}

// bindObject decodes the request body as a JSON object. Echo's binder is not
// used because it also copies path parameters into map targets.
func bindObject(c echo.Context, allowEmpty bool) (map[string]any, error) {
	var payload map[string]any
	dec := json.NewDecoder(io.LimitReader(c.Request().Body, maxTaskBody))
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return map[string]any{}, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if payload == nil {
		if allowEmpty {
			return map[string]any{}, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return payload, nil
}
