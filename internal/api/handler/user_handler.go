package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/taskboard-api/internal/api/metrics"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

// UserHandler handles HTTP requests for user registration.
type UserHandler struct {
	registry ports.UserRegistry
}

func NewUserHandler(registry ports.UserRegistry) *UserHandler {
	return &UserHandler{registry: registry}
}

// Register handles POST /users. Clients call it on every session start.
//
// @Summary      Register a user on first sight
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerUserRequest  true  "User identity"
// @Success      201   {object}  messageResponse      "User created"
// @Success      200   {object}  messageResponse      "User exists"
// @Failure      400   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /users [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	created, err := h.registry.Register(c.Request().Context(), ports.RegisterUserInput{
		UID:   req.UID,
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		return err
	}

	if !created {
		metrics.UsersRegisteredTotal.WithLabelValues("exists").Inc()
		return c.JSON(http.StatusOK, messageResponse{Message: "User exists"})
	}
	metrics.UsersRegisteredTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, messageResponse{Message: "User created"})
}
