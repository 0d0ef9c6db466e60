package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/monocle-dev/taskboard/internal/users"
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(ctx *gin.Context) {
	var body CreateUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badRequest(ctx, err)
		return
	}

	user, err := h.users.Register(ctx.Request.Context(), users.RegisterInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		h.fail(ctx, "User registration failed", err)
		return
	}

	ok(ctx, http.StatusCreated, "User registered successfully", types.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	})
}

func (h *Handler) Login(ctx *gin.Context) {
	var body LoginUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badRequest(ctx, err)
		return
	}

	session, err := h.users.Login(ctx.Request.Context(), body.Email, body.Password)
	if err != nil {
		h.fail(ctx, "Login failed", err)
		return
	}

	ok(ctx, http.StatusOK, "Login successful", session)
}

func (h *Handler) Me(ctx *gin.Context) {
	user, found := h.currentUser(ctx)
	if !found {
		return
	}

	ok(ctx, http.StatusOK, "User fetched successfully", types.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	})
}
