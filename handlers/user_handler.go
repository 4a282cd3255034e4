package handlers

import (
	"context"
	"net/http"

	"poi-explorer/middleware"
	"poi-explorer/models"
	"poi-explorer/utils/errors"
)

type UserLookup interface {
	GetUser(ctx context.Context, publicID string) (models.User, error)
}

type UserHandler struct {
	users UserLookup
}

type ProfileResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func NewUserHandler(users UserLookup) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, errors.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{
		UserID:   user.PublicID,
		Username: user.Username,
		Email:    user.Email,
	})
}
