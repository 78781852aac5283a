package handler

import (
	"net/http"

	"github.com/sakif/blog-api/internal/service"
	"github.com/sakif/blog-api/internal/view"
)

// UserHandler serves registration, password login and the signed-in user's
// own record.
type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

type userEnvelope struct {
	User view.User `json:"user"`
}

type registerRequest struct {
	User *struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

type loginRequest struct {
	User *struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

type updateUserRequest struct {
	User *struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Username *string `json:"username"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	} `json:"user"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/users
// REQUEST BODY: {"user": {"username", "email", "password"}}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.User == nil {
		writeError(w, r, missing("user"))
		return
	}

	u, err := h.users.Register(r.Context(), req.User.Username, req.User.Email, req.User.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, userEnvelope{User: *u})
}

// HandleLogin exchanges email and password for a token.
//
// HTTP: POST /api/users/login
// REQUEST BODY: {"user": {"email", "password"}}
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.User == nil {
		writeError(w, r, missing("user"))
		return
	}

	u, err := h.users.Login(r.Context(), req.User.Email, req.User.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, userEnvelope{User: *u})
}

// HTTP: GET /api/user (auth required)
func (h *UserHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Current(r.Context(), viewerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, userEnvelope{User: *u})
}

// HandleUpdate changes the supplied fields of the signed-in user.
//
// HTTP: PUT /api/user (auth required)
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.User == nil {
		writeError(w, r, missing("user"))
		return
	}

	u, err := h.users.Update(r.Context(), viewerID(r.Context()), service.UserPatch{
		Email:    req.User.Email,
		Password: req.User.Password,
		Username: req.User.Username,
		Bio:      req.User.Bio,
		Image:    req.User.Image,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, userEnvelope{User: *u})
}
