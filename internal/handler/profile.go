package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog-api/internal/view"
)

// ProfileHandler serves /api/profiles/{username}.
type ProfileHandler struct {
	profiles ProfileService
}

func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type profileEnvelope struct {
	Profile view.Profile `json:"profile"`
}

// HTTP: GET /api/profiles/{username}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), chi.URLParam(r, "username"), viewerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, profileEnvelope{Profile: *p})
}

// HTTP: POST /api/profiles/{username}/follow (auth required)
func (h *ProfileHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Follow(r.Context(), viewerID(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, profileEnvelope{Profile: *p})
}

// HTTP: DELETE /api/profiles/{username}/follow (auth required)
func (h *ProfileHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Unfollow(r.Context(), viewerID(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, profileEnvelope{Profile: *p})
}
