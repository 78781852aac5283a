package handler

import "net/http"

type TagHandler struct {
	tags TagService
}

func NewTagHandler(tags TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// HTTP: GET /api/tags
func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		Tags []string `json:"tags"`
	}{tags})
}
