package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wikigraph/internal/linkservice"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *linkservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *linkservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL (everything after /api/notes/).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func (h *Handler) vault(r *http.Request) string {
	return h.svc.VaultOrDefault(r.URL.Query().Get("vault"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// ParseLinks handles POST /api/links/parse.
//
//	@Summary		Extract wikilinks from text
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ParseLinksRequest	true	"Text to parse"
//	@Success		200		{object}	models.ReferenceSet
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/links/parse [post]
func (h *Handler) ParseLinks(w http.ResponseWriter, r *http.Request) {
	var req ParseLinksRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ParseLinks(r.Context(), req.Content))
}

// ResolveLink handles GET /api/links/resolve.
//
//	@Summary		Resolve a link target to a note file
//	@Description	An unresolved target is reported with found=false, not as 404.
//	@Tags			links
//	@Produce		json
//	@Param			vault	query		string	false	"Absolute vault path"
//	@Param			target	query		string	true	"Link target"
//	@Success		200		{object}	models.Resolution
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/links/resolve [get]
func (h *Handler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'target' is required"))
		return
	}
	res, err := h.svc.Resolve(r.Context(), h.vault(r), target)
	if err != nil {
		writeError(w, "resolve link", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// OutgoingLinks handles POST /api/links/outgoing.
//
//	@Summary		Group the links of a text by target and resolve each
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OutgoingLinksRequest	true	"Vault and text"
//	@Success		200		{object}	OutgoingLinksResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/links/outgoing [post]
func (h *Handler) OutgoingLinks(w http.ResponseWriter, r *http.Request) {
	var req OutgoingLinksRequest
	if !decodeBody(w, r, &req) {
		return
	}
	links, err := h.svc.Outgoing(r.Context(), h.svc.VaultOrDefault(req.Vault), req.Content)
	if err != nil {
		writeError(w, "outgoing links", err)
		return
	}
	writeJSON(w, http.StatusOK, OutgoingLinksResponse{Links: links})
}

// Backlinks handles GET /api/backlinks.
//
//	@Summary		Find notes that link to a note
//	@Tags			graph
//	@Produce		json
//	@Param			vault	query		string	false	"Absolute vault path"
//	@Param			note	query		string	true	"Bare note name"
//	@Success		200		{object}	BacklinksResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	note := r.URL.Query().Get("note")
	if note == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'note' is required"))
		return
	}
	groups, err := h.svc.Backlinks(r.Context(), h.vault(r), note)
	if err != nil {
		writeError(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Backlinks: groups})
}

// Tree handles GET /api/tree.
//
//	@Summary		Folder and note hierarchy of a vault
//	@Tags			graph
//	@Produce		json
//	@Param			vault	query		string	false	"Absolute vault path"
//	@Success		200		{object}	models.FileTree
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Tree(r.Context(), h.vault(r))
	if err != nil {
		writeError(w, "file tree", err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, most recently modified first
//	@Tags			notes
//	@Produce		json
//	@Param			vault	query		string	false	"Absolute vault path"
//	@Success		200		{object}	NoteListResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.List(r.Context(), h.vault(r))
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a single note with its links and backlinks
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Param			vault	query		string	false	"Absolute vault path"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.Inspect(r.Context(), h.vault(r), path)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}
