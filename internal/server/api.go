package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/voxmed/voxmed/internal/app"
	"github.com/voxmed/voxmed/internal/consistency"
	"github.com/voxmed/voxmed/internal/review"
	"github.com/voxmed/voxmed/internal/segment"
	"github.com/voxmed/voxmed/internal/template"
	"github.com/voxmed/voxmed/internal/vocab"
)

// maxBodySize bounds request bodies. Reports and vocabulary exports are
// text; anything above this is a client error.
const maxBodySize = 4 << 20

func (s *Server) registerAPI(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleCloseSession)
	mux.HandleFunc("PUT /api/sessions/{id}/selection", s.handleSetSelection)
	mux.HandleFunc("PUT /api/sessions/{id}/text", s.handleEditText)
	mux.HandleFunc("POST /api/sessions/{id}/events", s.handleEvent)
	mux.HandleFunc("GET /api/sessions/{id}/consistency", s.handleConsistency)
	mux.HandleFunc("GET /api/sessions/{id}/proposals", s.handleProposals)
	mux.HandleFunc("POST /api/sessions/{id}/learn", s.handleLearnPair)

	mux.HandleFunc("POST /api/sessions/{id}/correct", s.handleCorrect)
	mux.HandleFunc("GET /api/sessions/{id}/review", s.handleGetReview)
	mux.HandleFunc("DELETE /api/sessions/{id}/review", s.handleDiscardReview)
	mux.HandleFunc("POST /api/sessions/{id}/review/apply", s.handleApplyReview)
	mux.HandleFunc("POST /api/sessions/{id}/review/chunks/{chunkID}/{decision}", s.handleResolveChunk)
	mux.HandleFunc("POST /api/sessions/{id}/review/pairs/{pairID}/save", s.handleSavePair)

	mux.HandleFunc("GET /api/vocabulary", s.handleListVocabulary)
	mux.HandleFunc("PUT /api/vocabulary/{key}", s.handlePutVocabulary)
	mux.HandleFunc("DELETE /api/vocabulary/{key}", s.handleRemoveVocabulary)
	mux.HandleFunc("GET /api/vocabulary/export", s.handleExportVocabulary)
	mux.HandleFunc("POST /api/vocabulary/import", s.handleImportVocabulary)

	mux.HandleFunc("GET /api/templates", s.handleListTemplates)
	mux.HandleFunc("GET /api/templates/{name}", s.handleGetTemplate)
	mux.HandleFunc("PUT /api/templates/{name}", s.handlePutTemplate)
	mux.HandleFunc("DELETE /api/templates/{name}", s.handleRemoveTemplate)
	mux.HandleFunc("POST /api/templates/assemble", s.handleAssembleTemplate)
}

// --- wire types ---

type errorResponse struct {
	Error string `json:"error"`
}

type createSessionRequest struct {
	ID string `json:"id"`
}

type selectionRequest struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type editTextRequest struct {
	Text     string `json:"text"`
	SelStart int    `json:"selStart"`
	SelEnd   int    `json:"selEnd"`
}

type editTextResponse struct {
	Doc       segment.Document `json:"doc"`
	Proposals []vocab.Proposal `json:"proposals,omitempty"`
}

type learnPairRequest struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
}

type reviewChunkDTO struct {
	ID      int    `json:"id"`
	Value   string `json:"value"`
	Added   bool   `json:"added,omitempty"`
	Removed bool   `json:"removed,omitempty"`
	Status  string `json:"status"`
}

type reviewPairDTO struct {
	ID        int    `json:"id"`
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Saved     bool   `json:"saved"`
}

type reviewDTO struct {
	Chunks  []reviewChunkDTO `json:"chunks"`
	Pairs   []reviewPairDTO  `json:"pairs"`
	Changed int              `json:"changed"`
}

type vocabularyEntryDTO struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
}

type importResponse struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

func reviewToDTO(rs *review.Session) reviewDTO {
	dto := reviewDTO{Changed: rs.Changed()}
	for _, c := range rs.Chunks() {
		dto.Chunks = append(dto.Chunks, reviewChunkDTO{
			ID:      c.ID,
			Value:   c.Chunk.Value,
			Added:   c.Chunk.Added,
			Removed: c.Chunk.Removed,
			Status:  c.Status.String(),
		})
	}
	for _, p := range rs.Pairs() {
		dto.Pairs = append(dto.Pairs, reviewPairDTO{
			ID:        p.ID,
			Original:  p.Pair.Original,
			Corrected: p.Pair.Corrected,
			Saved:     p.Saved,
		})
	}
	return dto
}

// --- session handlers ---

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.app.CreateSession(r.Context(), req.ID)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": sess.ID()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	doc, err := sess.Document(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	s.app.CloseSession(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := sess.SetSelection(r.Context(), req.Start, req.End); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEditText(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req editTextRequest
	if !decodeBody(w, r, &req) {
		return
	}
	proposals, err := sess.EditText(r.Context(), req.Text, req.SelStart, req.SelEnd)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	doc, err := sess.Document(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, editTextResponse{Doc: doc, Proposals: proposals})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var ev segment.Event
	if !decodeBody(w, r, &ev) {
		return
	}
	upd, err := sess.HandleEvent(r.Context(), ev)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, upd)
}

func (s *Server) handleConsistency(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	issues, err := sess.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if issues == nil {
		issues = []consistency.Issue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) handleProposals(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	proposals := sess.Proposals()
	if proposals == nil {
		proposals = []vocab.Proposal{}
	}
	writeJSON(w, http.StatusOK, proposals)
}

func (s *Server) handleLearnPair(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req learnPairRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := sess.LearnPair(r.Context(), req.Original, req.Corrected); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- review handlers ---

func (s *Server) handleCorrect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rs, err := sess.RunAICorrection(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, app.ErrNoCorrector) {
			status = http.StatusNotImplemented
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewToDTO(rs))
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rs, active, err := sess.Review(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if !active {
		writeError(w, http.StatusNotFound, fmt.Errorf("no active review"))
		return
	}
	writeJSON(w, http.StatusOK, reviewToDTO(rs))
}

func (s *Server) handleDiscardReview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.DiscardReview(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApplyReview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	doc, err := sess.ApplyReview(r.Context())
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleResolveChunk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	chunkID, err := strconv.Atoi(r.PathValue("chunkID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid chunk id %q", r.PathValue("chunkID")))
		return
	}
	var accept bool
	switch r.PathValue("decision") {
	case "accept":
		accept = true
	case "reject":
		accept = false
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("decision must be accept or reject"))
		return
	}
	if err := sess.ResolveChunk(r.Context(), chunkID, accept); err != nil {
		writeError(w, statusForReviewErr(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSavePair(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	pairID, err := strconv.Atoi(r.PathValue("pairID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid pair id %q", r.PathValue("pairID")))
		return
	}
	if err := sess.SaveReviewPair(r.Context(), pairID); err != nil {
		writeError(w, statusForReviewErr(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- vocabulary handlers ---

func (s *Server) handleListVocabulary(w http.ResponseWriter, r *http.Request) {
	entries, err := s.app.Vocab().Entries(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	out := make([]vocabularyEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, vocabularyEntryDTO{Original: e.Original, Corrected: e.Corrected})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePutVocabulary(w http.ResponseWriter, r *http.Request) {
	var req vocabularyEntryDTO
	if !decodeBody(w, r, &req) {
		return
	}
	key := r.PathValue("key")
	if req.Corrected == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("corrected form must not be empty"))
		return
	}
	if err := s.app.Vocab().Add(r.Context(), key, req.Corrected); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveVocabulary(w http.ResponseWriter, r *http.Request) {
	err := s.app.Vocab().Remove(r.Context(), r.PathValue("key"))
	switch {
	case errors.Is(err, vocab.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleExportVocabulary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="vocabulary.json"`)
	if err := vocab.Export(r.Context(), s.app.Vocab(), w); err != nil {
		// Headers are out; all that is left is logging via middleware.
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleImportVocabulary(w http.ResponseWriter, r *http.Request) {
	added, skipped, err := vocab.Import(r.Context(), s.app.Vocab(), http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Added: added, Skipped: skipped})
}

// --- template handlers ---

func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Templates().Names())
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.app.Templates().Get(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("template %q not found", r.PathValue("name")))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	var t template.Template
	if !decodeBody(w, r, &t) {
		return
	}
	t.Name = r.PathValue("name")
	if err := s.app.Templates().Put(t); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveTemplate(w http.ResponseWriter, r *http.Request) {
	s.app.Templates().Remove(r.PathValue("name"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAssembleTemplate(w http.ResponseWriter, r *http.Request) {
	var fields []template.Field
	if !decodeBody(w, r, &fields) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": template.Assemble(fields)})
}

// --- helpers ---

// session resolves the {id} path value. On a miss it writes a 404 and
// returns ok=false.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	id := r.PathValue("id")
	sess, ok := s.app.Session(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("session %q not found", id))
		return nil, false
	}
	return sess, true
}

// decodeBody parses the JSON request body into v, rejecting unknown fields.
// On failure it writes a 400 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	// Strip the package prefix from wrapped errors for the wire.
	msg := err.Error()
	if i := strings.Index(msg, ": "); i > 0 && !strings.Contains(msg[:i], " ") {
		msg = msg[i+2:]
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func statusForReviewErr(err error) int {
	if errors.Is(err, review.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
