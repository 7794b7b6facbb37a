package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/flatplanetpl/poc-digital-twin/pkg/usecase"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/errutil"
)

// filterRequest is the JSON form of retrieval filters
type filterRequest struct {
	DocumentID string `json:"document_id,omitempty"`
	Sender     string `json:"sender,omitempty"`
	SourceType string `json:"source_type,omitempty"`
	Since      string `json:"since,omitempty"`
	Until      string `json:"until,omitempty"`
}

func (f *filterRequest) toFilter() (*model.IndexFilter, error) {
	if f == nil {
		return nil, nil
	}

	filter := &model.IndexFilter{
		DocumentID: types.DocumentID(f.DocumentID),
		Sender:     f.Sender,
		SourceType: types.SourceType(f.SourceType),
	}
	if f.SourceType != "" && !filter.SourceType.IsKnown() {
		return nil, goerr.New("unknown source type", goerr.V("source_type", f.SourceType))
	}

	var err error
	if filter.Since, err = parseFilterTime(f.Since); err != nil {
		return nil, err
	}
	if filter.Until, err = parseFilterTime(f.Until); err != nil {
		return nil, err
	}

	return filter, nil
}

func parseFilterTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, goerr.New("invalid time value", goerr.V("value", value))
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Query   string         `json:"query"`
		TopK    int            `json:"top_k,omitempty"`
		Filters *filterRequest `json:"filters,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	filter, err := req.Filters.toFilter()
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	out, err := s.uc.Query(ctx, &usecase.QueryInput{Query: req.Query, Filter: filter, TopK: req.TopK})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		errutil.HandleHTTP(ctx, w, err, status)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"answer_text":      out.Response.AnswerText,
		"citations":        out.Response.Citations,
		"is_grounded":      out.Response.IsGrounded,
		"no_context_found": out.Response.NoContextFound,
		"transcript_id":    out.TranscriptID,
		"explanation":      out.Explanation,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Query   string         `json:"query"`
		TopK    int            `json:"top_k,omitempty"`
		Filters *filterRequest `json:"filters,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	filter, err := req.Filters.toFilter()
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	out, err := s.uc.Search(ctx, req.Query, filter, req.TopK)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		errutil.HandleHTTP(ctx, w, err, status)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"results":     searchResults(out.Results),
		"explanation": out.Explanation,
	})
}

// searchResults flattens ranked results with their full score breakdown
func searchResults(results []*model.RankedResult) []map[string]any {
	flattened := make([]map[string]any, 0, len(results))
	for _, res := range results {
		flattened = append(flattened, map[string]any{
			"rank":             res.Rank,
			"document_id":      res.Chunk.DocumentID,
			"source_type":      res.Chunk.SourceType,
			"filename":         res.Chunk.Filename,
			"text":             res.Chunk.Text,
			"date":             res.Chunk.Date,
			"similarity_score": res.Similarity,
			"priority_score":   res.Priority.Total,
			"final_score":      res.FinalScore,
			"priority_breakdown": map[string]float64{
				"type":     res.Priority.TypeComponent,
				"recency":  res.Priority.RecencyComponent,
				"approval": res.Priority.ApprovalComponent,
			},
		})
	}
	return flattened
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ForgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	result, err := s.uc.Forget(ctx, &req)
	if err != nil {
		if result == nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}
		// A partial failure still reports the counts erased so far.
		errutil.Handle(ctx, err, "forget failed")
		respondJSON(ctx, w, http.StatusInternalServerError, result)
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rel, err := s.uc.GetRelationship(ctx, chi.URLParam(r, "name"))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, usecase.ErrContactNotFound):
			status = http.StatusNotFound
		case errors.Is(err, usecase.ErrInvalidRequest):
			status = http.StatusBadRequest
		}
		errutil.HandleHTTP(ctx, w, err, status)
		return
	}

	respondJSON(ctx, w, http.StatusOK, rel)
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contacts, err := s.uc.ListRelationships(ctx)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"contacts": contacts})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := &interfaces.DocumentFilter{
		Status:     types.DocumentStatus(r.URL.Query().Get("status")),
		SourceType: types.SourceType(r.URL.Query().Get("source_type")),
		Sender:     r.URL.Query().Get("sender"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			errutil.HandleHTTP(ctx, w, goerr.New("invalid limit", goerr.V("limit", raw)), http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	docs, err := s.uc.ListDocuments(ctx, filter)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"documents": documentResponses(docs)})
}

// documentResponse is the JSON form of a registry row
type documentResponse struct {
	ID         types.DocumentID `json:"id"`
	SourceType types.SourceType `json:"source_type"`
	Filename   string           `json:"filename"`
	Sender     string           `json:"sender,omitempty"`
	ChunkCount int              `json:"chunk_count"`
	IsPinned   bool             `json:"is_pinned"`
	IsApproved bool             `json:"is_approved"`
	Date       *time.Time       `json:"date,omitempty"`
	Status     string           `json:"status"`
	IndexedAt  time.Time        `json:"indexed_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func documentResponses(docs []*model.Document) []documentResponse {
	responses := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		responses = append(responses, documentResponse{
			ID:         doc.ID,
			SourceType: doc.SourceType,
			Filename:   doc.Filename,
			Sender:     doc.Sender,
			ChunkCount: doc.ChunkCount,
			IsPinned:   doc.IsPinned,
			IsApproved: doc.IsApproved,
			Date:       doc.Date,
			Status:     doc.Status.String(),
			IndexedAt:  doc.IndexedAt,
			UpdatedAt:  doc.UpdatedAt,
		})
	}
	return responses
}

func (s *Server) handleSetDocumentFlags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		IsPinned   *bool `json:"is_pinned,omitempty"`
		IsApproved *bool `json:"is_approved,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	id := types.DocumentID(chi.URLParam(r, "id"))
	updated, err := s.uc.SetDocumentFlags(ctx, id, req.IsPinned, req.IsApproved)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, usecase.ErrDocumentNotFound):
			status = http.StatusNotFound
		case errors.Is(err, usecase.ErrInvalidRequest):
			status = http.StatusBadRequest
		}
		errutil.HandleHTTP(ctx, w, err, status)
		return
	}

	responses := documentResponses([]*model.Document{updated})
	respondJSON(ctx, w, http.StatusOK, responses[0])
}

func (s *Server) handleListDeletions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			errutil.HandleHTTP(ctx, w, goerr.New("invalid limit", goerr.V("limit", raw)), http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	report, err := s.uc.GetDeletionReport(ctx, limit)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"deletions": report.Entries,
		"totals": map[string]any{
			"operations":               report.Operations,
			"vectors_deleted":          report.VectorsDeleted,
			"references_deleted":       report.ReferencesDeleted,
			"documents_marked_deleted": report.DocumentsMarkedDeleted,
			"total_deleted":            report.TotalDeleted,
		},
	})
}
