package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kontext-dev/kontext/internal/api"
	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/kontext-dev/kontext/internal/pagination"
	"github.com/kontext-dev/kontext/internal/project"
	"github.com/kontext-dev/kontext/internal/service"
)

type ContinuationService interface {
	Save(ctx context.Context, input service.SaveContinuationInput) (*service.SaveContinuationOutput, error)
	Latest(ctx context.Context, projectName string) (*domain.Continuation, error)
	List(ctx context.Context, input service.ListContinuationsInput) (*pagination.PageResult[*domain.Continuation], error)
}

type ContinuationHandler struct {
	svc ContinuationService
}

func NewContinuationHandler(svc ContinuationService) *ContinuationHandler {
	return &ContinuationHandler{svc: svc}
}

type SaveContinuationRequest struct {
	ProjectName string `json:"project_name,omitempty"`
	Content     string `json:"content"`
}

type PositionResponse struct {
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Function string `json:"function,omitempty"`
	Raw      string `json:"raw,omitempty"`
}

type ContinuationResponse struct {
	ID          string            `json:"id"`
	ProjectName string            `json:"project_name"`
	Status      string            `json:"status"`
	Position    *PositionResponse `json:"position,omitempty"`
	Problem     string            `json:"problem,omitempty"`
	Tried       []string          `json:"tried,omitempty"`
	Next        []string          `json:"next,omitempty"`
	Todo        []string          `json:"todo,omitempty"`
	Context     string            `json:"context,omitempty"`
	RawSections map[string]string `json:"raw_sections,omitempty"`
	CreatedAt   string            `json:"created_at"`
}

func continuationToResponse(c *domain.Continuation) *ContinuationResponse {
	resp := &ContinuationResponse{
		ID:          c.ID,
		ProjectName: c.ProjectName,
		Status:      c.Status,
		Problem:     c.Problem,
		Tried:       c.Tried,
		Next:        c.Next,
		Todo:        c.Todo,
		Context:     c.Context,
		RawSections: c.RawSections,
		CreatedAt:   c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if !c.Position.IsZero() {
		resp.Position = &PositionResponse{
			File:     c.Position.File,
			Line:     c.Position.Line,
			Function: c.Position.Function,
			Raw:      c.Position.Raw,
		}
	}
	return resp
}

type SaveContinuationResponse struct {
	Continuation *ContinuationResponse `json:"continuation"`
	Unit         *UnitResponse         `json:"unit"`
}

func (h *ContinuationHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveContinuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	out, err := h.svc.Save(r.Context(), service.SaveContinuationInput{
		ProjectName: project.Detect(req.ProjectName, req.Content),
		Content:     req.Content,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, SaveContinuationResponse{
		Continuation: continuationToResponse(out.Continuation),
		Unit:         unitToResponse(out.Unit),
	})
}

func (h *ContinuationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	projectName := r.URL.Query().Get("project")
	if projectName == "" {
		api.Error(w, http.StatusBadRequest, "project is required")
		return
	}

	continuation, err := h.svc.Latest(r.Context(), project.Normalize(projectName))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, continuationToResponse(continuation))
}

type ContinuationListResponse struct {
	Items   []*ContinuationResponse `json:"items"`
	Cursor  string                  `json:"cursor,omitempty"`
	HasMore bool                    `json:"has_more"`
}

func (h *ContinuationHandler) List(w http.ResponseWriter, r *http.Request) {
	projectName := r.URL.Query().Get("project")
	if projectName == "" {
		api.Error(w, http.StatusBadRequest, "project is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	page, err := h.svc.List(r.Context(), service.ListContinuationsInput{
		ProjectName: project.Normalize(projectName),
		Cursor:      r.URL.Query().Get("cursor"),
		Limit:       limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*ContinuationResponse, 0, len(page.Items))
	for _, c := range page.Items {
		items = append(items, continuationToResponse(c))
	}

	api.Success(w, http.StatusOK, ContinuationListResponse{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}
