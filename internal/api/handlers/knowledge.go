package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kontext-dev/kontext/internal/api"
	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/kontext-dev/kontext/internal/pagination"
	"github.com/kontext-dev/kontext/internal/project"
	"github.com/kontext-dev/kontext/internal/service"
)

type KnowledgeService interface {
	Save(ctx context.Context, input service.SaveInput) (*domain.KnowledgeUnit, error)
	Get(ctx context.Context, id string) (*domain.KnowledgeUnit, error)
	List(ctx context.Context, input service.ListInput) (*pagination.PageResult[*domain.KnowledgeUnit], error)
	Summary(ctx context.Context, projectName string) (*service.ProjectSummary, error)
	Classify(ctx context.Context, content string, maxTags int) (domain.KnowledgeType, float64, []domain.Tag)
}

type SearchService interface {
	Search(ctx context.Context, input service.SearchInput) ([]*service.SearchResult, error)
}

type KnowledgeHandler struct {
	svc    KnowledgeService
	search SearchService
}

func NewKnowledgeHandler(svc KnowledgeService, search SearchService) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc, search: search}
}

type SaveRequest struct {
	ID          string `json:"id,omitempty"`
	ProjectName string `json:"project_name,omitempty"`
	Content     string `json:"content"`
	MaxTags     int    `json:"max_tags,omitempty"`
}

type UnitResponse struct {
	ID          string       `json:"id"`
	ProjectName string       `json:"project_name"`
	Content     string       `json:"content"`
	Type        string       `json:"type"`
	Confidence  float64      `json:"confidence"`
	Tags        []domain.Tag `json:"tags"`
	HasVector   bool         `json:"has_vector"`
	CreatedAt   string       `json:"created_at"`
}

func unitToResponse(u *domain.KnowledgeUnit) *UnitResponse {
	tags := u.Tags
	if tags == nil {
		tags = []domain.Tag{}
	}
	return &UnitResponse{
		ID:          u.ID,
		ProjectName: u.ProjectName,
		Content:     u.Content,
		Type:        string(u.Type),
		Confidence:  u.Confidence,
		Tags:        tags,
		HasVector:   len(u.Embedding) > 0,
		CreatedAt:   u.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *KnowledgeHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	unit, err := h.svc.Save(r.Context(), service.SaveInput{
		ID:          req.ID,
		ProjectName: project.Detect(req.ProjectName, req.Content),
		Content:     req.Content,
		MaxTags:     req.MaxTags,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, unitToResponse(unit))
}

func (h *KnowledgeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	unit, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, unitToResponse(unit))
}

type ListResponse struct {
	Items   []*UnitResponse `json:"items"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
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

	page, err := h.svc.List(r.Context(), service.ListInput{
		ProjectName: project.Normalize(projectName),
		Cursor:      r.URL.Query().Get("cursor"),
		Limit:       limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*UnitResponse, 0, len(page.Items))
	for _, u := range page.Items {
		items = append(items, unitToResponse(u))
	}

	api.Success(w, http.StatusOK, ListResponse{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

func (h *KnowledgeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	projectName := r.URL.Query().Get("project")
	if projectName == "" {
		api.Error(w, http.StatusBadRequest, "project is required")
		return
	}

	summary, err := h.svc.Summary(r.Context(), project.Normalize(projectName))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, summary)
}

type SearchRequest struct {
	ProjectName string  `json:"project_name,omitempty"`
	Query       string  `json:"query"`
	K           int     `json:"k,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

type SearchResultResponse struct {
	Unit    *UnitResponse `json:"unit"`
	Score   float64       `json:"score"`
	Lexical bool          `json:"lexical"`
}

func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	projectName := ""
	if req.ProjectName != "" {
		projectName = project.Normalize(req.ProjectName)
	}

	results, err := h.search.Search(r.Context(), service.SearchInput{
		ProjectName: projectName,
		Query:       req.Query,
		K:           req.K,
		Threshold:   req.Threshold,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make([]*SearchResultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, &SearchResultResponse{
			Unit:    unitToResponse(res.Unit),
			Score:   res.Score,
			Lexical: res.Lexical,
		})
	}

	api.Success(w, http.StatusOK, out)
}

type ClassifyRequest struct {
	Content string `json:"content"`
	MaxTags int    `json:"max_tags,omitempty"`
}

type ClassifyResponse struct {
	Type       string       `json:"type"`
	Confidence float64      `json:"confidence"`
	Tags       []domain.Tag `json:"tags"`
}

// Classify runs the pipeline without persisting, for previewing how
// content would be stored.
func (h *KnowledgeHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	knowledgeType, confidence, tags := h.svc.Classify(r.Context(), req.Content, req.MaxTags)
	if tags == nil {
		tags = []domain.Tag{}
	}

	api.Success(w, http.StatusOK, ClassifyResponse{
		Type:       string(knowledgeType),
		Confidence: confidence,
		Tags:       tags,
	})
}
