package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kontext-dev/kontext/internal/api/handlers"
	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/kontext-dev/kontext/internal/pagination"
	"github.com/kontext-dev/kontext/internal/service"
	"github.com/kontext-dev/kontext/internal/vector"
)

type MockKnowledgeService struct {
	mock.Mock
}

func (m *MockKnowledgeService) Save(ctx context.Context, input service.SaveInput) (*domain.KnowledgeUnit, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeUnit), args.Error(1)
}

func (m *MockKnowledgeService) Get(ctx context.Context, id string) (*domain.KnowledgeUnit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeUnit), args.Error(1)
}

func (m *MockKnowledgeService) List(ctx context.Context, input service.ListInput) (*pagination.PageResult[*domain.KnowledgeUnit], error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.KnowledgeUnit]), args.Error(1)
}

func (m *MockKnowledgeService) Summary(ctx context.Context, projectName string) (*service.ProjectSummary, error) {
	args := m.Called(ctx, projectName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProjectSummary), args.Error(1)
}

func (m *MockKnowledgeService) Classify(ctx context.Context, content string, maxTags int) (domain.KnowledgeType, float64, []domain.Tag) {
	args := m.Called(ctx, content, maxTags)
	return args.Get(0).(domain.KnowledgeType), args.Get(1).(float64), args.Get(2).([]domain.Tag)
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, input service.SearchInput) ([]*service.SearchResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*service.SearchResult), args.Error(1)
}

type MockContinuationService struct {
	mock.Mock
}

func (m *MockContinuationService) Save(ctx context.Context, input service.SaveContinuationInput) (*service.SaveContinuationOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SaveContinuationOutput), args.Error(1)
}

func (m *MockContinuationService) Latest(ctx context.Context, projectName string) (*domain.Continuation, error) {
	args := m.Called(ctx, projectName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Continuation), args.Error(1)
}

func (m *MockContinuationService) List(ctx context.Context, input service.ListContinuationsInput) (*pagination.PageResult[*domain.Continuation], error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.Continuation]), args.Error(1)
}

func setupRouter() (http.Handler, *MockKnowledgeService, *MockSearchService, *MockContinuationService) {
	knowledgeSvc := new(MockKnowledgeService)
	searchSvc := new(MockSearchService)
	continuationSvc := new(MockContinuationService)

	index := vector.NewIndex(4)

	cfg := RouterConfig{
		KnowledgeHandler:    handlers.NewKnowledgeHandler(knowledgeSvc, searchSvc),
		ContinuationHandler: handlers.NewContinuationHandler(continuationSvc),
		Index:               index,
		EmbedderAvailable:   true,
	}

	return NewRouter(cfg), knowledgeSvc, searchSvc, continuationSvc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, true, data["semantic_search"])
}

func TestRouter_KnowledgeRoutes(t *testing.T) {
	router, knowledgeSvc, _, _ := setupRouter()

	unit := &domain.KnowledgeUnit{
		ID:          "unit-1",
		ProjectName: "kontext",
		Content:     "note",
		Type:        domain.KnowledgeTypeImplementation,
		Confidence:  0.5,
		CreatedAt:   time.Now().UTC(),
	}
	knowledgeSvc.On("Save", mock.Anything, mock.Anything).Return(unit, nil)
	knowledgeSvc.On("Get", mock.Anything, "unit-1").Return(unit, nil)

	body, _ := json.Marshal(map[string]string{"project_name": "kontext", "content": "note"})
	req := httptest.NewRequest(http.MethodPost, "/v1/knowledge", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/knowledge/unit-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	knowledgeSvc.AssertExpectations(t)
}

func TestRouter_SearchRoute(t *testing.T) {
	router, _, searchSvc, _ := setupRouter()

	searchSvc.On("Search", mock.Anything, mock.Anything).Return([]*service.SearchResult{}, nil)

	body, _ := json.Marshal(map[string]string{"query": "reconnection"})
	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	searchSvc.AssertExpectations(t)
}

func TestRouter_ContinuationRoutes(t *testing.T) {
	router, _, _, continuationSvc := setupRouter()

	continuationSvc.On("Latest", mock.Anything, "kontext").Return(&domain.Continuation{
		ID: "cont-1", ProjectName: "kontext", Status: "working",
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/continuations/latest?project=kontext", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	continuationSvc.AssertExpectations(t)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_BodyLimit(t *testing.T) {
	router, _, _, _ := setupRouter()

	huge := bytes.Repeat([]byte("x"), 2*1024*1024)
	req := httptest.NewRequest(http.MethodPost, "/v1/knowledge", bytes.NewReader(huge))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
