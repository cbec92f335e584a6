package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"story-server/internal/config"
	delivery "story-server/internal/delivery/http"
	"story-server/internal/export"
	"story-server/internal/model"
	"story-server/internal/repository"
	"story-server/internal/service"
	"story-server/internal/service/mocks"
	"story-server/pkg/ai"
)

// newTestRouter собирает полный стек delivery -> service с мокнутыми
// хранилищем и провайдером.
func newTestRouter(t *testing.T) (*mux.Router, *mocks.StoryStore, *mocks.Generator) {
	t.Helper()
	store := new(mocks.StoryStore)
	gen := new(mocks.Generator)
	aiCfg := config.AIConfig{TextModel: "gemini-2.5-flash", ImageModel: "imagen-3.0-generate-002"}
	svc := service.NewStoryService(store, gen, aiCfg, t.TempDir())

	router := mux.NewRouter()
	delivery.New(svc, export.NewPDFRenderer(t.TempDir())).RegisterRoutes(router)
	return router, store, gen
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGenerateEndpoint(t *testing.T) {
	t.Run("Successful generation returns story payload", func(t *testing.T) {
		router, store, gen := newTestRouter(t)

		no := false
		fullText := "[Title]\nกระต่ายผู้กล้า\n\nกาลครั้งหนึ่ง..."
		gen.On("GenerateText", mock.Anything, "gemini-2.5-flash", mock.Anything).Return(fullText, nil).Once()
		store.On("CreateStory", mock.Anything, mock.Anything, "กระต่ายผู้กล้า", fullText, (*string)(nil)).Return(int64(12), nil).Once()
		store.On("AddChapter", mock.Anything, int64(12), 1, "Chapter 1", fullText).Return(int64(1), nil).Once()

		rec := doJSON(t, router, http.MethodPost, "/api/generate", model.GenerateRequest{
			Idea:                   "กระต่ายอยากไปทะเล",
			Genre:                  "adventure",
			WantIllustrationPrompt: &no,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp model.GenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(12), resp.StoryID)
		assert.Equal(t, "กระต่ายผู้กล้า", resp.Title)
		store.AssertExpectations(t)
	})

	t.Run("Empty idea maps to 400 with error body", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/api/generate", model.GenerateRequest{Idea: "  "})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body["error"], "idea")
	})

	t.Run("Malformed JSON maps to 400", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProviderErrorStatuses(t *testing.T) {
	// Ошибки провайдера доходят до delivery без переупаковки, поэтому
	// каждый класс отображается на свой HTTP-статус, а текст исходной
	// ошибки попадает в конверт {"error": ...}.
	cases := []struct {
		name    string
		err     error
		status  int
		wantMsg string
	}{
		{
			name:    "Rate limit maps to 429",
			err:     fmt.Errorf("%w: quota exceeded", ai.ErrRateLimited),
			status:  http.StatusTooManyRequests,
			wantMsg: "quota exceeded",
		},
		{
			name:    "Provider client error maps to 400",
			err:     &ai.ClientError{Code: 400, Message: "prompt was blocked"},
			status:  http.StatusBadRequest,
			wantMsg: "prompt was blocked",
		},
		{
			name:    "Provider server error maps to 502",
			err:     &ai.ServerError{Code: 503, Message: "model overloaded"},
			status:  http.StatusBadGateway,
			wantMsg: "model overloaded",
		},
		{
			name:    "Unclassified error maps to 500",
			err:     errors.New("connection reset by peer"),
			status:  http.StatusInternalServerError,
			wantMsg: "connection reset by peer",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, _, gen := newTestRouter(t)

			gen.On("GenerateText", mock.Anything, "gemini-2.5-flash", mock.Anything).Return("", tc.err).Once()

			rec := doJSON(t, router, http.MethodPost, "/api/generate", model.GenerateRequest{Idea: "idea"})
			require.Equal(t, tc.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tc.wantMsg)
		})
	}
}

func TestOutlineEndpoint(t *testing.T) {
	t.Run("Returns outline text", func(t *testing.T) {
		router, _, gen := newTestRouter(t)

		gen.On("GenerateText", mock.Anything, "gemini-2.5-flash", mock.Anything).Return("1. จุดเริ่มต้น\n2. จุดจบ", nil).Once()

		rec := doJSON(t, router, http.MethodPost, "/api/outline", model.OutlineRequest{Idea: "กระต่ายอยากไปทะเล"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp model.OutlineResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "1. จุดเริ่มต้น\n2. จุดจบ", resp.Outline)
	})

	t.Run("Provider server error maps to 502", func(t *testing.T) {
		router, _, gen := newTestRouter(t)

		gen.On("GenerateText", mock.Anything, "gemini-2.5-flash", mock.Anything).Return("", &ai.ServerError{Code: 500, Message: "internal"}).Once()

		rec := doJSON(t, router, http.MethodPost, "/api/outline", model.OutlineRequest{Idea: "idea"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestIllustrateEndpoint(t *testing.T) {
	t.Run("Rate limit on image generation maps to 429", func(t *testing.T) {
		router, store, gen := newTestRouter(t)

		store.On("GetStory", mock.Anything, int64(8)).Return(model.Story{ID: 8, Title: "กระต่าย"}, nil).Once()
		gen.On("GenerateImage", mock.Anything, "imagen-3.0-generate-002", mock.Anything, "1:1").
			Return(nil, fmt.Errorf("%w: imagen quota", ai.ErrRateLimited)).Once()

		rec := doJSON(t, router, http.MethodPost, "/api/illustrate", model.IllustrateRequest{StoryID: 8})
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body["error"], "imagen quota")
	})

	t.Run("Unknown story maps to 404", func(t *testing.T) {
		router, store, _ := newTestRouter(t)

		store.On("GetStory", mock.Anything, int64(77)).Return(model.Story{}, repository.ErrNotFound).Once()

		rec := doJSON(t, router, http.MethodPost, "/api/illustrate", model.IllustrateRequest{StoryID: 77})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestNextEndpoint_UnknownStory(t *testing.T) {
	router, store, _ := newTestRouter(t)

	store.On("GetStory", mock.Anything, int64(404)).Return(model.Story{}, repository.ErrNotFound).Once()

	rec := doJSON(t, router, http.MethodPost, "/api/next", model.NextChapterRequest{StoryID: 404})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEndpoint_Twice(t *testing.T) {
	router, store, _ := newTestRouter(t)

	store.On("DeleteStory", mock.Anything, int64(4)).Return(true, nil).Once()
	store.On("DeleteStory", mock.Anything, int64(4)).Return(false, nil).Once()

	rec := doJSON(t, router, http.MethodDelete, "/api/story/4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodDelete, "/api/story/4", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEndpoint_LimitClamped(t *testing.T) {
	router, store, _ := newTestRouter(t)

	// Запрошенный лимит выше потолка урезается до 100
	store.On("ListStories", mock.Anything, 100).Return([]model.StorySummary{}, nil).Once()

	rec := doJSON(t, router, http.MethodGet, "/api/stories?limit=5000", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestDownloadEndpoint(t *testing.T) {
	story := model.Story{ID: 42, Title: "กระต่ายผู้กล้า", FullText: "กาลครั้งหนึ่ง..."}
	chapters := []model.Chapter{{Index: 1, Title: "Chapter 1", Text: "กาลครั้งหนึ่ง..."}}

	t.Run("Unknown extension rejected", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		rec := doJSON(t, router, http.MethodGet, "/download/42.xyz", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "md|txt|pdf")
	})

	t.Run("Markdown attachment", func(t *testing.T) {
		router, store, _ := newTestRouter(t)

		store.On("GetStory", mock.Anything, int64(42)).Return(story, nil).Once()
		store.On("ListChapters", mock.Anything, int64(42)).Return(chapters, nil).Once()

		rec := doJSON(t, router, http.MethodGet, "/download/42.md", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".md")
		assert.Contains(t, rec.Body.String(), "# กระต่ายผู้กล้า")
	})

	t.Run("Plain text attachment strips headings", func(t *testing.T) {
		router, store, _ := newTestRouter(t)

		store.On("GetStory", mock.Anything, int64(42)).Return(story, nil).Once()
		store.On("ListChapters", mock.Anything, int64(42)).Return(chapters, nil).Once()

		rec := doJSON(t, router, http.MethodGet, "/download/42.txt", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.NotContains(t, rec.Body.String(), "# กระต่ายผู้กล้า")
	})

	t.Run("Not found story maps to 404", func(t *testing.T) {
		router, store, _ := newTestRouter(t)

		store.On("GetStory", mock.Anything, int64(43)).Return(model.Story{}, repository.ErrNotFound).Once()

		rec := doJSON(t, router, http.MethodGet, "/download/43.md", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
