package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"story-server/internal/export"
	"story-server/internal/model"
	"story-server/internal/repository"
	"story-server/internal/service"
	"story-server/pkg/ai"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Handler представляет HTTP обработчик
type Handler struct {
	storyService *service.StoryService
	pdf          *export.PDFRenderer
}

// New создает новый экземпляр обработчика
func New(storyService *service.StoryService, pdf *export.PDFRenderer) *Handler {
	return &Handler{
		storyService: storyService,
		pdf:          pdf,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *Handler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/generate", h.Generate).Methods("POST")
	api.HandleFunc("/outline", h.Outline).Methods("POST")
	api.HandleFunc("/next", h.NextChapter).Methods("POST")
	api.HandleFunc("/illustrate", h.Illustrate).Methods("POST")
	api.HandleFunc("/stories", h.ListStories).Methods("GET")
	api.HandleFunc("/story/{id:[0-9]+}", h.GetStory).Methods("GET")
	api.HandleFunc("/story/{id:[0-9]+}", h.DeleteStory).Methods("DELETE")

	router.HandleFunc("/download/{id:[0-9]+}.{ext}", h.Download).Methods("GET")
}

// Generate создает новую историю по параметрам запроса
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("неверный формат запроса: %v", err))
		return
	}

	resp, err := h.storyService.Generate(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, resp)
}

// Outline генерирует план истории без сохранения
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	var req model.OutlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("неверный формат запроса: %v", err))
		return
	}

	resp, err := h.storyService.Outline(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, resp)
}

// NextChapter генерирует следующую главу существующей истории
func (h *Handler) NextChapter(w http.ResponseWriter, r *http.Request) {
	var req model.NextChapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("неверный формат запроса: %v", err))
		return
	}

	resp, err := h.storyService.Continue(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, resp)
}

// Illustrate генерирует изображение для истории
func (h *Handler) Illustrate(w http.ResponseWriter, r *http.Request) {
	var req model.IllustrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("неверный формат запроса: %v", err))
		return
	}

	resp, err := h.storyService.Illustrate(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, resp)
}

// GetStory возвращает историю вместе с главами
func (h *Handler) GetStory(w http.ResponseWriter, r *http.Request) {
	id, err := storyID(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.storyService.GetStory(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, resp)
}

// ListStories возвращает последние истории
func (h *Handler) ListStories(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	resp, err := h.storyService.ListStories(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, resp)
}

// DeleteStory удаляет историю по id
func (h *Handler) DeleteStory(w http.ResponseWriter, r *http.Request) {
	id, err := storyID(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storyService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Download отдает историю файлом в формате md, txt или pdf
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := storyID(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	ext := mux.Vars(r)["ext"]

	if ext != "md" && ext != "txt" && ext != "pdf" {
		RespondWithError(w, http.StatusBadRequest, "ext must be md|txt|pdf")
		return
	}

	detail, err := h.storyService.GetStory(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	md := export.Markdown(detail.Story, detail.Chapters)
	base := export.Filename(detail.Story.Title, detail.Story.ID)

	switch ext {
	case "md":
		sendAttachment(w, base+".md", "text/markdown; charset=utf-8", []byte(md))
	case "txt":
		sendAttachment(w, base+".txt", "text/plain; charset=utf-8", []byte(export.PlainText(md)))
	case "pdf":
		pdfBytes, err := h.pdf.Render(detail.Story.Title, md)
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("ошибка рендера PDF")
			RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		sendAttachment(w, base+".pdf", "application/pdf", pdfBytes)
	}
}

// storyID извлекает id истории из переменных маршрута.
func storyID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("неверный id истории: %v", err)
	}
	return id, nil
}

// sendAttachment отправляет содержимое файлом-вложением. Имя файла
// может содержать тайские символы и уходит в Content-Disposition как
// сырой UTF-8 в кавычках, без кодирования filename* по RFC 5987.
func sendAttachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// respondServiceError переводит ошибку сервиса в HTTP-ответ. Сообщение
// исходной ошибки всегда попадает в ответ для диагностики.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Msg("ошибка обработки запроса")
	} else {
		log.Ctx(r.Context()).Warn().Err(err).Int("status", status).Msg("запрос отклонен")
	}
	RespondWithError(w, status, err.Error())
}

// statusForError отображает таксономию ошибок конвейера на HTTP-коды.
func statusForError(err error) int {
	var clientErr *ai.ClientError
	var serverErr *ai.ServerError

	switch {
	case errors.Is(err, service.ErrEmptyIdea):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ai.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &clientErr):
		return http.StatusBadRequest
	case errors.As(err, &serverErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError отправляет ошибку в формате JSON
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithJSON отправляет ответ в формате JSON
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
