// Package app содержит HTTP-обработчики сервиса преобразования идентификаторов.
package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tempizhere/avbv/internal/codec"
	"github.com/tempizhere/avbv/internal/middleware"
	"github.com/tempizhere/avbv/internal/models"
	"github.com/tempizhere/avbv/internal/repository"
	"github.com/tempizhere/avbv/internal/service"
	"go.uber.org/zap"
)

// App содержит хендлеры и зависимости
type App struct {
	svc    *service.Service
	db     repository.Database
	logger *zap.Logger
}

// NewApp создаёт новое приложение
func NewApp(svc *service.Service, db repository.Database, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{svc: svc, db: db, logger: logger}
}

// errorStatus сопоставляет ошибку сервиса с HTTP-статусом
func errorStatus(err error) int {
	switch {
	case errors.Is(err, codec.ErrInvalidFormat),
		errors.Is(err, codec.ErrInvalidCharacter),
		errors.Is(err, codec.ErrOutOfRange),
		errors.Is(err, service.ErrEmptyID),
		errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, service.ErrEmptyCorrelationID),
		errors.Is(err, service.ErrDuplicateCorrID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrServiceClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError пишет текст ошибки клиента или общий ответ для внутренних ошибок
func (a *App) writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("Request failed", zap.Error(err))
		http.Error(w, "Internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

// writeText пишет ответ text/plain
func (a *App) writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		a.logger.Error("Failed to write response", zap.Error(err))
	}
}

// HandleConvertText обрабатывает GET-запросы на "/{id}": BV превращается в десятичный aid, av в BV
func (a *App) HandleConvertText(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing video ID", http.StatusBadRequest)
		return
	}
	_, kind, err := codec.Extract(id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	video, err := a.svc.Resolve(id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if kind == codec.KindBVID {
		a.writeText(w, http.StatusOK, strconv.FormatUint(video.AID, 10))
		return
	}
	a.writeText(w, http.StatusOK, video.BVID)
}

// HandlePostText обрабатывает POST-запросы на "/": тело содержит идентификатор в любой форме,
// ответ содержит BV, запись попадает в историю пользователя
func (a *App) HandlePostText(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	resp, err := a.svc.Convert(string(body), userID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeText(w, http.StatusCreated, resp.BVID)
}

// HandleRedirect обрабатывает GET-запросы на "/video/{id}" и перенаправляет на страницу видео
func (a *App) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	video, err := a.svc.Resolve(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.Header().Set("Location", a.svc.VideoURL(video.BVID))
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// HandleJSONConvert обрабатывает POST-запросы на "/api/convert"
func (a *App) HandleJSONConvert(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}
	var req models.ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	resp, err := a.svc.Convert(req.ID, userID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusCreated, resp)
}

// HandleBatchConvert обрабатывает POST-запросы на "/api/convert/batch"
func (a *App) HandleBatchConvert(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}
	var reqs []models.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	resp, err := a.svc.BatchConvert(reqs, userID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusCreated, resp)
}

// HandleUserVideos обрабатывает GET-запросы на "/api/user/videos"
func (a *App) HandleUserVideos(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	videos, err := a.svc.GetVideosByUserID(userID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if len(videos) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, videos)
}

// HandleDeleteUserVideos обрабатывает DELETE-запросы на "/api/user/videos".
// Тело содержит JSON-массив идентификаторов, удаление выполняется асинхронно.
func (a *App) HandleDeleteUserVideos(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var ids []string
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if len(ids) == 0 {
		http.Error(w, "Empty ID list", http.StatusBadRequest)
		return
	}

	if err := a.svc.BatchDeleteAsync(userID, ids); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleStats обрабатывает GET-запросы на "/api/internal/stats"
func (a *App) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	videos, users, err := a.svc.GetStats()
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, models.StatsResponse{Videos: videos, Users: users})
}

// HandlePing обрабатывает GET-запросы на "/ping"
func (a *App) HandlePing(w http.ResponseWriter, r *http.Request) {
	if a.db == nil {
		http.Error(w, "Database not configured", http.StatusInternalServerError)
		return
	}
	if err := a.db.Ping(); err != nil {
		a.logger.Error("Database ping failed", zap.Error(err))
		http.Error(w, "Database connection failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// writeJSONResponse пишет JSON-ответ с проверкой ошибок
func (a *App) writeJSONResponse(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		a.logger.Error("Failed to encode JSON", zap.Error(err))
		http.Error(w, "Failed to encode JSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		a.logger.Error("Failed to write response", zap.Error(err))
	}
}
