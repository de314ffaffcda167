// Package service содержит бизнес-логику преобразования идентификаторов видео
// и ведения истории преобразований пользователей.
package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tempizhere/avbv/internal/codec"
	"github.com/tempizhere/avbv/internal/models"
	"github.com/tempizhere/avbv/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrEmptyID            = errors.New("empty ID")
	ErrEmptyBatch         = errors.New("empty batch")
	ErrEmptyCorrelationID = errors.New("missing correlation_id")
	ErrDuplicateCorrID    = errors.New("duplicate correlation_id")
	ErrServiceClosed      = errors.New("service is closed")
)

// deleteQueueSize задаёт ёмкость очереди фоновых удалений
const deleteQueueSize = 100

type deleteTask struct {
	userID string
	bvids  []string
}

// Service реализует логику работы с идентификаторами
type Service struct {
	repo      repository.Repository
	baseURL   string
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger

	deleteCh chan deleteTask
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// Option настраивает Service
type Option func(*Service)

// WithTokenTTL задаёт срок жизни выдаваемых токенов; неположительное значение игнорируется
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// NewService создаёт новый экземпляр Service и запускает воркер удаления.
// Вызывающий обязан вызвать Close.
func NewService(repo repository.Repository, baseURL, jwtSecret string, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:      repo,
		baseURL:   baseURL,
		jwtSecret: jwtSecret,
		tokenTTL:  DefaultTokenTTL,
		logger:    logger,
		deleteCh:  make(chan deleteTask, deleteQueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.wg.Add(1)
	go s.deleteWorker()
	return s
}

// GetBaseURL возвращает базовый адрес страниц видео
func (s *Service) GetBaseURL() string {
	return s.baseURL
}

// VideoURL формирует ссылку на страницу видео
func (s *Service) VideoURL(bvid string) string {
	return strings.TrimRight(s.baseURL, "/") + "/video/" + bvid
}

// Resolve преобразует идентификатор (av, BV или ссылку на видео) в пару av/BV без записи в историю
func (s *Service) Resolve(id string) (models.Video, error) {
	if strings.TrimSpace(id) == "" {
		return models.Video{}, ErrEmptyID
	}
	raw, kind, err := codec.Extract(id)
	if err != nil {
		return models.Video{}, err
	}

	switch kind {
	case codec.KindBVID:
		aid, err := codec.Decode(raw)
		if err != nil {
			return models.Video{}, err
		}
		// неканоническое тело декодируется, в историю попадает каноническая форма
		return models.Video{AID: aid, BVID: codec.MustEncode(aid)}, nil
	default:
		aid, err := codec.ParseAID(raw)
		if err != nil {
			return models.Video{}, err
		}
		bvid, err := codec.Encode(aid)
		if err != nil {
			return models.Video{}, err
		}
		return models.Video{AID: aid, BVID: bvid}, nil
	}
}

// Convert преобразует идентификатор и записывает результат в историю пользователя.
// Уже записанный BV не считается ошибкой.
func (s *Service) Convert(id, userID string) (models.ConvertResponse, error) {
	video, err := s.Resolve(id)
	if err != nil {
		return models.ConvertResponse{}, err
	}
	video.UserID = userID

	if err := s.repo.Save(video); err != nil && !errors.Is(err, repository.ErrVideoExists) {
		s.logger.Error("Failed to save video", zap.String("bvid", video.BVID), zap.Error(err))
		return models.ConvertResponse{}, err
	}
	return s.toResponse(video), nil
}

// BatchConvert преобразует список идентификаторов и сохраняет их одной операцией
func (s *Service) BatchConvert(reqs []models.BatchRequest, userID string) ([]models.BatchResponse, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}

	resp := make([]models.BatchResponse, len(reqs))
	videos := make([]models.Video, 0, len(reqs))
	corrIDs := make(map[string]struct{}, len(reqs))
	bvids := make(map[string]struct{}, len(reqs))
	for i, req := range reqs {
		if req.CorrelationID == "" {
			return nil, ErrEmptyCorrelationID
		}
		if _, exists := corrIDs[req.CorrelationID]; exists {
			return nil, ErrDuplicateCorrID
		}
		corrIDs[req.CorrelationID] = struct{}{}

		video, err := s.Resolve(req.ID)
		if err != nil {
			return nil, fmt.Errorf("correlation_id %s: %w", req.CorrelationID, err)
		}
		video.UserID = userID
		if _, exists := bvids[video.BVID]; !exists {
			bvids[video.BVID] = struct{}{}
			videos = append(videos, video)
		}

		r := s.toResponse(video)
		resp[i] = models.BatchResponse{
			CorrelationID: req.CorrelationID,
			AID:           r.AID,
			BVID:          r.BVID,
			URL:           r.URL,
		}
	}

	if err := s.repo.BatchSave(videos); err != nil && !errors.Is(err, repository.ErrVideoExists) {
		s.logger.Error("Failed to save batch", zap.Int("count", len(videos)), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// Get возвращает запись истории по BV
func (s *Service) Get(bvid string) (models.Video, bool) {
	return s.repo.Get(bvid)
}

// GetVideosByUserID возвращает историю пользователя
func (s *Service) GetVideosByUserID(userID string) ([]models.ConvertResponse, error) {
	videos, err := s.repo.GetVideosByUserID(userID)
	if err != nil {
		return nil, err
	}
	resp := make([]models.ConvertResponse, len(videos))
	for i, v := range videos {
		resp[i] = s.toResponse(v)
	}
	return resp, nil
}

// GetStats возвращает количество записей и уникальных пользователей
func (s *Service) GetStats() (int, int, error) {
	return s.repo.GetStats()
}

func (s *Service) toResponse(video models.Video) models.ConvertResponse {
	return models.ConvertResponse{
		AID:  video.AID,
		BVID: video.BVID,
		URL:  s.VideoURL(video.BVID),
	}
}
