package grpc

import (
	"context"
	"errors"

	"github.com/tempizhere/avbv/internal/codec"
	"github.com/tempizhere/avbv/internal/grpc/proto"
	"github.com/tempizhere/avbv/internal/models"
	"github.com/tempizhere/avbv/internal/repository"
	"github.com/tempizhere/avbv/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server реализует proto.ConverterServiceServer
type Server struct {
	proto.UnimplementedConverterServiceServer
	svc    *service.Service
	db     repository.Database
	logger *zap.Logger
}

// NewServer создаёт реализацию gRPC сервиса
func NewServer(svc *service.Service, db repository.Database, logger *zap.Logger) *Server {
	return &Server{
		svc:    svc,
		db:     db,
		logger: logger,
	}
}

// NewGRPCServer создаёт grpc.Server с интерцепторами и зарегистрированным сервисом
func NewGRPCServer(svc *service.Service, db repository.Database, trustedSubnet string, logger *zap.Logger) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		LoggingInterceptor(logger),
		TrustedSubnetInterceptor(trustedSubnet, logger),
		AuthInterceptor(svc, logger),
	))
	proto.RegisterConverterServiceServer(s, NewServer(svc, db, logger))
	return s
}

// Convert преобразует идентификатор и записывает его в историю пользователя
func (s *Server) Convert(ctx context.Context, req *proto.ConvertRequest) (*proto.ConvertResponse, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.svc.Convert(req.ID, userID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return toProto(resp), nil
}

// BatchConvert обрабатывает пакетное преобразование
func (s *Server) BatchConvert(ctx context.Context, req *proto.BatchConvertRequest) (*proto.BatchConvertResponse, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	requests := make([]models.BatchRequest, len(req.Items))
	for i, item := range req.Items {
		if item == nil {
			return nil, status.Error(codes.InvalidArgument, "batch item cannot be null")
		}
		requests[i] = models.BatchRequest{CorrelationID: item.CorrelationID, ID: item.ID}
	}

	responses, err := s.svc.BatchConvert(requests, userID)
	if err != nil {
		return nil, s.mapError(err)
	}

	items := make([]*proto.BatchResult, len(responses))
	for i, r := range responses {
		items[i] = &proto.BatchResult{
			CorrelationID: r.CorrelationID,
			AID:           r.AID,
			BVID:          r.BVID,
			URL:           r.URL,
		}
	}
	return &proto.BatchConvertResponse{Items: items}, nil
}

// GetUserVideos возвращает историю пользователя
func (s *Server) GetUserVideos(ctx context.Context, req *proto.GetUserVideosRequest) (*proto.GetUserVideosResponse, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	videos, err := s.svc.GetVideosByUserID(userID)
	if err != nil {
		return nil, s.mapError(err)
	}

	resp := &proto.GetUserVideosResponse{Videos: make([]*proto.ConvertResponse, len(videos))}
	for i, v := range videos {
		resp.Videos[i] = toProto(v)
	}
	return resp, nil
}

// DeleteUserVideos ставит удаление записей пользователя в очередь
func (s *Server) DeleteUserVideos(ctx context.Context, req *proto.DeleteUserVideosRequest) (*proto.DeleteUserVideosResponse, error) {
	if len(req.IDs) == 0 {
		return nil, status.Error(codes.InvalidArgument, "ids cannot be empty")
	}

	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.BatchDeleteAsync(userID, req.IDs); err != nil {
		return nil, s.mapError(err)
	}
	return &proto.DeleteUserVideosResponse{Accepted: true}, nil
}

// Ping проверяет состояние базы данных
func (s *Server) Ping(ctx context.Context, req *proto.PingRequest) (*proto.PingResponse, error) {
	if s.db == nil {
		return &proto.PingResponse{DatabaseAvailable: false}, nil
	}
	err := s.db.Ping()
	if err != nil {
		s.logger.Warn("Database ping failed", zap.Error(err))
	}
	return &proto.PingResponse{DatabaseAvailable: err == nil}, nil
}

// GetStats возвращает статистику сервиса
func (s *Server) GetStats(ctx context.Context, req *proto.GetStatsRequest) (*proto.GetStatsResponse, error) {
	videos, users, err := s.svc.GetStats()
	if err != nil {
		return nil, s.mapError(err)
	}
	return &proto.GetStatsResponse{
		Videos: int64(videos),
		Users:  int64(users),
	}, nil
}

func toProto(r models.ConvertResponse) *proto.ConvertResponse {
	return &proto.ConvertResponse{AID: r.AID, BVID: r.BVID, URL: r.URL}
}

// getUserIDFromContext извлекает UserID из контекста
func getUserIDFromContext(ctx context.Context) (string, error) {
	if userID, ok := ctx.Value(userIDKey).(string); ok && userID != "" {
		return userID, nil
	}
	return "", status.Error(codes.Unauthenticated, "user not authenticated")
}

// mapError преобразует ошибки бизнес-логики в gRPC статусы
func (s *Server) mapError(err error) error {
	switch {
	case errors.Is(err, codec.ErrInvalidFormat),
		errors.Is(err, codec.ErrInvalidCharacter),
		errors.Is(err, codec.ErrOutOfRange),
		errors.Is(err, service.ErrEmptyID),
		errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, service.ErrEmptyCorrelationID),
		errors.Is(err, service.ErrDuplicateCorrID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrServiceClosed):
		return status.Error(codes.Unavailable, err.Error())
	default:
		s.logger.Error("Unexpected error", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
}
