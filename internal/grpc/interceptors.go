// Package grpc содержит gRPC транспорт сервиса: реализацию ConverterService и интерцепторы
package grpc

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/tempizhere/avbv/internal/grpc/proto"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// contextKey определяет тип для ключей контекста
type contextKey string

const userIDKey contextKey = "userID"

// AuthorizationHeader задаёт ключ метаданных с Bearer-токеном
const AuthorizationHeader = "authorization"

// TokenIssuer выдаёт и проверяет токены пользователей
type TokenIssuer interface {
	GenerateUserID() (string, error)
	GenerateJWT(userID string) (string, error)
	ParseJWT(token string) (string, error)
}

// publicMethods не требуют пользователя
var publicMethods = map[string]bool{
	proto.PingMethod:     true,
	proto.GetStatsMethod: true,
}

// existingUserMethods требуют уже выданный токен
var existingUserMethods = map[string]bool{
	proto.DeleteUserVideosMethod: true,
}

// AuthInterceptor создаёт интерцептор для аутентификации пользователей.
// Без валидного токена пользователь получает новый, он возвращается в заголовке ответа.
func AuthInterceptor(issuer TokenIssuer, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		var userID string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if authHeaders := md.Get(AuthorizationHeader); len(authHeaders) > 0 && strings.HasPrefix(authHeaders[0], "Bearer ") {
				id, err := issuer.ParseJWT(strings.TrimPrefix(authHeaders[0], "Bearer "))
				if err != nil {
					logger.Warn("Invalid JWT token", zap.Error(err))
				} else {
					userID = id
				}
			}
		}

		if userID == "" {
			if existingUserMethods[info.FullMethod] {
				return nil, status.Error(codes.Unauthenticated, "valid token required")
			}

			var err error
			userID, err = issuer.GenerateUserID()
			if err != nil {
				logger.Error("Failed to generate user ID", zap.Error(err))
				return nil, status.Error(codes.Internal, "failed to generate user ID")
			}
			token, err := issuer.GenerateJWT(userID)
			if err != nil {
				logger.Error("Failed to generate JWT", zap.Error(err))
				return nil, status.Error(codes.Internal, "failed to generate JWT")
			}
			if err := grpc.SetHeader(ctx, metadata.Pairs(AuthorizationHeader, "Bearer "+token)); err != nil {
				logger.Error("Failed to set response header", zap.Error(err))
			}
			logger.Info("Generated new JWT for gRPC", zap.String("user_id", userID))
		}

		return handler(context.WithValue(ctx, userIDKey, userID), req)
	}
}

// clientIP берёт адрес из метаданных x-real-ip, иначе из адреса соединения
func clientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ips := md.Get("x-real-ip"); len(ips) > 0 {
			return ips[0]
		}
	}
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	if tcpAddr, ok := p.Addr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}
	return p.Addr.String()
}

// TrustedSubnetInterceptor пропускает GetStats только из доверенной подсети
func TrustedSubnetInterceptor(trustedSubnet string, logger *zap.Logger) grpc.UnaryServerInterceptor {
	var subnet *net.IPNet
	var parseErr error
	if trustedSubnet != "" {
		_, subnet, parseErr = net.ParseCIDR(trustedSubnet)
		if parseErr != nil {
			logger.Error("Invalid trusted subnet", zap.String("subnet", trustedSubnet), zap.Error(parseErr))
		}
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if info.FullMethod != proto.GetStatsMethod {
			return handler(ctx, req)
		}
		if trustedSubnet == "" {
			return nil, status.Error(codes.PermissionDenied, "trusted subnet not configured")
		}
		if parseErr != nil {
			return nil, status.Error(codes.Internal, "invalid trusted subnet configuration")
		}

		ip := clientIP(ctx)
		parsed := net.ParseIP(ip)
		if parsed == nil || !subnet.Contains(parsed) {
			logger.Warn("Access denied from untrusted IP", zap.String("ip", ip))
			return nil, status.Error(codes.PermissionDenied, "access denied")
		}
		return handler(ctx, req)
	}
}

// LoggingInterceptor создаёт интерцептор для логирования gRPC запросов
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("client_ip", clientIP(ctx)),
			zap.String("status_code", code.String()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		if code == codes.Internal || code == codes.Unknown {
			logger.Error("gRPC request", fields...)
		} else {
			logger.Info("gRPC request", fields...)
		}
		return resp, err
	}
}
