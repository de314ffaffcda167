package grpc

import (
	"context"
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempizhere/avbv/internal/grpc/proto"
	"github.com/tempizhere/avbv/internal/repository"
	"github.com/tempizhere/avbv/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type testEnv struct {
	repo   *repository.MemoryRepository
	svc    *service.Service
	client *proto.ConverterServiceClient
}

// setupTestServer поднимает сервер на bufconn и возвращает клиента к нему
func setupTestServer(t *testing.T, db repository.Database) *testEnv {
	t.Helper()

	repo := repository.NewMemoryRepository()
	svc := service.NewService(repo, "https://www.bilibili.com", "test-secret", zap.NewNop())

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(svc, db, "192.168.1.0/24", zap.NewNop())
	go func() {
		_ = srv.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
		svc.Close()
	})

	return &testEnv{repo: repo, svc: svc, client: proto.NewConverterServiceClient(conn)}
}

func (e *testEnv) authContext(t *testing.T, userID string) context.Context {
	t.Helper()
	token, err := e.svc.GenerateJWT(userID)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), AuthorizationHeader, "Bearer "+token)
}

func TestServer_Convert(t *testing.T) {
	env := setupTestServer(t, nil)

	tests := []struct {
		name         string
		id           string
		expectedCode codes.Code
		expected     *proto.ConvertResponse
	}{
		{"BV", "BV1L9Uoa9EUx", codes.OK, &proto.ConvertResponse{AID: 111298867365120, BVID: "BV1L9Uoa9EUx", URL: "https://www.bilibili.com/video/BV1L9Uoa9EUx"}},
		{"av", "av170001", codes.OK, &proto.ConvertResponse{AID: 170001, BVID: "BV17x411w7KC", URL: "https://www.bilibili.com/video/BV17x411w7KC"}},
		{"Video URL", "https://www.bilibili.com/video/BV18x4y187DE", codes.OK, &proto.ConvertResponse{AID: 1003283555, BVID: "BV18x4y187DE", URL: "https://www.bilibili.com/video/BV18x4y187DE"}},
		{"Wrong prefix", "XX1234567890", codes.InvalidArgument, nil},
		{"Invalid character", "BV1000000000", codes.InvalidArgument, nil},
		{"Out of range", "av2251799813685248", codes.InvalidArgument, nil},
		{"Empty", "", codes.InvalidArgument, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.client.Convert(env.authContext(t, "user-1"), &proto.ConvertRequest{ID: tt.id})
			assert.Equal(t, tt.expectedCode, status.Code(err))
			if tt.expected != nil {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, resp)
			}
		})
	}
}

func TestServer_Convert_IssuesToken(t *testing.T) {
	env := setupTestServer(t, nil)

	var header metadata.MD
	_, err := env.client.Convert(context.Background(), &proto.ConvertRequest{ID: "av170001"}, grpc.Header(&header))
	require.NoError(t, err)

	auth := header.Get(AuthorizationHeader)
	require.Len(t, auth, 1)
	userID, err := env.svc.ParseJWT(auth[0][len("Bearer "):])
	require.NoError(t, err)

	video, ok := env.repo.Get("BV17x411w7KC")
	require.True(t, ok)
	assert.Equal(t, userID, video.UserID)
}

func TestServer_BatchConvert(t *testing.T) {
	env := setupTestServer(t, nil)
	ctx := env.authContext(t, "user-1")

	resp, err := env.client.BatchConvert(ctx, &proto.BatchConvertRequest{Items: []*proto.BatchItem{
		{CorrelationID: "a", ID: "av1"},
		{CorrelationID: "b", ID: "BV1xx411c7mD"},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, &proto.BatchResult{CorrelationID: "a", AID: 1, BVID: "BV1xx411c7mQ", URL: "https://www.bilibili.com/video/BV1xx411c7mQ"}, resp.Items[0])
	assert.Equal(t, uint64(2), resp.Items[1].AID)

	_, err = env.client.BatchConvert(ctx, &proto.BatchConvertRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = env.client.BatchConvert(ctx, &proto.BatchConvertRequest{Items: []*proto.BatchItem{
		{CorrelationID: "a", ID: "av1"},
		{CorrelationID: "a", ID: "av2"},
	}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = env.client.BatchConvert(ctx, &proto.BatchConvertRequest{Items: []*proto.BatchItem{nil}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_UserVideos(t *testing.T) {
	env := setupTestServer(t, nil)
	ctx := env.authContext(t, "user-1")

	resp, err := env.client.GetUserVideos(ctx, &proto.GetUserVideosRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Videos)

	_, err = env.client.Convert(ctx, &proto.ConvertRequest{ID: "av170001"})
	require.NoError(t, err)
	_, err = env.client.Convert(env.authContext(t, "user-2"), &proto.ConvertRequest{ID: "av170002"})
	require.NoError(t, err)

	resp, err = env.client.GetUserVideos(ctx, &proto.GetUserVideosRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Videos, 1)
	assert.Equal(t, "BV17x411w7KC", resp.Videos[0].BVID)

	t.Run("Delete requires token", func(t *testing.T) {
		_, err := env.client.DeleteUserVideos(context.Background(), &proto.DeleteUserVideosRequest{IDs: []string{"av170001"}})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Delete requires ids", func(t *testing.T) {
		_, err := env.client.DeleteUserVideos(ctx, &proto.DeleteUserVideosRequest{})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("Delete accepted", func(t *testing.T) {
		del, err := env.client.DeleteUserVideos(ctx, &proto.DeleteUserVideosRequest{IDs: []string{"BV17x411w7KC"}})
		require.NoError(t, err)
		assert.True(t, del.Accepted)

		assert.Eventually(t, func() bool {
			video, ok := env.repo.Get("BV17x411w7KC")
			return ok && video.DeletedFlag
		}, time.Second, 10*time.Millisecond)
	})
}

func TestServer_Ping(t *testing.T) {
	ctrl := gomock.NewController(t)

	t.Run("No database", func(t *testing.T) {
		env := setupTestServer(t, nil)
		resp, err := env.client.Ping(context.Background(), &proto.PingRequest{})
		require.NoError(t, err)
		assert.False(t, resp.DatabaseAvailable)
	})

	t.Run("Database available", func(t *testing.T) {
		db := repository.NewMockDatabase(ctrl)
		db.EXPECT().Ping().Return(nil)
		env := setupTestServer(t, db)
		resp, err := env.client.Ping(context.Background(), &proto.PingRequest{})
		require.NoError(t, err)
		assert.True(t, resp.DatabaseAvailable)
	})

	t.Run("Database down", func(t *testing.T) {
		db := repository.NewMockDatabase(ctrl)
		db.EXPECT().Ping().Return(errors.New("connection refused"))
		env := setupTestServer(t, db)
		resp, err := env.client.Ping(context.Background(), &proto.PingRequest{})
		require.NoError(t, err)
		assert.False(t, resp.DatabaseAvailable)
	})
}

func TestServer_GetStats(t *testing.T) {
	env := setupTestServer(t, nil)

	_, err := env.client.Convert(env.authContext(t, "user-1"), &proto.ConvertRequest{ID: "av1"})
	require.NoError(t, err)
	_, err = env.client.Convert(env.authContext(t, "user-2"), &proto.ConvertRequest{ID: "av2"})
	require.NoError(t, err)

	trusted := metadata.AppendToOutgoingContext(context.Background(), "x-real-ip", "192.168.1.10")
	resp, err := env.client.GetStats(trusted, &proto.GetStatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, &proto.GetStatsResponse{Videos: 2, Users: 2}, resp)

	untrusted := metadata.AppendToOutgoingContext(context.Background(), "x-real-ip", "10.0.0.1")
	_, err = env.client.GetStats(untrusted, &proto.GetStatsRequest{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = env.client.GetStats(context.Background(), &proto.GetStatsRequest{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

// statsRepository отдаёт заданную статистику поверх репозитория в памяти
type statsRepository struct {
	*repository.MemoryRepository
	videos, users int
}

func (r *statsRepository) GetStats() (int, int, error) {
	return r.videos, r.users, nil
}

func TestServer_GetStats_LargeCounts(t *testing.T) {
	repo := &statsRepository{
		MemoryRepository: repository.NewMemoryRepository(),
		videos:           5_000_000_000,
		users:            math.MaxInt32 + 1,
	}
	svc := service.NewService(repo, "https://www.bilibili.com", "test-secret", zap.NewNop())
	t.Cleanup(svc.Close)
	s := NewServer(svc, nil, zap.NewNop())

	resp, err := s.GetStats(context.Background(), &proto.GetStatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000), resp.Videos)
	assert.Equal(t, int64(math.MaxInt32)+1, resp.Users)
}

func TestServer_Unimplemented(t *testing.T) {
	var srv proto.UnimplementedConverterServiceServer
	_, err := srv.Convert(context.Background(), &proto.ConvertRequest{})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestMapError(t *testing.T) {
	s := NewServer(nil, nil, zap.NewNop())
	assert.Equal(t, codes.InvalidArgument, status.Code(s.mapError(service.ErrEmptyBatch)))
	assert.Equal(t, codes.Unavailable, status.Code(s.mapError(service.ErrServiceClosed)))
	assert.Equal(t, codes.Internal, status.Code(s.mapError(errors.New("disk full"))))
}
