package proto

import (
	"context"

	"google.golang.org/grpc"
)

// ConverterServiceClient вызывает методы ConverterService
type ConverterServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewConverterServiceClient создаёт клиента поверх соединения cc
func NewConverterServiceClient(cc grpc.ClientConnInterface) *ConverterServiceClient {
	return &ConverterServiceClient{cc: cc}
}

func (c *ConverterServiceClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *ConverterServiceClient) Convert(ctx context.Context, in *ConvertRequest, opts ...grpc.CallOption) (*ConvertResponse, error) {
	out := new(ConvertResponse)
	if err := c.invoke(ctx, ConvertMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ConverterServiceClient) BatchConvert(ctx context.Context, in *BatchConvertRequest, opts ...grpc.CallOption) (*BatchConvertResponse, error) {
	out := new(BatchConvertResponse)
	if err := c.invoke(ctx, BatchConvertMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ConverterServiceClient) GetUserVideos(ctx context.Context, in *GetUserVideosRequest, opts ...grpc.CallOption) (*GetUserVideosResponse, error) {
	out := new(GetUserVideosResponse)
	if err := c.invoke(ctx, GetUserVideosMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ConverterServiceClient) DeleteUserVideos(ctx context.Context, in *DeleteUserVideosRequest, opts ...grpc.CallOption) (*DeleteUserVideosResponse, error) {
	out := new(DeleteUserVideosResponse)
	if err := c.invoke(ctx, DeleteUserVideosMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ConverterServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.invoke(ctx, PingMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ConverterServiceClient) GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*GetStatsResponse, error) {
	out := new(GetStatsResponse)
	if err := c.invoke(ctx, GetStatsMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
