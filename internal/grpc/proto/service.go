package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName задаёт полное имя gRPC сервиса
const ServiceName = "avbv.v1.ConverterService"

// Полные имена методов, которые видят интерцепторы
const (
	ConvertMethod          = "/" + ServiceName + "/Convert"
	BatchConvertMethod     = "/" + ServiceName + "/BatchConvert"
	GetUserVideosMethod    = "/" + ServiceName + "/GetUserVideos"
	DeleteUserVideosMethod = "/" + ServiceName + "/DeleteUserVideos"
	PingMethod             = "/" + ServiceName + "/Ping"
	GetStatsMethod         = "/" + ServiceName + "/GetStats"
)

// ConverterServiceServer представляет интерфейс gRPC сервиса
type ConverterServiceServer interface {
	Convert(ctx context.Context, req *ConvertRequest) (*ConvertResponse, error)
	BatchConvert(ctx context.Context, req *BatchConvertRequest) (*BatchConvertResponse, error)
	GetUserVideos(ctx context.Context, req *GetUserVideosRequest) (*GetUserVideosResponse, error)
	DeleteUserVideos(ctx context.Context, req *DeleteUserVideosRequest) (*DeleteUserVideosResponse, error)
	Ping(ctx context.Context, req *PingRequest) (*PingResponse, error)
	GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error)
}

// UnimplementedConverterServiceServer отвечает codes.Unimplemented на все методы
type UnimplementedConverterServiceServer struct{}

func (UnimplementedConverterServiceServer) Convert(context.Context, *ConvertRequest) (*ConvertResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Convert not implemented")
}

func (UnimplementedConverterServiceServer) BatchConvert(context.Context, *BatchConvertRequest) (*BatchConvertResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method BatchConvert not implemented")
}

func (UnimplementedConverterServiceServer) GetUserVideos(context.Context, *GetUserVideosRequest) (*GetUserVideosResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetUserVideos not implemented")
}

func (UnimplementedConverterServiceServer) DeleteUserVideos(context.Context, *DeleteUserVideosRequest) (*DeleteUserVideosResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteUserVideos not implemented")
}

func (UnimplementedConverterServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

func (UnimplementedConverterServiceServer) GetStats(context.Context, *GetStatsRequest) (*GetStatsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStats not implemented")
}

// unaryHandler строит обработчик метода для ServiceDesc
func unaryHandler[Req any, Resp any](method string, call func(ConverterServiceServer, context.Context, *Req) (*Resp, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ConverterServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ConverterServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc описывает ConverterService для grpc.Server
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConverterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Convert", Handler: unaryHandler(ConvertMethod, ConverterServiceServer.Convert)},
		{MethodName: "BatchConvert", Handler: unaryHandler(BatchConvertMethod, ConverterServiceServer.BatchConvert)},
		{MethodName: "GetUserVideos", Handler: unaryHandler(GetUserVideosMethod, ConverterServiceServer.GetUserVideos)},
		{MethodName: "DeleteUserVideos", Handler: unaryHandler(DeleteUserVideosMethod, ConverterServiceServer.DeleteUserVideos)},
		{MethodName: "Ping", Handler: unaryHandler(PingMethod, ConverterServiceServer.Ping)},
		{MethodName: "GetStats", Handler: unaryHandler(GetStatsMethod, ConverterServiceServer.GetStats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "avbv/v1/converter.proto",
}

// RegisterConverterServiceServer регистрирует реализацию сервиса в gRPC сервере
func RegisterConverterServiceServer(s grpc.ServiceRegistrar, srv ConverterServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
