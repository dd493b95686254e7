package server

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "policyextract.v1.BatchService"

// BatchServiceServer is the server API for BatchService.
type BatchServiceServer interface {
	Select(context.Context, *SelectRequest) (*SelectResponse, error)
	Intake(context.Context, *IntakeRequest) (*IntakeResponse, error)
	IngestPaths(context.Context, *IngestPathsRequest) (*IngestPathsResponse, error)
	Process(context.Context, *ProcessRequest) (*ProcessResponse, error)
	ListTasks(context.Context, *ListTasksRequest) (*ListTasksResponse, error)
	GetTask(context.Context, *GetTaskRequest) (*GetTaskResponse, error)
	Summary(context.Context, *SummaryRequest) (*SummaryResponse, error)
	Export(context.Context, *ExportRequest) (*ExportResponse, error)
	Clear(context.Context, *ClearRequest) (*ClearResponse, error)
	MasterData(context.Context, *MasterDataRequest) (*MasterDataResponse, error)
	History(context.Context, *HistoryRequest) (*HistoryResponse, error)
}

func unary[Req, Resp any](name string, call func(BatchServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BatchServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BatchServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// BatchServiceDesc describes BatchService for grpc.Server registration.
var BatchServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Select", BatchServiceServer.Select),
		unary("Intake", BatchServiceServer.Intake),
		unary("IngestPaths", BatchServiceServer.IngestPaths),
		unary("Process", BatchServiceServer.Process),
		unary("ListTasks", BatchServiceServer.ListTasks),
		unary("GetTask", BatchServiceServer.GetTask),
		unary("Summary", BatchServiceServer.Summary),
		unary("Export", BatchServiceServer.Export),
		unary("Clear", BatchServiceServer.Clear),
		unary("MasterData", BatchServiceServer.MasterData),
		unary("History", BatchServiceServer.History),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "policyextract/v1/batch.json",
}

func RegisterBatchServiceServer(s grpc.ServiceRegistrar, srv BatchServiceServer) {
	s.RegisterService(&BatchServiceDesc, srv)
}

// BatchServiceClient calls BatchService with the JSON codec.
type BatchServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBatchServiceClient(cc grpc.ClientConnInterface) *BatchServiceClient {
	return &BatchServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *BatchServiceClient, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BatchServiceClient) Select(ctx context.Context, in *SelectRequest, opts ...grpc.CallOption) (*SelectResponse, error) {
	return invoke[SelectResponse](ctx, c, "Select", in, opts)
}

func (c *BatchServiceClient) Intake(ctx context.Context, in *IntakeRequest, opts ...grpc.CallOption) (*IntakeResponse, error) {
	return invoke[IntakeResponse](ctx, c, "Intake", in, opts)
}

func (c *BatchServiceClient) IngestPaths(ctx context.Context, in *IngestPathsRequest, opts ...grpc.CallOption) (*IngestPathsResponse, error) {
	return invoke[IngestPathsResponse](ctx, c, "IngestPaths", in, opts)
}

func (c *BatchServiceClient) Process(ctx context.Context, in *ProcessRequest, opts ...grpc.CallOption) (*ProcessResponse, error) {
	return invoke[ProcessResponse](ctx, c, "Process", in, opts)
}

func (c *BatchServiceClient) ListTasks(ctx context.Context, in *ListTasksRequest, opts ...grpc.CallOption) (*ListTasksResponse, error) {
	return invoke[ListTasksResponse](ctx, c, "ListTasks", in, opts)
}

func (c *BatchServiceClient) GetTask(ctx context.Context, in *GetTaskRequest, opts ...grpc.CallOption) (*GetTaskResponse, error) {
	return invoke[GetTaskResponse](ctx, c, "GetTask", in, opts)
}

func (c *BatchServiceClient) Summary(ctx context.Context, in *SummaryRequest, opts ...grpc.CallOption) (*SummaryResponse, error) {
	return invoke[SummaryResponse](ctx, c, "Summary", in, opts)
}

func (c *BatchServiceClient) Export(ctx context.Context, in *ExportRequest, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c, "Export", in, opts)
}

func (c *BatchServiceClient) Clear(ctx context.Context, in *ClearRequest, opts ...grpc.CallOption) (*ClearResponse, error) {
	return invoke[ClearResponse](ctx, c, "Clear", in, opts)
}

func (c *BatchServiceClient) MasterData(ctx context.Context, in *MasterDataRequest, opts ...grpc.CallOption) (*MasterDataResponse, error) {
	return invoke[MasterDataResponse](ctx, c, "MasterData", in, opts)
}

func (c *BatchServiceClient) History(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	return invoke[HistoryResponse](ctx, c, "History", in, opts)
}
