package linkrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	Connector_Describe_FullMethodName    = "/link.connector.v1.Connector/Describe"
	Connector_Initialize_FullMethodName  = "/link.connector.v1.Connector/Initialize"
	Connector_Connect_FullMethodName     = "/link.connector.v1.Connector/Connect"
	Connector_Monitor_FullMethodName     = "/link.connector.v1.Connector/Monitor"
	Connector_Disconnect_FullMethodName  = "/link.connector.v1.Connector/Disconnect"
	Connector_Index_FullMethodName       = "/link.connector.v1.Connector/Index"
	Connector_GetSamples_FullMethodName  = "/link.connector.v1.Connector/GetSamples"
	Connector_GetCapsules_FullMethodName = "/link.connector.v1.Connector/GetCapsules"
	Connector_Destroy_FullMethodName     = "/link.connector.v1.Connector/Destroy"
)

// ConnectorClient is the agent side of the connector service.
type ConnectorClient interface {
	Describe(ctx context.Context, in *DescribeRequest, opts ...grpc.CallOption) (*DescribeResponse, error)
	Initialize(ctx context.Context, in *InitializeRequest, opts ...grpc.CallOption) (*InitializeResponse, error)
	Connect(ctx context.Context, in *ConnectionRequest, opts ...grpc.CallOption) (*ConnectResponse, error)
	Monitor(ctx context.Context, in *ConnectionRequest, opts ...grpc.CallOption) (*MonitorResponse, error)
	Disconnect(ctx context.Context, in *ConnectionRequest, opts ...grpc.CallOption) (*Empty, error)
	Index(ctx context.Context, in *IndexRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[IndexBatch], error)
	GetSamples(ctx context.Context, in *GetSamplesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[SamplePage], error)
	GetCapsules(ctx context.Context, in *GetCapsulesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[CapsulePage], error)
	Destroy(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error)
}

type connectorClient struct {
	cc grpc.ClientConnInterface
}

func NewConnectorClient(cc grpc.ClientConnInterface) ConnectorClient {
	return &connectorClient{cc}
}

func (c *connectorClient) Describe(ctx context.Context, in *DescribeRequest, opts ...grpc.CallOption) (*DescribeResponse, error) {
	out := new(DescribeResponse)
	if err := c.cc.Invoke(ctx, Connector_Describe_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *connectorClient) Initialize(ctx context.Context, in *InitializeRequest, opts ...grpc.CallOption) (*InitializeResponse, error) {
	out := new(InitializeResponse)
	if err := c.cc.Invoke(ctx, Connector_Initialize_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *connectorClient) Connect(ctx context.Context, in *ConnectionRequest, opts ...grpc.CallOption) (*ConnectResponse, error) {
	out := new(ConnectResponse)
	if err := c.cc.Invoke(ctx, Connector_Connect_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *connectorClient) Monitor(ctx context.Context, in *ConnectionRequest, opts ...grpc.CallOption) (*MonitorResponse, error) {
	out := new(MonitorResponse)
	if err := c.cc.Invoke(ctx, Connector_Monitor_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *connectorClient) Disconnect(ctx context.Context, in *ConnectionRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, Connector_Disconnect_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *connectorClient) Index(ctx context.Context, in *IndexRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[IndexBatch], error) {
	stream, err := c.cc.NewStream(ctx, &Connector_ServiceDesc.Streams[0], Connector_Index_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[IndexRequest, IndexBatch]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *connectorClient) GetSamples(ctx context.Context, in *GetSamplesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[SamplePage], error) {
	stream, err := c.cc.NewStream(ctx, &Connector_ServiceDesc.Streams[1], Connector_GetSamples_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[GetSamplesRequest, SamplePage]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *connectorClient) GetCapsules(ctx context.Context, in *GetCapsulesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[CapsulePage], error) {
	stream, err := c.cc.NewStream(ctx, &Connector_ServiceDesc.Streams[2], Connector_GetCapsules_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[GetCapsulesRequest, CapsulePage]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *connectorClient) Destroy(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, Connector_Destroy_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// ConnectorServer is the plugin side of the connector service.
// Implementations should embed UnimplementedConnectorServer.
type ConnectorServer interface {
	Describe(context.Context, *DescribeRequest) (*DescribeResponse, error)
	Initialize(context.Context, *InitializeRequest) (*InitializeResponse, error)
	Connect(context.Context, *ConnectionRequest) (*ConnectResponse, error)
	Monitor(context.Context, *ConnectionRequest) (*MonitorResponse, error)
	Disconnect(context.Context, *ConnectionRequest) (*Empty, error)
	Index(*IndexRequest, grpc.ServerStreamingServer[IndexBatch]) error
	GetSamples(*GetSamplesRequest, grpc.ServerStreamingServer[SamplePage]) error
	GetCapsules(*GetCapsulesRequest, grpc.ServerStreamingServer[CapsulePage]) error
	Destroy(context.Context, *Empty) (*Empty, error)
}

type UnimplementedConnectorServer struct{}

func (UnimplementedConnectorServer) Describe(context.Context, *DescribeRequest) (*DescribeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Describe not implemented")
}
func (UnimplementedConnectorServer) Initialize(context.Context, *InitializeRequest) (*InitializeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Initialize not implemented")
}
func (UnimplementedConnectorServer) Connect(context.Context, *ConnectionRequest) (*ConnectResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Connect not implemented")
}
func (UnimplementedConnectorServer) Monitor(context.Context, *ConnectionRequest) (*MonitorResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Monitor not implemented")
}
func (UnimplementedConnectorServer) Disconnect(context.Context, *ConnectionRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Disconnect not implemented")
}
func (UnimplementedConnectorServer) Index(*IndexRequest, grpc.ServerStreamingServer[IndexBatch]) error {
	return status.Error(codes.Unimplemented, "method Index not implemented")
}
func (UnimplementedConnectorServer) GetSamples(*GetSamplesRequest, grpc.ServerStreamingServer[SamplePage]) error {
	return status.Error(codes.Unimplemented, "method GetSamples not implemented")
}
func (UnimplementedConnectorServer) GetCapsules(*GetCapsulesRequest, grpc.ServerStreamingServer[CapsulePage]) error {
	return status.Error(codes.Unimplemented, "method GetCapsules not implemented")
}
func (UnimplementedConnectorServer) Destroy(context.Context, *Empty) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Destroy not implemented")
}

func RegisterConnectorServer(s grpc.ServiceRegistrar, srv ConnectorServer) {
	s.RegisterService(&Connector_ServiceDesc, srv)
}

func _Connector_Describe_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DescribeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConnectorServer).Describe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Connector_Describe_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConnectorServer).Describe(ctx, req.(*DescribeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Connector_Initialize_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(InitializeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConnectorServer).Initialize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Connector_Initialize_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConnectorServer).Initialize(ctx, req.(*InitializeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Connector_Connect_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ConnectionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConnectorServer).Connect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Connector_Connect_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConnectorServer).Connect(ctx, req.(*ConnectionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Connector_Monitor_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ConnectionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConnectorServer).Monitor(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Connector_Monitor_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConnectorServer).Monitor(ctx, req.(*ConnectionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Connector_Disconnect_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ConnectionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConnectorServer).Disconnect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Connector_Disconnect_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConnectorServer).Disconnect(ctx, req.(*ConnectionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Connector_Destroy_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConnectorServer).Destroy(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Connector_Destroy_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConnectorServer).Destroy(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Connector_Index_Handler(srv any, stream grpc.ServerStream) error {
	m := new(IndexRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ConnectorServer).Index(m, &grpc.GenericServerStream[IndexRequest, IndexBatch]{ServerStream: stream})
}

func _Connector_GetSamples_Handler(srv any, stream grpc.ServerStream) error {
	m := new(GetSamplesRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ConnectorServer).GetSamples(m, &grpc.GenericServerStream[GetSamplesRequest, SamplePage]{ServerStream: stream})
}

func _Connector_GetCapsules_Handler(srv any, stream grpc.ServerStream) error {
	m := new(GetCapsulesRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ConnectorServer).GetCapsules(m, &grpc.GenericServerStream[GetCapsulesRequest, CapsulePage]{ServerStream: stream})
}

// Connector_ServiceDesc is the grpc.ServiceDesc for the connector service.
var Connector_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "link.connector.v1.Connector",
	HandlerType: (*ConnectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Describe", Handler: _Connector_Describe_Handler},
		{MethodName: "Initialize", Handler: _Connector_Initialize_Handler},
		{MethodName: "Connect", Handler: _Connector_Connect_Handler},
		{MethodName: "Monitor", Handler: _Connector_Monitor_Handler},
		{MethodName: "Disconnect", Handler: _Connector_Disconnect_Handler},
		{MethodName: "Destroy", Handler: _Connector_Destroy_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Index", Handler: _Connector_Index_Handler, ServerStreams: true},
		{StreamName: "GetSamples", Handler: _Connector_GetSamples_Handler, ServerStreams: true},
		{StreamName: "GetCapsules", Handler: _Connector_GetCapsules_Handler, ServerStreams: true},
	},
	Metadata: "linkrpc/service.go",
}
