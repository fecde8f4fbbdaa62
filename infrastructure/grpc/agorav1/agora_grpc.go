package agorav1

import (
	"context"

	"google.golang.org/grpc"
)

const (
	AgoraService_ServiceName                     = "agora.v1.AgoraService"
	AgoraService_CreateAgora_FullMethodName      = "/agora.v1.AgoraService/CreateAgora"
	AgoraService_GetAgora_FullMethodName         = "/agora.v1.AgoraService/GetAgora"
	AgoraService_JoinAgora_FullMethodName        = "/agora.v1.AgoraService/JoinAgora"
	AgoraService_StartAgora_FullMethodName       = "/agora.v1.AgoraService/StartAgora"
	AgoraService_CastEndVote_FullMethodName      = "/agora.v1.AgoraService/CastEndVote"
	AgoraService_CompleteAgora_FullMethodName    = "/agora.v1.AgoraService/CompleteAgora"
	AgoraService_SendChat_FullMethodName         = "/agora.v1.AgoraService/SendChat"
	AgoraService_GetChats_FullMethodName         = "/agora.v1.AgoraService/GetChats"
	AgoraService_SearchByKeyword_FullMethodName  = "/agora.v1.AgoraService/SearchByKeyword"
	AgoraService_SearchByCategory_FullMethodName = "/agora.v1.AgoraService/SearchByCategory"
	AgoraService_Subscribe_FullMethodName        = "/agora.v1.AgoraService/Subscribe"
)

// AgoraServiceServer is the server API for the agora service.
type AgoraServiceServer interface {
	CreateAgora(context.Context, *CreateAgoraRequest) (*Agora, error)
	GetAgora(context.Context, *GetAgoraRequest) (*Agora, error)
	JoinAgora(context.Context, *JoinAgoraRequest) (*JoinAgoraResponse, error)
	StartAgora(context.Context, *AgoraRequest) (*Agora, error)
	CastEndVote(context.Context, *AgoraRequest) (*Agora, error)
	CompleteAgora(context.Context, *AgoraRequest) (*Agora, error)
	SendChat(context.Context, *SendChatRequest) (*Chat, error)
	GetChats(context.Context, *GetChatsRequest) (*GetChatsResponse, error)
	SearchByKeyword(context.Context, *SearchByKeywordRequest) (*SearchResponse, error)
	SearchByCategory(context.Context, *SearchByCategoryRequest) (*SearchResponse, error)
	Subscribe(*SubscribeRequest, AgoraService_SubscribeServer) error
}

type AgoraService_SubscribeServer interface {
	Send(*AgoraEvent) error
	grpc.ServerStream
}

type agoraServiceSubscribeServer struct {
	grpc.ServerStream
}

func (x *agoraServiceSubscribeServer) Send(m *AgoraEvent) error {
	return x.ServerStream.SendMsg(m)
}

func RegisterAgoraServiceServer(s grpc.ServiceRegistrar, srv AgoraServiceServer) {
	s.RegisterService(&AgoraService_ServiceDesc, srv)
}

// unary builds the descriptor of a request/response method.
func unary[Req, Resp any](name, fullMethod string,
	call func(AgoraServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AgoraServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AgoraServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(AgoraServiceServer).Subscribe(m, &agoraServiceSubscribeServer{stream})
}

var AgoraService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AgoraService_ServiceName,
	HandlerType: (*AgoraServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateAgora", AgoraService_CreateAgora_FullMethodName, AgoraServiceServer.CreateAgora),
		unary("GetAgora", AgoraService_GetAgora_FullMethodName, AgoraServiceServer.GetAgora),
		unary("JoinAgora", AgoraService_JoinAgora_FullMethodName, AgoraServiceServer.JoinAgora),
		unary("StartAgora", AgoraService_StartAgora_FullMethodName, AgoraServiceServer.StartAgora),
		unary("CastEndVote", AgoraService_CastEndVote_FullMethodName, AgoraServiceServer.CastEndVote),
		unary("CompleteAgora", AgoraService_CompleteAgora_FullMethodName, AgoraServiceServer.CompleteAgora),
		unary("SendChat", AgoraService_SendChat_FullMethodName, AgoraServiceServer.SendChat),
		unary("GetChats", AgoraService_GetChats_FullMethodName, AgoraServiceServer.GetChats),
		unary("SearchByKeyword", AgoraService_SearchByKeyword_FullMethodName, AgoraServiceServer.SearchByKeyword),
		unary("SearchByCategory", AgoraService_SearchByCategory_FullMethodName, AgoraServiceServer.SearchByCategory),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "agora/v1/agora.json",
}

// AgoraServiceClient is the client API for the agora service.
type AgoraServiceClient interface {
	CreateAgora(ctx context.Context, in *CreateAgoraRequest, opts ...grpc.CallOption) (*Agora, error)
	GetAgora(ctx context.Context, in *GetAgoraRequest, opts ...grpc.CallOption) (*Agora, error)
	JoinAgora(ctx context.Context, in *JoinAgoraRequest, opts ...grpc.CallOption) (*JoinAgoraResponse, error)
	StartAgora(ctx context.Context, in *AgoraRequest, opts ...grpc.CallOption) (*Agora, error)
	CastEndVote(ctx context.Context, in *AgoraRequest, opts ...grpc.CallOption) (*Agora, error)
	CompleteAgora(ctx context.Context, in *AgoraRequest, opts ...grpc.CallOption) (*Agora, error)
	SendChat(ctx context.Context, in *SendChatRequest, opts ...grpc.CallOption) (*Chat, error)
	GetChats(ctx context.Context, in *GetChatsRequest, opts ...grpc.CallOption) (*GetChatsResponse, error)
	SearchByKeyword(ctx context.Context, in *SearchByKeywordRequest, opts ...grpc.CallOption) (*SearchResponse, error)
	SearchByCategory(ctx context.Context, in *SearchByCategoryRequest, opts ...grpc.CallOption) (*SearchResponse, error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (AgoraService_SubscribeClient, error)
}

type AgoraService_SubscribeClient interface {
	Recv() (*AgoraEvent, error)
	grpc.ClientStream
}

type agoraServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAgoraServiceClient returns a client speaking the JSON content-subtype.
func NewAgoraServiceClient(cc grpc.ClientConnInterface) AgoraServiceClient {
	return &agoraServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *agoraServiceClient) CreateAgora(ctx context.Context, in *CreateAgoraRequest, opts ...grpc.CallOption) (*Agora, error) {
	return invoke[Agora](ctx, c.cc, AgoraService_CreateAgora_FullMethodName, in, opts)
}

func (c *agoraServiceClient) GetAgora(ctx context.Context, in *GetAgoraRequest, opts ...grpc.CallOption) (*Agora, error) {
	return invoke[Agora](ctx, c.cc, AgoraService_GetAgora_FullMethodName, in, opts)
}

func (c *agoraServiceClient) JoinAgora(ctx context.Context, in *JoinAgoraRequest, opts ...grpc.CallOption) (*JoinAgoraResponse, error) {
	return invoke[JoinAgoraResponse](ctx, c.cc, AgoraService_JoinAgora_FullMethodName, in, opts)
}

func (c *agoraServiceClient) StartAgora(ctx context.Context, in *AgoraRequest, opts ...grpc.CallOption) (*Agora, error) {
	return invoke[Agora](ctx, c.cc, AgoraService_StartAgora_FullMethodName, in, opts)
}

func (c *agoraServiceClient) CastEndVote(ctx context.Context, in *AgoraRequest, opts ...grpc.CallOption) (*Agora, error) {
	return invoke[Agora](ctx, c.cc, AgoraService_CastEndVote_FullMethodName, in, opts)
}

func (c *agoraServiceClient) CompleteAgora(ctx context.Context, in *AgoraRequest, opts ...grpc.CallOption) (*Agora, error) {
	return invoke[Agora](ctx, c.cc, AgoraService_CompleteAgora_FullMethodName, in, opts)
}

func (c *agoraServiceClient) SendChat(ctx context.Context, in *SendChatRequest, opts ...grpc.CallOption) (*Chat, error) {
	return invoke[Chat](ctx, c.cc, AgoraService_SendChat_FullMethodName, in, opts)
}

func (c *agoraServiceClient) GetChats(ctx context.Context, in *GetChatsRequest, opts ...grpc.CallOption) (*GetChatsResponse, error) {
	return invoke[GetChatsResponse](ctx, c.cc, AgoraService_GetChats_FullMethodName, in, opts)
}

func (c *agoraServiceClient) SearchByKeyword(ctx context.Context, in *SearchByKeywordRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	return invoke[SearchResponse](ctx, c.cc, AgoraService_SearchByKeyword_FullMethodName, in, opts)
}

func (c *agoraServiceClient) SearchByCategory(ctx context.Context, in *SearchByCategoryRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	return invoke[SearchResponse](ctx, c.cc, AgoraService_SearchByCategory_FullMethodName, in, opts)
}

func (c *agoraServiceClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (AgoraService_SubscribeClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &AgoraService_ServiceDesc.Streams[0], AgoraService_Subscribe_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &agoraServiceSubscribeClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type agoraServiceSubscribeClient struct {
	grpc.ClientStream
}

func (x *agoraServiceSubscribeClient) Recv() (*AgoraEvent, error) {
	m := new(AgoraEvent)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
