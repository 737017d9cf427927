package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// Fully qualified names of the ledger RPCs
const (
	ServiceName         = "ledger.v1.LedgerService"
	CreateAccountMethod = "/" + ServiceName + "/CreateAccount"
	TransferMethod      = "/" + ServiceName + "/Transfer"
	GetBalancesMethod   = "/" + ServiceName + "/GetBalances"
	GetHistoryMethod    = "/" + ServiceName + "/GetHistory"
)

// LedgerServiceServer is the server API for the ledger service
type LedgerServiceServer interface {
	CreateAccount(context.Context, *CreateAccountRequest) (*CreateAccountResponse, error)
	Transfer(context.Context, *TransferRequest) (*TransferResponse, error)
	GetBalances(context.Context, *GetBalancesRequest) (*GetBalancesResponse, error)
	GetHistory(context.Context, *GetHistoryRequest) (*GetHistoryResponse, error)
}

// LedgerServiceDesc describes the ledger service to a grpc.Server
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateAccount", Handler: unaryHandler(CreateAccountMethod, LedgerServiceServer.CreateAccount)},
		{MethodName: "Transfer", Handler: unaryHandler(TransferMethod, LedgerServiceServer.Transfer)},
		{MethodName: "GetBalances", Handler: unaryHandler(GetBalancesMethod, LedgerServiceServer.GetBalances)},
		{MethodName: "GetHistory", Handler: unaryHandler(GetHistoryMethod, LedgerServiceServer.GetHistory)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/ledger",
}

// RegisterLedgerServiceServer registers srv on s
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// unaryHandler decodes the request and runs call through the server's interceptor chain
func unaryHandler[Req, Resp any](
	fullMethod string,
	call func(LedgerServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LedgerClient is the client API for the ledger service
type LedgerClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerClient creates a client on top of an established connection
func NewLedgerClient(cc grpc.ClientConnInterface) *LedgerClient {
	return &LedgerClient{cc: cc}
}

// CreateAccount calls the CreateAccount RPC
func (c *LedgerClient) CreateAccount(ctx context.Context, in *CreateAccountRequest, opts ...grpc.CallOption) (*CreateAccountResponse, error) {
	out := new(CreateAccountResponse)
	if err := c.invoke(ctx, CreateAccountMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Transfer calls the Transfer RPC
func (c *LedgerClient) Transfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*TransferResponse, error) {
	out := new(TransferResponse)
	if err := c.invoke(ctx, TransferMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBalances calls the GetBalances RPC
func (c *LedgerClient) GetBalances(ctx context.Context, in *GetBalancesRequest, opts ...grpc.CallOption) (*GetBalancesResponse, error) {
	out := new(GetBalancesResponse)
	if err := c.invoke(ctx, GetBalancesMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// GetHistory calls the GetHistory RPC
func (c *LedgerClient) GetHistory(ctx context.Context, in *GetHistoryRequest, opts ...grpc.CallOption) (*GetHistoryResponse, error) {
	out := new(GetHistoryResponse)
	if err := c.invoke(ctx, GetHistoryMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LedgerClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}
