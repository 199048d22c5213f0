package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// Mux is the subset of *http.ServeMux that handlers are registered on
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// Procedure builds the connect procedure path for a method of service
func Procedure(service, method string) string {
	return "/" + service + "/" + method
}

// Unary registers fn as a connect unary handler using the JSON codec
func Unary[Req, Res any](mux Mux, procedure string, fn func(context.Context, *Req) (*Res, error), opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	handler := connect.NewUnaryHandler(procedure, func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
		res, err := fn(ctx, req.Msg)
		if err != nil {
			return nil, err
		}
		return connect.NewResponse(res), nil
	}, opts...)
	mux.Handle(procedure, handler)
}

// NewClient returns a connect client for procedure at baseURL using the JSON codec
func NewClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts ...connect.ClientOption) *connect.Client[Req, Res] {
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return connect.NewClient[Req, Res](httpClient, baseURL+procedure, opts...)
}
