package server

import (
	"context"
	"net/http"

	"github.com/Tsukikage7/employee-service/endpoint"
	"github.com/Tsukikage7/employee-service/transport/response"
)

// DecodeRequestFunc 把 HTTP 请求解码为命令或查询.
type DecodeRequestFunc func(ctx context.Context, r *http.Request) (request any, err error)

// EncodeResponseFunc 编码成功结果.
type EncodeResponseFunc func(ctx context.Context, w http.ResponseWriter, response any) error

// EncodeErrorFunc 编码解码或处理阶段的错误.
type EncodeErrorFunc func(ctx context.Context, err error, w http.ResponseWriter)

// EndpointHandler 按 解码、调用、编码 的顺序把 Endpoint 暴露为 http.Handler.
//
//	mux.Handle("GET /api/employee/{id}", server.NewEndpointHandler(
//	    getEmployee, decodeID, server.EncodeJSONResponse,
//	))
type EndpointHandler struct {
	endpoint     endpoint.Endpoint
	dec          DecodeRequestFunc
	enc          EncodeResponseFunc
	errorEncoder EncodeErrorFunc
}

// EndpointOption EndpointHandler 配置选项.
type EndpointOption func(*EndpointHandler)

// WithErrorEncoder 替换默认的错误编码器.
func WithErrorEncoder(enc EncodeErrorFunc) EndpointOption {
	return func(h *EndpointHandler) { h.errorEncoder = enc }
}

// NewEndpointHandler 创建 EndpointHandler，默认以统一响应体编码错误.
func NewEndpointHandler(e endpoint.Endpoint, dec DecodeRequestFunc, enc EncodeResponseFunc, opts ...EndpointOption) *EndpointHandler {
	h := &EndpointHandler{
		endpoint:     e,
		dec:          dec,
		enc:          enc,
		errorEncoder: ResponseErrorEncoder,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *EndpointHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	request, err := h.dec(ctx, r)
	if err != nil {
		h.errorEncoder(ctx, err, w)
		return
	}

	resp, err := h.endpoint(ctx, request)
	if err != nil {
		h.errorEncoder(ctx, err, w)
		return
	}

	// 状态码已写出，编码失败只能丢弃
	_ = h.enc(ctx, w, resp)
}

// ResponseErrorEncoder 以 {"code", "message", "data"} 写出错误，服务端故障不暴露细节.
func ResponseErrorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	_ = response.WriteError(w, err)
}

// StatusCoder 由成功状态码不是 200 的结果实现.
type StatusCoder interface {
	StatusCode() int
}

// EncodeJSONResponse 把结果包装为统一响应体.
func EncodeJSONResponse(_ context.Context, w http.ResponseWriter, resp any) error {
	status := http.StatusOK
	if sc, ok := resp.(StatusCoder); ok {
		status = sc.StatusCode()
	}
	return response.WriteJSON(w, status, response.OK(resp))
}
