// Package endpoint 定义请求处理单元.
//
// HTTP 适配层和中介者管道都以 Endpoint 为基本单位组装.
package endpoint

import "context"

// Endpoint 处理一个已解码的请求，返回待编码的响应.
type Endpoint func(ctx context.Context, request any) (response any, err error)

// Middleware 包装 Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain 组合中间件，第一个位于最外层；不传参数时原样返回.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
