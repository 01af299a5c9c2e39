// Package response 定义统一的 JSON 响应体和错误码.
//
//	{"code": 0, "message": "成功", "data": {...}}
//
// 失败时 data 携带附加数据，如字段校验错误，没有时省略.
package response

// Response 统一响应体.
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// OK 创建成功响应.
func OK[T any](data T) Response[T] {
	return Response[T]{
		Code:    CodeSuccess.Num,
		Message: CodeSuccess.Message,
		Data:    data,
	}
}

// FromError 从错误创建失败响应.
func FromError(err error) Response[any] {
	code, message, details := resolve(err)
	return Response[any]{Code: code.Num, Message: message, Data: details}
}
