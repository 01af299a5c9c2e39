package response

import "net/http"

// Code 业务错误码，同时决定 HTTP 状态码.
//
// 号段划分:
//   - 0: 成功
//   - 1xxxx: 请求生命周期，取消与超时
//   - 3xxxx: 客户端输入
//   - 4xxxx: 员工资源状态
//   - 5xxxx 及以上: 服务端故障，消息与附加数据不对外暴露
type Code struct {
	Num        int
	Message    string
	HTTPStatus int
}

// Error 实现 error 接口，便于直接返回错误码.
func (c Code) Error() string {
	return c.Message
}

// Internal 是否为服务端故障.
func (c Code) Internal() bool {
	return c.Num >= 50000
}

// 预定义错误码.
var (
	CodeSuccess = Code{0, "成功", http.StatusOK}

	CodeCanceled = Code{10001, "请求已取消", http.StatusRequestTimeout}
	CodeTimeout  = Code{10002, "请求超时", http.StatusGatewayTimeout}

	CodeInvalidParam     = Code{30001, "参数无效", http.StatusBadRequest}
	CodeValidationFailed = Code{30003, "参数验证失败", http.StatusBadRequest}
	CodeInvalidBody      = Code{30004, "请求体格式错误", http.StatusBadRequest}

	CodeNotFound      = Code{40001, "资源不存在", http.StatusNotFound}
	CodeAlreadyExists = Code{40002, "资源已存在", http.StatusConflict}

	CodeInternal      = Code{50001, "服务器内部错误", http.StatusInternalServerError}
	CodeDatabaseError = Code{50003, "数据库错误", http.StatusInternalServerError}

	CodeServiceUnavailable = Code{60001, "服务不可用", http.StatusServiceUnavailable}
)
