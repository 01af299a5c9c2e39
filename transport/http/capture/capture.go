// Package capture 记录处理器实际写出的状态码与响应字节数，
// 供指标与链路追踪中间件读取.
package capture

import "net/http"

// Writer 包装 http.ResponseWriter.
type Writer struct {
	http.ResponseWriter
	status int
	size   int
}

// Wrap 包装 w，处理器未显式写状态码时记为 200.
func Wrap(w http.ResponseWriter) *Writer {
	return &Writer{ResponseWriter: w}
}

// Status 返回写出的状态码.
func (w *Writer) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Size 返回已写出的响应体字节数.
func (w *Writer) Size() int { return w.size }

func (w *Writer) WriteHeader(code int) {
	// 只记录第一次，与 net/http 忽略重复 WriteHeader 的行为一致
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *Writer) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Unwrap 供 http.ResponseController 访问底层连接.
func (w *Writer) Unwrap() http.ResponseWriter { return w.ResponseWriter }
