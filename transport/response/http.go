package response

import (
	"encoding/json"
	"net/http"
)

// WriteJSON 写入 JSON 响应.
func WriteJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// WriteError 按错误码写入失败响应.
func WriteError(w http.ResponseWriter, err error) error {
	return WriteJSON(w, ExtractCode(err).HTTPStatus, FromError(err))
}
