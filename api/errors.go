package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Tsukikage7/employee-service/employee"
	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/recovery"
	"github.com/Tsukikage7/employee-service/transport/http/server"
	"github.com/Tsukikage7/employee-service/transport/response"
	"github.com/Tsukikage7/employee-service/uow"
)

// 响应消息.
const (
	MsgValidationFailed = "One or more validation errors occurred."
	MsgInvalidBody      = "The request body is not valid JSON."
	MsgDuplicateEmail   = "An employee with this email already exists."
)

func notFound(id employee.ID) error {
	return response.NewErrorWithMessage(response.CodeNotFound, fmt.Sprintf("Employee with ID %s not found.", id))
}

func notFoundForUpdate(id employee.ID) error {
	return response.NewErrorWithMessage(response.CodeNotFound, fmt.Sprintf("Employee with ID %s not found for update.", id))
}

func notFoundForDeletion(id employee.ID) error {
	return response.NewErrorWithMessage(response.CodeNotFound, fmt.Sprintf("Employee with ID %s not found for deletion.", id))
}

// translate 将应用层错误映射为业务错误.
//
// 已是业务错误的保持不变；无法识别的错误按内部错误处理，消息对客户端隐藏.
func translate(err error) error {
	if response.IsBusinessError(err) {
		return err
	}

	var (
		verr *employee.ValidationError
		perr *recovery.PanicError
	)
	switch {
	case errors.As(err, &verr):
		return response.WrapWithMessage(response.CodeValidationFailed, MsgValidationFailed, err).
			WithDetails(verr.Errors)
	case errors.Is(err, employee.ErrDuplicateEmail):
		return response.WrapWithMessage(response.CodeAlreadyExists, MsgDuplicateEmail, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.As(err, &perr), errors.Is(err, uow.ErrInvalidState):
		return response.Wrap(response.CodeInternal, err)
	default:
		return response.Wrap(response.CodeDatabaseError, err)
	}
}

// errorEncoder 映射错误并写入统一响应，服务端错误记录日志.
func errorEncoder(log logger.Logger) server.EncodeErrorFunc {
	return func(ctx context.Context, err error, w http.ResponseWriter) {
		mapped := translate(err)
		if code := response.ExtractCode(mapped); code.HTTPStatus >= http.StatusInternalServerError {
			log.WithContext(ctx).With(
				logger.Int("code", code.Num),
				logger.Err(err),
			).Error("[Employee] 请求处理失败")
		}
		server.ResponseErrorEncoder(ctx, mapped, w)
	}
}
