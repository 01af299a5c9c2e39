// Package api 提供员工管理的 HTTP 接口.
//
// 路由挂载在 /api/employee 下，请求经解码后通过中介者分发给用例处理器，
// 响应统一使用 {"code", "message", "data"} 格式.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Tsukikage7/employee-service/application"
	"github.com/Tsukikage7/employee-service/cqrs"
	"github.com/Tsukikage7/employee-service/employee"
	"github.com/Tsukikage7/employee-service/endpoint"
	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/persistence"
	"github.com/Tsukikage7/employee-service/transport/http/server"
	"github.com/Tsukikage7/employee-service/transport/response"
)

// BasePath 员工接口路径前缀.
const BasePath = "/api/employee"

// maxBodyBytes 请求体大小上限.
const maxBodyBytes = 1 << 20

// Option 配置选项.
type Option func(*Handler)

// WithLogger 设置日志记录器.
func WithLogger(log logger.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// Handler 员工 HTTP 接口.
type Handler struct {
	mediator *cqrs.Mediator
	ids      persistence.IDPolicy
	log      logger.Logger
}

// NewHandler 创建员工接口，ids 为当前存储后端的标识规则.
func NewHandler(m *cqrs.Mediator, ids persistence.IDPolicy, opts ...Option) *Handler {
	h := &Handler{mediator: m, ids: ids, log: logger.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register 将员工路由注册到 mux.
func (h *Handler) Register(mux *http.ServeMux) {
	opts := []server.EndpointOption{server.WithErrorEncoder(errorEncoder(h.log))}

	mux.Handle("POST "+BasePath,
		server.NewEndpointHandler(h.create(), decodeCreate, server.EncodeJSONResponse, opts...))
	mux.Handle("GET "+BasePath,
		server.NewEndpointHandler(h.list(), decodeList, server.EncodeJSONResponse, opts...))
	mux.Handle("GET "+BasePath+"/{id}",
		server.NewEndpointHandler(h.get(), h.decodeID, server.EncodeJSONResponse, opts...))
	mux.Handle("PUT "+BasePath+"/{id}",
		server.NewEndpointHandler(h.update(), h.decodeUpdate, server.EncodeJSONResponse, opts...))
	mux.Handle("DELETE "+BasePath+"/{id}",
		server.NewEndpointHandler(h.delete(), h.decodeID, server.EncodeJSONResponse, opts...))
}

func (h *Handler) create() endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(EmployeeRequest)
		e, err := cqrs.Send[application.CreateEmployeeCommand, *employee.Employee](ctx, h.mediator,
			application.CreateEmployeeCommand{
				Name:    req.Name,
				Address: req.Address,
				Email:   req.Email,
				Phone:   req.Phone,
			})
		if err != nil {
			return nil, err
		}
		return createdDTO{EmployeeDTO: toDTO(e)}, nil
	}
}

func (h *Handler) list() endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		list, err := cqrs.Send[application.GetEmployeeListQuery, []*employee.Employee](ctx, h.mediator,
			application.GetEmployeeListQuery{})
		if err != nil {
			return nil, err
		}
		return toDTOs(list), nil
	}
}

func (h *Handler) get() endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		id := request.(employee.ID)
		e, err := cqrs.Send[application.GetEmployeeByIDQuery, *employee.Employee](ctx, h.mediator,
			application.GetEmployeeByIDQuery{ID: id})
		if err != nil {
			return nil, err
		}
		if e == nil {
			return nil, notFound(id)
		}
		return toDTO(e), nil
	}
}

func (h *Handler) update() endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		cmd := request.(application.UpdateEmployeeCommand)
		res, err := cqrs.Send[application.UpdateEmployeeCommand, application.UpdateResult](ctx, h.mediator, cmd)
		if err != nil {
			return nil, err
		}
		if !res.Found {
			return nil, notFoundForUpdate(cmd.ID)
		}
		return AffectedDTO{ID: res.ID.String(), Affected: 1}, nil
	}
}

func (h *Handler) delete() endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		id := request.(employee.ID)
		n, err := cqrs.Send[application.DeleteEmployeeCommand, int64](ctx, h.mediator,
			application.DeleteEmployeeCommand{ID: id})
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, notFoundForDeletion(id)
		}
		return AffectedDTO{ID: id.String(), Affected: n}, nil
	}
}

func decodeList(context.Context, *http.Request) (any, error) {
	return nil, nil
}

func decodeCreate(_ context.Context, r *http.Request) (any, error) {
	return decodeBody(r)
}

// decodeID 校验路径中的员工标识.
func (h *Handler) decodeID(_ context.Context, r *http.Request) (any, error) {
	id := employee.ID(r.PathValue("id"))
	if !h.ids.Valid(id) {
		return nil, response.NewErrorWithMessage(response.CodeInvalidParam, h.ids.Message())
	}
	return id, nil
}

func (h *Handler) decodeUpdate(ctx context.Context, r *http.Request) (any, error) {
	idValue, err := h.decodeID(ctx, r)
	if err != nil {
		return nil, err
	}
	req, err := decodeBody(r)
	if err != nil {
		return nil, err
	}
	return application.UpdateEmployeeCommand{
		ID:      idValue.(employee.ID),
		Name:    req.Name,
		Address: req.Address,
		Email:   req.Email,
		Phone:   req.Phone,
	}, nil
}

func decodeBody(r *http.Request) (EmployeeRequest, error) {
	var req EmployeeRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return EmployeeRequest{}, response.WrapWithMessage(response.CodeInvalidBody, MsgInvalidBody, err)
	}
	return req, nil
}
