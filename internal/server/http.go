package server

import (
	"context"
	"encoding/json"
	stdhttp "net/http"

	"xinyuan_tech/purchase-service/internal/auth"
	"xinyuan_tech/purchase-service/internal/conf"
	"xinyuan_tech/purchase-service/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/middleware/validate"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "purchase-service"

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Bootstrap,
	purchase *service.PurchaseService,
	notify *service.NotifyService,
	metrics *service.Metrics,
	logger log.Logger,
) (*http.Server, error) {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			// 购买与交易查询需要登录, 支付回调由签名校验
			selector.Server(auth.JWT(c.Auth.JwtSecret)).Match(requiresAuth).Build(),
			validate.Validator(),
		),
		http.ErrorEncoder(customErrorEncoder),
	}
	if c.Server != nil && c.Server.Http.Addr != "" {
		opts = append(opts, http.Address(c.Server.Http.Addr))
	}
	if c.Server != nil {
		timeout, err := conf.ParseDuration(c.Server.Http.Timeout, 0)
		if err != nil {
			return nil, err
		}
		if timeout > 0 {
			opts = append(opts, http.Timeout(timeout))
		}
	}
	srv := http.NewServer(opts...)

	// 注册业务路由
	RegisterPurchaseHTTPServer(srv, purchase)
	RegisterNotifyHTTPServer(srv, notify)

	srv.Handle("/metrics", metrics.Handler())
	// 注册健康检查端点
	srv.Route("/").GET("/health", func(ctx http.Context) error {
		return ctx.Result(200, map[string]string{"status": "ok", "service": ServiceName})
	})

	return srv, nil
}

func requiresAuth(_ context.Context, operation string) bool {
	switch operation {
	case OperationPurchase, OperationGetTransaction, OperationListTransactions:
		return true
	}
	return false
}

func customErrorEncoder(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	se := kerrors.FromError(err)
	status := stdhttp.StatusInternalServerError
	response := map[string]interface{}{
		"code":    status,
		"message": "internal server error",
	}

	if se != nil {
		status = mapErrorStatus(int(se.Code))
		response["code"] = se.Code
		response["reason"] = se.Reason
		response["message"] = se.Message
		// errors without a kind carry raw causes
		if se.Reason == "" && status >= stdhttp.StatusInternalServerError {
			response["message"] = "internal server error"
		}
		if len(se.Metadata) > 0 {
			response["metadata"] = se.Metadata
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

func mapErrorStatus(code int) int {
	if code >= 100 && code < 600 {
		return code
	}
	if code >= 130000 && code < 140000 {
		return stdhttp.StatusBadRequest
	}
	return stdhttp.StatusInternalServerError
}
