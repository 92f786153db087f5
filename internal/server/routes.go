package server

import (
	"context"
	"io"

	"xinyuan_tech/purchase-service/internal/errors"
	"xinyuan_tech/purchase-service/internal/pkg/sign"
	"xinyuan_tech/purchase-service/internal/service"

	"github.com/go-kratos/kratos/v2/transport/http"
)

const (
	OperationPurchase         = "/purchase.v1.Purchase/Purchase"
	OperationGetTransaction   = "/purchase.v1.Purchase/GetTransaction"
	OperationListTransactions = "/purchase.v1.Purchase/ListTransactions"
	OperationGatewayNotify    = "/purchase.v1.Notify/GatewayNotify"
	OperationStripeWebhook    = "/purchase.v1.Notify/StripeWebhook"
)

// maxNotifyBody bounds callback bodies read before signature checks.
const maxNotifyBody = 1 << 20

// RegisterPurchaseHTTPServer 注册购买与交易查询路由
func RegisterPurchaseHTTPServer(s *http.Server, srv *service.PurchaseService) {
	r := s.Route("/")
	r.POST("/v1/subscriptions/purchase", _Purchase_Purchase0_HTTP_Handler(srv))
	r.GET("/v1/transactions/{order_ref}", _Purchase_GetTransaction0_HTTP_Handler(srv))
	r.GET("/v1/transactions", _Purchase_ListTransactions0_HTTP_Handler(srv))
}

// RegisterNotifyHTTPServer 注册支付回调路由
func RegisterNotifyHTTPServer(s *http.Server, srv *service.NotifyService) {
	r := s.Route("/")
	r.POST("/v1/payments/notify", _Notify_GatewayNotify0_HTTP_Handler(srv))
	r.POST("/v1/payments/stripe/webhook", _Notify_StripeWebhook0_HTTP_Handler(srv))
}

func _Purchase_Purchase0_HTTP_Handler(srv *service.PurchaseService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.PurchaseRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationPurchase)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Purchase(ctx, req.(*service.PurchaseRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func _Purchase_GetTransaction0_HTTP_Handler(srv *service.PurchaseService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.GetTransactionRequest
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationGetTransaction)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.GetTransaction(ctx, req.(*service.GetTransactionRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func _Purchase_ListTransactions0_HTTP_Handler(srv *service.PurchaseService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.ListTransactionsRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationListTransactions)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListTransactions(ctx, req.(*service.ListTransactionsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

// signedBody carries a raw callback body through the middleware chain; the
// signature covers the exact bytes, so the body is never re-encoded.
type signedBody struct {
	payload   []byte
	signature string
}

func readSignedBody(ctx http.Context, header string) (*signedBody, error) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxNotifyBody))
	if err != nil {
		return nil, errors.ErrorInvalidNotification("unreadable body")
	}
	return &signedBody{payload: payload, signature: ctx.Request().Header.Get(header)}, nil
}

func _Notify_GatewayNotify0_HTTP_Handler(srv *service.NotifyService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in, err := readSignedBody(ctx, sign.Header)
		if err != nil {
			return err
		}
		http.SetOperation(ctx, OperationGatewayNotify)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			b := req.(*signedBody)
			return srv.GatewayNotify(ctx, b.payload, b.signature)
		})
		out, err := h(ctx, in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func _Notify_StripeWebhook0_HTTP_Handler(srv *service.NotifyService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in, err := readSignedBody(ctx, "Stripe-Signature")
		if err != nil {
			return err
		}
		http.SetOperation(ctx, OperationStripeWebhook)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			b := req.(*signedBody)
			return srv.StripeWebhook(ctx, b.payload, b.signature)
		})
		out, err := h(ctx, in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
