package errors

import (
	"fmt"
	"net/http"
	"strconv"

	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// 购买服务错误码定义
// 错误码格式：SSMMEE (6位数字)，其中 SS=13 表示 subscription 服务族
// 模块划分：
//   01: 套餐 / 定价
//   03: 交易账本
//   04: 支付
//   05: 认证

// 套餐模块 (130100-130199)
const (
	// ErrCodePlanNotFound 套餐不存在或已下架
	ErrCodePlanNotFound = 130101
	// ErrCodeInvalidBillingCycle 计费周期无效
	ErrCodeInvalidBillingCycle = 130102
	// ErrCodeInvalidPaymentMethod 支付方式不支持
	ErrCodeInvalidPaymentMethod = 130103
	// ErrCodePlanCatalogUnavailable 套餐查询失败
	ErrCodePlanCatalogUnavailable = 130104
)

// 交易账本模块 (130300-130399)
const (
	// ErrCodeDuplicateOrderReference 订单号重复
	ErrCodeDuplicateOrderReference = 130301
	// ErrCodeLedgerWriteFailed 交易写入失败
	ErrCodeLedgerWriteFailed = 130302
	// ErrCodeTransactionNotFound 交易不存在
	ErrCodeTransactionNotFound = 130303
	// ErrCodeInvalidStateTransition 非法的状态流转
	ErrCodeInvalidStateTransition = 130304
	// ErrCodeLedgerReadFailed 交易查询失败
	ErrCodeLedgerReadFailed = 130305
)

// 支付模块 (130400-130499)
const (
	// ErrCodePaymentProviderUnavailable 支付服务不可用
	ErrCodePaymentProviderUnavailable = 130401
	// ErrCodeInvalidNotification 支付通知无效
	ErrCodeInvalidNotification = 130402
)

// 认证模块 (130500-130599)
const (
	// ErrCodeAuthenticationFailed 认证失败
	ErrCodeAuthenticationFailed = 130501
)

// Reasons are the machine-readable error kinds carried in kratos errors.
const (
	ReasonPlanNotFound               = "PLAN_NOT_FOUND"
	ReasonInvalidBillingCycle        = "INVALID_BILLING_CYCLE"
	ReasonInvalidPaymentMethod       = "INVALID_PAYMENT_METHOD"
	ReasonPlanCatalogUnavailable     = "PLAN_CATALOG_UNAVAILABLE"
	ReasonDuplicateOrderReference    = "DUPLICATE_ORDER_REFERENCE"
	ReasonLedgerWriteFailed          = "LEDGER_WRITE_FAILED"
	ReasonTransactionNotFound        = "TRANSACTION_NOT_FOUND"
	ReasonInvalidStateTransition     = "INVALID_STATE_TRANSITION"
	ReasonLedgerReadFailed           = "LEDGER_READ_FAILED"
	ReasonPaymentProviderUnavailable = "PAYMENT_PROVIDER_UNAVAILABLE"
	ReasonInvalidNotification        = "INVALID_NOTIFICATION"
	ReasonAuthenticationFailed       = "AUTHENTICATION_FAILED"
)

func newError(status, code int, reason, format string, args ...interface{}) *kerrors.Error {
	return kerrors.New(status, reason, fmt.Sprintf(format, args...)).
		WithMetadata(map[string]string{"biz_code": strconv.Itoa(code)})
}

func is(err error, status int, reason string) bool {
	if err == nil {
		return false
	}
	e := kerrors.FromError(err)
	return e.Reason == reason && int(e.Code) == status
}

func ErrorPlanNotFound(format string, args ...interface{}) *kerrors.Error {
	return newError(http.StatusBadRequest, ErrCodePlanNotFound, ReasonPlanNotFound, format, args...)
}

func IsPlanNotFound(err error) bool {
	return is(err, http.StatusBadRequest, ReasonPlanNotFound)
}

func ErrorInvalidBillingCycle(format string, args ...interface{}) *kerrors.Error {
	return newError(http.StatusBadRequest, ErrCodeInvalidBillingCycle, ReasonInvalidBillingCycle, format, args...)
}

func IsInvalidBillingCycle(err error) bool {
	return is(err, http.StatusBadRequest, ReasonInvalidBillingCycle)
}

func ErrorInvalidPaymentMethod(format string, args ...interface{}) *kerrors.Error {
	return newError(http.StatusBadRequest, ErrCodeInvalidPaymentMethod, ReasonInvalidPaymentMethod, format, args...)
}

func IsInvalidPaymentMethod(err error) bool {
	return is(err, http.StatusBadRequest, ReasonInvalidPaymentMethod)
}

func ErrorPlanCatalogUnavailable(format string, args ...interface{}) *kerrors.Error {
	return newError(http.StatusServiceUnavailable, ErrCodePlanCatalogUnavailable, ReasonPlanCatalogUnavailable, format, args...)
}

func IsPlanCatalogUnavailable(err error) bool {
	return is(err, http.StatusServiceUnavailable, ReasonPlanCatalogUnavailable)
}

func ErrorDuplicateOrderReference(format string, args ...interface{}) *kerrors.Error {
	return newError(http.StatusInternalServerError, ErrCodeDuplicateOrderReference, ReasonDuplicateOrderReference, format, args...)
}

func IsDuplicateOrderReference(err error) bool {
	return is(err, http.StatusInternalServerError, ReasonDuplicateOrderReference)
}

func ErrorLedgerWriteFailed(format string, args ...interface{}) *kerrors.Error {
	return newError(http.StatusInternalServerError, ErrCodeLedgerWriteFailed, ReasonLedgerWriteFailed, format, args...)
}

func IsLedgerWriteFailed(err error) bool {
	return is(err, http.StatusInternalServerError, ReasonLedgerWriteFailed)
}

func ErrorTransactionNotFound(format string, args ...interface{}) *kerrors.Error {
	return newError(http.StatusNotFound, ErrCodeTransactionNotFound, ReasonTransactionNotFound, format, args...)
}

func IsTransactionNotFound(err error) bool {
	return is(err, http.StatusNotFound, ReasonTransactionNotFound)
}

func ErrorInvalidStateTransition(format string, args ...interface{}) *kerrors.Error {
	return newError(http.StatusConflict, ErrCodeInvalidStateTransition, ReasonInvalidStateTransition, format, args...)
}

func IsInvalidStateTransition(err error) bool {
	return is(err, http.StatusConflict, ReasonInvalidStateTransition)
}

func ErrorLedgerReadFailed(format string, args ...interface{}) *kerrors.Error {
	return newError(http.StatusInternalServerError, ErrCodeLedgerReadFailed, ReasonLedgerReadFailed, format, args...)
}

func IsLedgerReadFailed(err error) bool {
	return is(err, http.StatusInternalServerError, ReasonLedgerReadFailed)
}

func ErrorPaymentProviderUnavailable(format string, args ...interface{}) *kerrors.Error {
	return newError(http.StatusBadGateway, ErrCodePaymentProviderUnavailable, ReasonPaymentProviderUnavailable, format, args...)
}

func IsPaymentProviderUnavailable(err error) bool {
	return is(err, http.StatusBadGateway, ReasonPaymentProviderUnavailable)
}

func ErrorInvalidNotification(format string, args ...interface{}) *kerrors.Error {
	return newError(http.StatusBadRequest, ErrCodeInvalidNotification, ReasonInvalidNotification, format, args...)
}

func IsInvalidNotification(err error) bool {
	return is(err, http.StatusBadRequest, ReasonInvalidNotification)
}

func ErrorAuthenticationFailed(format string, args ...interface{}) *kerrors.Error {
	return newError(http.StatusUnauthorized, ErrCodeAuthenticationFailed, ReasonAuthenticationFailed, format, args...)
}

func IsAuthenticationFailed(err error) bool {
	return is(err, http.StatusUnauthorized, ReasonAuthenticationFailed)
}
