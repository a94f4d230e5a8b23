package binance

import (
	"context"
	stdErrors "errors"
	"net"
	"strings"

	"github.com/adshao/go-binance/v2/common"

	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// Binance REST error codes the adapter distinguishes.
// See https://developers.binance.com/docs/binance-spot-api-docs/errors
const (
	apiCodeUnknown            = -1000
	apiCodeDisconnected       = -1001
	apiCodeUnauthorized       = -1002
	apiCodeTooManyRequests    = -1003
	apiCodeUnexpectedResponse = -1006
	apiCodeTimeout            = -1007
	apiCodeServerBusy         = -1008
	apiCodeFilterFailure      = -1013
	apiCodeTooManyOrders      = -1015
	apiCodeInvalidTimestamp   = -1021
	apiCodeInvalidSignature   = -1022
	apiCodeInvalidSymbol      = -1121
	apiCodeNewOrderRejected   = -2010
	apiCodeCancelRejected     = -2011
	apiCodeNoSuchOrder        = -2013
	apiCodeBadAPIKeyFormat    = -2014
	apiCodeRejectedMBXKey     = -2015
)

// mapAPICode classifies a Binance API error into an exchange error code.
func mapAPICode(apiErr *common.APIError) errors.ErrorCode {
	switch apiErr.Code {
	case apiCodeUnauthorized, apiCodeInvalidSignature, apiCodeBadAPIKeyFormat, apiCodeRejectedMBXKey:
		return errors.ErrCodeAuthFailure
	case apiCodeTooManyRequests, apiCodeTooManyOrders:
		return errors.ErrCodeRateLimited
	case apiCodeTimeout:
		return errors.ErrCodeTimeout
	case apiCodeUnknown, apiCodeDisconnected, apiCodeUnexpectedResponse, apiCodeServerBusy, apiCodeInvalidTimestamp:
		return errors.ErrCodeNetworkError
	case apiCodeInvalidSymbol:
		return errors.ErrCodeUnsupportedPair
	case apiCodeNewOrderRejected:
		if strings.Contains(strings.ToLower(apiErr.Message), "insufficient") {
			return errors.ErrCodeInsufficientFunds
		}

		return errors.ErrCodeOrderRejected
	case apiCodeFilterFailure, apiCodeCancelRejected, apiCodeNoSuchOrder:
		return errors.ErrCodeOrderRejected
	case 0:
		// Non-JSON error bodies (gateway pages, 5xx) decode to code 0.
		return errors.ErrCodeNetworkError
	}

	// -11xx are request validation failures, e.g. bad quantity precision.
	if apiErr.Code <= -1100 && apiErr.Code > -1200 {
		return errors.ErrCodeOrderRejected
	}

	return errors.ErrCodeOrderFailed
}

// normalizeError converts client errors into the exchange error taxonomy.
// Context cancellation is passed through untouched.
func normalizeError(op string, err error) error {
	if err == nil {
		return nil
	}

	var coded *errors.Error
	if stdErrors.As(err, &coded) {
		return err
	}

	var apiErr *common.APIError
	if stdErrors.As(err, &apiErr) {
		return errors.Wrapf(mapAPICode(apiErr), err, "binance %s failed", op)
	}

	if stdErrors.Is(err, context.Canceled) {
		return err
	}

	if stdErrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(errors.ErrCodeTimeout, err, "binance %s timed out", op)
	}

	var netErr net.Error
	if stdErrors.As(err, &netErr) {
		if netErr.Timeout() {
			return errors.Wrapf(errors.ErrCodeTimeout, err, "binance %s timed out", op)
		}

		return errors.Wrapf(errors.ErrCodeNetworkError, err, "binance %s failed", op)
	}

	return errors.Wrapf(errors.ErrCodeOrderFailed, err, "binance %s failed", op)
}

// isAPICode reports whether err is a Binance API error with code.
func isAPICode(err error, code int64) bool {
	var apiErr *common.APIError
	if stdErrors.As(err, &apiErr) {
		return apiErr.Code == code
	}

	return false
}
