package errors

import (
	"context"
	"errors"
)

// Kind groups error codes by the reaction they require from a bot runtime.
type Kind int

const (
	// KindUnknown covers uncoded errors and recovered panics.
	KindUnknown Kind = iota
	// KindFatal errors need operator action: bad credentials, unknown exchange, bad config.
	KindFatal
	// KindTransient errors are expected to clear up by the next tick.
	KindTransient
	// KindBusiness errors are refusals from the exchange that do not indicate a broken bot.
	KindBusiness
)

func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindTransient:
		return "transient"
	case KindBusiness:
		return "business"
	default:
		return "unknown"
	}
}

var codeKinds = map[ErrorCode]Kind{
	ErrCodeAuthFailure:           KindFatal,
	ErrCodeCredentialCorrupt:     KindFatal,
	ErrCodeCredentialNotFound:    KindFatal,
	ErrCodeUnknownExchange:       KindFatal,
	ErrCodeUnsupportedPair:       KindFatal,
	ErrCodeStrategyConfigError:   KindFatal,
	ErrCodeUnsupportedStrategy:   KindFatal,
	ErrCodeRateLimited:           KindTransient,
	ErrCodeNetworkError:          KindTransient,
	ErrCodeTimeout:               KindTransient,
	ErrCodeDataSourceUnavailable: KindTransient,
	ErrCodeInsufficientFunds:     KindBusiness,
	ErrCodeOrderRejected:         KindBusiness,
}

// KindOf classifies err by the code of the outermost *Error in its chain.
// A bare context deadline counts as a timeout.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var e *Error
	if errors.As(err, &e) {
		if kind, ok := codeKinds[e.Code]; ok {
			return kind
		}

		return KindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}

	return KindUnknown
}

// IsFatal reports whether err requires operator action before the bot can run again.
func IsFatal(err error) bool {
	return KindOf(err) == KindFatal
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}

// IsBusiness reports whether err is an exchange-side refusal.
func IsBusiness(err error) bool {
	return KindOf(err) == KindBusiness
}
