package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 109

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeArchiveWriteFailed    ErrorCode = 203

	// Credential errors (300-399)
	ErrCodeCredentialNotFound ErrorCode = 300
	ErrCodeCredentialCorrupt  ErrorCode = 301

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError  ErrorCode = 401
	ErrCodeStrategyRuntimeError ErrorCode = 402
	ErrCodeUnsupportedStrategy  ErrorCode = 403
	ErrCodeTickInProgress       ErrorCode = 404

	// Exchange errors (500-599)
	ErrCodeOrderFailed       ErrorCode = 500
	ErrCodeAuthFailure       ErrorCode = 501
	ErrCodeRateLimited       ErrorCode = 502
	ErrCodeInsufficientFunds ErrorCode = 503
	ErrCodeNetworkError      ErrorCode = 504
	ErrCodeTimeout           ErrorCode = 505
	ErrCodeUnsupportedPair   ErrorCode = 506
	ErrCodeUnknownExchange   ErrorCode = 507
	ErrCodeOrderRejected     ErrorCode = 508
	ErrCodeMarketDataMissing ErrorCode = 509
)
