package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidQuantity      ErrorCode = 103
	ErrCodeInvalidPrice         ErrorCode = 104
	ErrCodeInvalidThreshold     ErrorCode = 105
	ErrCodeInvalidHorizon       ErrorCode = 106
	ErrCodeInvalidFeeRate       ErrorCode = 107

	// Window/statistics errors (200-299)
	ErrCodeWindowNotFound    ErrorCode = 200
	ErrCodeInsufficientData  ErrorCode = 201
	ErrCodeZeroVariance      ErrorCode = 202
	ErrCodeDuplicateWindowID ErrorCode = 203

	// Strategy errors (300-399)
	ErrCodeUnsupportedStrategy ErrorCode = 300
	ErrCodeStrategyConfigError ErrorCode = 301
	ErrCodeStrategyEvaluation  ErrorCode = 302

	// Trading/lifecycle errors (400-499)
	ErrCodeOrderNotFound    ErrorCode = 400
	ErrCodePositionNotFound ErrorCode = 401
	ErrCodeCapacityExceeded ErrorCode = 402

	// Feed errors (500-599)
	ErrCodeFeedConnectionFailed ErrorCode = 500
	ErrCodeFeedParseFailed      ErrorCode = 501
	ErrCodeFeedUnsupported      ErrorCode = 502
	ErrCodeStaleTick            ErrorCode = 503

	// Engine errors (600-699)
	ErrCodeEngineNotInitialized ErrorCode = 600
	ErrCodeEngineStopped        ErrorCode = 601
)
