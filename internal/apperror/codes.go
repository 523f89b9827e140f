package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Price tracking error codes
const (
	// Scraping
	CodeTransportError        Code = "TRANSPORT_ERROR"
	CodeParseError            Code = "PARSE_ERROR"
	CodeScrapeTimeout         Code = "SCRAPE_TIMEOUT"
	CodePlatformNotRegistered Code = "PLATFORM_NOT_FOUND"
	CodeMissingCredentials    Code = "MISSING_CREDENTIALS"

	// Normalization
	CodeNormalizationError Code = "NORMALIZATION_ERROR"
	CodeUnknownCurrency    Code = "UNKNOWN_CURRENCY"
	CodeUnmappedCondition  Code = "UNMAPPED_CONDITION"
	CodeUnknownModel       Code = "UNKNOWN_MODEL"
	CodeInvalidPrice       Code = "INVALID_PRICE"

	// Exchange rates
	CodeRateUnavailable Code = "RATE_UNAVAILABLE"

	// Persistence and events
	CodeRepositoryError     Code = "REPOSITORY_ERROR"
	CodeStreamPublishFailed Code = "STREAM_PUBLISH_FAILED"

	// Analysis
	CodeAnalysisFailed Code = "ANALYSIS_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
