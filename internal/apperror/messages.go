package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Scraping
	CodeTransportError:        "Marketplace request failed",
	CodeParseError:            "Unexpected page or response shape",
	CodeScrapeTimeout:         "Platform scrape timed out",
	CodePlatformNotRegistered: "No scraper registered for platform",
	CodeMissingCredentials:    "Platform requires credentials",

	// Normalization
	CodeNormalizationError: "Observation could not be normalized",
	CodeUnknownCurrency:    "Currency could not be resolved",
	CodeUnmappedCondition:  "Condition text could not be mapped",
	CodeUnknownModel:       "Phone model is not tracked",
	CodeInvalidPrice:       "Price must be positive",

	// Exchange rates
	CodeRateUnavailable: "Exchange rate unavailable",

	// Persistence and events
	CodeRepositoryError:     "Repository operation failed",
	CodeStreamPublishFailed: "Failed to publish event",

	// Analysis
	CodeAnalysisFailed: "Analysis failed",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
