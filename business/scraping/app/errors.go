package app

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/httpclient"
)

// FetchError carries the URL and attempt count of a failed fetch.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string { return e.URL + ": " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// classify maps a raw fetch error to an app error and reports whether a
// retry may help. ctx is the caller's context; once it is done nothing is
// retried.
func classify(ctx context.Context, err error) (*apperror.AppError, bool) {
	if ctx.Err() != nil {
		return apperror.Wrap(err, apperror.CodeScrapeTimeout, ""), false
	}

	var status *httpclient.StatusError
	var decode *httpclient.DecodeError
	var netErr net.Error

	switch {
	case errors.As(err, &status):
		switch {
		case status.StatusCode == http.StatusTooManyRequests:
			return apperror.External(apperror.CodeRateLimitExceeded, status.Error(), err), true
		case status.StatusCode >= 500:
			return apperror.External(apperror.CodeTransportError, status.Error(), err), true
		default:
			return apperror.External(apperror.CodeTransportError, status.Error(), err), false
		}
	case errors.As(err, &decode):
		return apperror.New(apperror.CodeParseError, apperror.WithCause(err)), false
	case apperror.HasCode(err, apperror.CodeCircuitOpen, apperror.CodeCircuitHalfOpen):
		return apperror.Wrap(err, apperror.CodeCircuitOpen, "circuit open"), false
	case apperror.HasCode(err, apperror.CodeParseError):
		return apperror.Wrap(err, apperror.CodeParseError, ""), false
	case errors.As(err, &netErr):
		return apperror.External(apperror.CodeTransportError, "network", err), true
	default:
		return apperror.External(apperror.CodeTransportError, "request failed", err), true
	}
}

// KindOf maps an error to the scrape error taxonomy.
func KindOf(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, context.Canceled):
		return domain.KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return domain.KindTimeout
	}

	switch apperror.GetCode(err) {
	case apperror.CodeRateLimitExceeded:
		return domain.KindRateLimit
	case apperror.CodeParseError:
		return domain.KindParse
	case apperror.CodeConfigurationError, apperror.CodeMissingCredentials, apperror.CodePlatformNotRegistered:
		return domain.KindConfiguration
	case apperror.CodeNormalizationError, apperror.CodeUnknownCurrency, apperror.CodeUnmappedCondition,
		apperror.CodeUnknownModel, apperror.CodeInvalidPrice:
		return domain.KindNormalization
	case apperror.CodeScrapeTimeout:
		return domain.KindTimeout
	default:
		return domain.KindTransport
	}
}

// ToScrapeError converts err into a ScrapeError for spec.
func ToScrapeError(spec domain.PlatformSpec, err error) domain.ScrapeError {
	se := domain.ScrapeError{
		Platform: spec.Name,
		Region:   spec.Region,
		Kind:     KindOf(err),
		Message:  err.Error(),
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		se.URL = fe.URL
		se.Attempts = fe.Attempts
		se.Message = fe.Err.Error()
	}
	return se
}
