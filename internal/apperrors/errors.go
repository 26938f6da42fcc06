package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrEmptyCity            = errors.New("city name cannot be empty")
	ErrInvalidPeriod        = errors.New("period of notification must be at least one hour")
	ErrSubscriptionExists   = errors.New("subscription already exists")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrCityNotFound         = errors.New("city not found")
	ErrUserExists           = errors.New("username already taken")

	// ErrIncompleteData marks a provider payload that parsed but is missing
	// required fields. Callers treat it as bad input, not an outage.
	ErrIncompleteData = errors.New("incomplete weather data")
)

// Kind classifies a weather-provider failure by the upstream HTTP status.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindBadRequest
	KindForbidden
	KindMethodNotAllowed
	KindServiceUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "city not found"
	case KindBadRequest:
		return "bad request"
	case KindForbidden:
		return "forbidden, fails the permission checks"
	case KindMethodNotAllowed:
		return "method not allowed"
	case KindServiceUnavailable:
		return "service temporarily unavailable, try again later"
	default:
		return "error fetching weather data"
	}
}

// ProviderError is a terminal failure of a single weather fetch attempt.
// The provider layer never retries; the caller decides what to do with it.
type ProviderError struct {
	Kind   Kind
	Status int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("weather provider: %s (status %d)", e.Kind, e.Status)
}

func KindFromStatus(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusMethodNotAllowed:
		return KindMethodNotAllowed
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	default:
		return KindUnknown
	}
}

// AsProvider unwraps err into a ProviderError if there is one in the chain.
func AsProvider(err error) (*ProviderError, bool) {
	var pe *ProviderError
	ok := errors.As(err, &pe)
	return pe, ok
}
