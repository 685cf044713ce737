package web

import (
	"net/http"

	"KrishiMitra/internal/i18n"
)

// APIError is a coded failure whose message is looked up per request.
type APIError struct {
	Code   string
	MsgKey string
	Status int
}

func (e APIError) Error() string { return e.Code }

var (
	ErrInternal            = APIError{"INTERNAL", i18n.MsgErrorInternal, http.StatusInternalServerError}
	ErrInvalidBody         = APIError{"INVALID_BODY", i18n.MsgErrorInvalidBody, http.StatusBadRequest}
	ErrUnsupportedLanguage = APIError{"UNSUPPORTED_LANGUAGE", i18n.MsgErrorUnsupportedLanguage, http.StatusBadRequest}
	ErrTextRequired        = APIError{"TEXT_REQUIRED", i18n.MsgErrorTextRequired, http.StatusBadRequest}
	ErrUnauthorized        = APIError{"UNAUTHORIZED", i18n.MsgErrorUnauthorized, http.StatusUnauthorized}
	ErrNotFound            = APIError{"NOT_FOUND", i18n.MsgErrorNotFound, http.StatusNotFound}
	ErrMethodNotAllowed    = APIError{"METHOD_NOT_ALLOWED", i18n.MsgErrorNotFound, http.StatusMethodNotAllowed}
	ErrUnknownCard         = APIError{"UNKNOWN_CARD", i18n.MsgErrorUnknownCard, http.StatusNotFound}
	ErrRateLimited         = APIError{"RATE_LIMITED", i18n.MsgErrorRateLimited, http.StatusTooManyRequests}
	ErrProviderUnavailable = APIError{"PROVIDER_UNAVAILABLE", i18n.MsgErrorProviderUnavailable, http.StatusBadGateway}
	ErrWeatherNotFound     = APIError{"WEATHER_NOT_FOUND", i18n.MsgErrorWeatherNotFound, http.StatusNotFound}
	ErrWeatherTimeout      = APIError{"WEATHER_TIMEOUT", i18n.MsgErrorWeatherTimeout, http.StatusGatewayTimeout}
)
