package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"KrishiMitra/internal/logger"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.HTTP.Warn().Err(err).Msg("write response failed")
	}
}

func OK(w http.ResponseWriter, r *http.Request, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func Fail(w http.ResponseWriter, r *http.Request, code, message string, status int) {
	writeJSON(w, status, Response{Error: &ErrorBody{Code: code, Message: message}})
}

// FailErr writes e with its message translated for the request language.
func FailErr(w http.ResponseWriter, r *http.Request, e APIError, data ...map[string]interface{}) {
	Fail(w, r, e.Code, T(r, e.MsgKey, data...), e.Status)
}

// DecodeJSON reads the request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type PageQuery struct {
	Page     int
	PageSize int
}

func ParsePageQuery(r *http.Request) PageQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return PageQuery{Page: page, PageSize: size}
}
