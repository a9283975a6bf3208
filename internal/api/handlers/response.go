package handlers

import (
	"encoding/json"
	"net/http"
)

// Response 공통 응답 봉투
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody 오류 코드 + 메시지 (code = contracts.ErrorKind 또는 요청 오류 코드)
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Request-level error codes (도메인 오류는 contracts.ErrorKind 사용)
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeTooManyStocks  = "TOO_MANY_STOCKS"
	CodeRateLimited    = "RATE_LIMITED"
	CodeTimeout        = "TIMEOUT"
	CodeInternal       = "INTERNAL"
)

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, Response{Success: true, Data: data})
}

// RespondError writes the error envelope (router middleware도 사용)
func RespondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, Response{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}
