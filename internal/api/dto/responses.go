// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// Result codes of the cache demo endpoints.
const (
	CodeSuccess  = 100
	CodeNotFound = 104
	CodeFailed   = 105
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// CacheResponse is the envelope of the cache demo endpoints.
type CacheResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  any    `json:"detail"`
}

// CacheEntry is the detail of a successful key lookup or write.
type CacheEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Success wraps detail in a success envelope.
func Success(detail any) CacheResponse {
	if detail == nil {
		detail = struct{}{}
	}
	return CacheResponse{Code: CodeSuccess, Message: "success", Detail: detail}
}

// Failure builds an envelope with an empty detail.
func Failure(code int) CacheResponse {
	return CacheResponse{Code: code, Message: "", Detail: struct{}{}}
}
