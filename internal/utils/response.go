package utils

import "time"

// SuccessResponse wraps an API payload in the standard response envelope.
func SuccessResponse(message string, data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"success":   true,
		"message":   message,
		"data":      data,
		"timestamp": time.Now().UTC(),
	}
}

// ErrorResponse builds the standard error envelope.
func ErrorResponse(message, details string) map[string]interface{} {
	return map[string]interface{}{
		"success":   false,
		"error":     message,
		"details":   details,
		"timestamp": time.Now().UTC(),
	}
}
