package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// AppError is a business-rule failure surfaced to the caller with a stable code.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
