package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a NetworkError.
type Kind int

const (
	KindInvalidURL Kind = iota
	KindInvalidResponse
	KindInvalidData
	KindDecoding
	KindServer
	KindCompressionFailed
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindInvalidResponse:
		return "invalid_response"
	case KindInvalidData:
		return "invalid_data"
	case KindDecoding:
		return "decoding"
	case KindServer:
		return "server"
	case KindCompressionFailed:
		return "compression_failed"
	case KindMessage:
		return "message"
	}
	return "unknown"
}

// NetworkError is the error returned by every Client call.
type NetworkError struct {
	Kind       Kind
	StatusCode int
	// Message is the server supplied error text, when the body carried one.
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	switch e.Kind {
	case KindInvalidURL:
		return "The API address is invalid. Check api.url in your config and try again."
	case KindInvalidResponse:
		return "The server response is invalid. Please try again later."
	case KindInvalidData:
		return "The received data is invalid or corrupted. Please try again."
	case KindDecoding:
		return fmt.Sprintf("Failed to decode the data: %v.", e.Err)
	case KindServer:
		if e.Message != "" {
			return fmt.Sprintf("The server returned an error with status code: %d (%s).", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("The server returned an error with status code: %d. Please try again later.", e.StatusCode)
	case KindCompressionFailed:
		return "The response body could not be decompressed."
	case KindMessage:
		return e.Message
	}
	return "network error"
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by status class.
func (e *NetworkError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindServer && e.StatusCode == http.StatusNotFound
	case ErrBadRequest:
		return e.Kind == KindServer && e.StatusCode == http.StatusBadRequest
	}
	return false
}

// Sentinel errors for common HTTP error classes.
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
)

// KindOf returns the NetworkError kind of err, or false if err is not one.
func KindOf(err error) (Kind, bool) {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Kind, true
	}
	return 0, false
}

// Retryable reports whether a failed GET should be attempted again.
func (e *NetworkError) Retryable() bool {
	switch e.Kind {
	case KindInvalidResponse:
		return true
	case KindServer:
		return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
	}
	return false
}
