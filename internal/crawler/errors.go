package crawler

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeNotReviewList ErrorCode = "NOT_REVIEW_LIST"
	ErrCodeInProgress    ErrorCode = "IN_PROGRESS"
	ErrCodeValidation    ErrorCode = "VALIDATION"
	ErrCodePage          ErrorCode = "PAGE_ERROR"
	ErrCodeSlot          ErrorCode = "SLOT_ERROR"
	ErrCodeCancelled     ErrorCode = "CANCELLED"
)

// Common crawl errors. They carry their code so Code works on them directly;
// never call WithDetail on a sentinel.
var (
	// ErrNotReviewList means the current page has no next-page control.
	// It routes the crawl into the product page handoff.
	ErrNotReviewList   = &CrawlError{Code: ErrCodeNotReviewList, Message: "next page control not found: current page is not a review list"}
	ErrCrawlInProgress = &CrawlError{Code: ErrCodeInProgress, Message: "a crawl is already in progress"}
	ErrUnknownAction   = &CrawlError{Code: ErrCodeValidation, Message: "unknown action"}
)

// CrawlError wraps errors with additional context
type CrawlError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *CrawlError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *CrawlError) Is(target error) bool {
	if t, ok := target.(*CrawlError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewCrawlError creates a new CrawlError
func NewCrawlError(code ErrorCode, message string, err error) *CrawlError {
	return &CrawlError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *CrawlError) WithDetail(key string, value interface{}) *CrawlError {
	e.Details[key] = value
	return e
}

// Code returns the ErrorCode carried by err, or "" when there is none
func Code(err error) ErrorCode {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
