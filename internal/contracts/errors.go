package contracts

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable, caller-facing name of a precondition failure
type ErrorKind string

const (
	KindInvalidWindow         ErrorKind = "INVALID_WINDOW"
	KindInvalidMeasure        ErrorKind = "INVALID_MEASURE"
	KindInsufficientData      ErrorKind = "INSUFFICIENT_DATA"
	KindInvalidSelectionCount ErrorKind = "INVALID_SELECTION_COUNT"
	KindLengthMismatch        ErrorKind = "LENGTH_MISMATCH"
	KindInvalidResolution     ErrorKind = "INVALID_RESOLUTION"
	KindInvalidQuality        ErrorKind = "INVALID_QUALITY"
	KindRaggedBlocks          ErrorKind = "RAGGED_BLOCKS"
	KindWindowExceedsData     ErrorKind = "WINDOW_EXCEEDS_DATA"
	KindDayBlockMismatch      ErrorKind = "DAY_BLOCK_MISMATCH"
)

// ⭐ SSOT: 파이프라인 전제조건 위반 에러는 여기서만 정의
// 호출부는 errors.Is 로 비교
var (
	ErrInvalidWindow         = errors.New("number of trading days back must be greater than 2")
	ErrInvalidMeasure        = errors.New("correlation measure must be pearson or spearman")
	ErrInsufficientData      = errors.New("at least three observations per stock are required")
	ErrInvalidSelectionCount = errors.New("number of best performing stocks must be at least 1")
	ErrLengthMismatch        = errors.New("tickers and values must have the same length")
	ErrInvalidResolution     = errors.New("resolution parameter must be a finite non-negative number")
	ErrInvalidQuality        = errors.New("quality function must be modularity or cpm")
	ErrRaggedBlocks          = errors.New("observation count is not a multiple of the number of stocks")
	ErrWindowExceedsData     = errors.New("not enough day blocks for the requested window")
	ErrDayBlockMismatch      = errors.New("day block does not contain exactly one observation per ticker")
)

var sentinelByKind = map[ErrorKind]error{
	KindInvalidWindow:         ErrInvalidWindow,
	KindInvalidMeasure:        ErrInvalidMeasure,
	KindInsufficientData:      ErrInsufficientData,
	KindInvalidSelectionCount: ErrInvalidSelectionCount,
	KindLengthMismatch:        ErrLengthMismatch,
	KindInvalidResolution:     ErrInvalidResolution,
	KindInvalidQuality:        ErrInvalidQuality,
	KindRaggedBlocks:          ErrRaggedBlocks,
	KindWindowExceedsData:     ErrWindowExceedsData,
	KindDayBlockMismatch:      ErrDayBlockMismatch,
}

// ValidationError 전제조건 위반 (전체 호출 중단, 부분 결과 없음)
type ValidationError struct {
	Kind    ErrorKind
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for kind
func NewValidationError(kind ErrorKind, field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap exposes the sentinel for errors.Is
func (e *ValidationError) Unwrap() error {
	return sentinelByKind[e.Kind]
}

// KindOf returns the ErrorKind carried by err, or "" for infrastructure errors
func KindOf(err error) ErrorKind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}
