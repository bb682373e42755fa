package segment

import "errors"

var (
	// ErrNilDocument is returned when Segment is called without a document.
	ErrNilDocument = errors.New("document is required")

	// ErrTokenBudget is returned when the token budget is not ordered
	// 0 < min <= target <= max.
	ErrTokenBudget = errors.New("token budget must satisfy 0 < min <= target <= max")

	// ErrTokenOverlap is returned when the overlap is negative or at least
	// as large as the target chunk size.
	ErrTokenOverlap = errors.New("token overlap must be non-negative and below the target chunk size")

	// ErrWindow is returned when the time window is not positive or the
	// window overlap is not shorter than the window.
	ErrWindow = errors.New("window must be positive and longer than its overlap")

	// ErrUnknownStrategy is returned for a strategy value outside the enum.
	ErrUnknownStrategy = errors.New("unknown segmentation strategy")

	// ErrTokenizerRequired is returned when a nil tokenizer is supplied.
	ErrTokenizerRequired = errors.New("tokenizer is required")
)
