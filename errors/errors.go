package errors

import "errors"

// Sentinel errors shared across the assistant. Wrap with fmt.Errorf("...: %w", err)
// so callers can match with errors.Is.
var (
	// ErrValidation indicates a required requirement field failed its domain check
	ErrValidation = errors.New("requirement validation failed")

	// ErrLookupMiss indicates the filter knowledge base returned no usable match
	ErrLookupMiss = errors.New("no matching filter found")

	// ErrFetchFailed indicates a transport or auth failure from the analytics API
	ErrFetchFailed = errors.New("analytics fetch failed")

	// ErrClassification indicates the classifier received empty or malformed input
	ErrClassification = errors.New("theme classification failed")

	// ErrRetryExhausted indicates a bounded retry budget was spent
	ErrRetryExhausted = errors.New("retry budget exhausted")

	// ErrConversationNotFound indicates the requested conversation does not exist
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrConversationEnded indicates the conversation reached its terminal stage
	ErrConversationEnded = errors.New("conversation has ended")
)
