package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeCriteriaExtractionFailed ErrorCode = "CRITERIA_EXTRACTION_FAILED"
	ErrCodeLLMTimeout               ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMCompletionFailed      ErrorCode = "LLM_COMPLETION_FAILED"
	ErrCodeLLMCircuitOpen           ErrorCode = "LLM_CIRCUIT_OPEN"
	ErrCodeDisambiguationFailed     ErrorCode = "DISAMBIGUATION_FAILED"

	ErrCodeInvalidChatRequest      ErrorCode = "INVALID_CHAT_REQUEST"
	ErrCodeInvalidInput            ErrorCode = "INVALID_INPUT"
	ErrCodeSessionStoreUnavailable ErrorCode = "SESSION_STORE_UNAVAILABLE"

	ErrCodeCandidateQueryFailed  ErrorCode = "CANDIDATE_QUERY_FAILED"
	ErrCodeCandidateSearchFailed ErrorCode = "CANDIDATE_SEARCH_FAILED"
	ErrCodeQueryTimeout          ErrorCode = "QUERY_TIMEOUT"
	ErrCodeUnsupportedPoolSource ErrorCode = "UNSUPPORTED_POOL_SOURCE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the normalized failure shape reported to Zeebe.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error and returns it for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewCriteriaExtractionFailedError(err error) *StandardError {
	return newError(ErrCodeCriteriaExtractionFailed, "Search criteria could not be extracted", err.Error(), false)
}

func NewLLMTimeoutError(callSite string) *StandardError {
	return newError(ErrCodeLLMTimeout, "Completion service timeout", fmt.Sprintf("callSite: %s", callSite), true)
}

func NewLLMCompletionFailedError(callSite string, err error) *StandardError {
	return newError(ErrCodeLLMCompletionFailed, "Completion service error",
		fmt.Sprintf("callSite: %s, error: %s", callSite, err.Error()), true)
}

func NewLLMCircuitOpenError(callSite string) *StandardError {
	return newError(ErrCodeLLMCircuitOpen, "Completion service circuit is open", fmt.Sprintf("callSite: %s", callSite), true)
}

func NewDisambiguationFailedError(candidateID string, err error) *StandardError {
	return newError(ErrCodeDisambiguationFailed, "Role disambiguation failed",
		fmt.Sprintf("candidateId: %s, error: %s", candidateID, err.Error()), false)
}

func NewInvalidChatRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidChatRequest, "Chat request validation failed", details, false)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job input validation failed", details, false)
}

func NewSessionStoreUnavailableError(err error) *StandardError {
	return newError(ErrCodeSessionStoreUnavailable, "Session store unavailable", err.Error(), true)
}

func NewCandidateQueryFailedError(err error) *StandardError {
	return newError(ErrCodeCandidateQueryFailed, "Candidate pool query failed", err.Error(), true)
}

func NewCandidateSearchFailedError(err error) *StandardError {
	return newError(ErrCodeCandidateSearchFailed, "Candidate pool search failed", err.Error(), true)
}

func NewQueryTimeoutError(source string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Candidate pool query timeout", fmt.Sprintf("source: %s", source), true)
}

func NewUnsupportedPoolSourceError(source string) *StandardError {
	return newError(ErrCodeUnsupportedPoolSource, "Unsupported candidate pool source", fmt.Sprintf("source: %s", source), false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeCriteriaExtractionFailed: "CRITERIA_EXTRACTION_FAILED",
	ErrCodeLLMTimeout:               "LLM_TIMEOUT",
	ErrCodeLLMCompletionFailed:      "LLM_COMPLETION_FAILED",
	ErrCodeLLMCircuitOpen:           "LLM_CIRCUIT_OPEN",
	ErrCodeDisambiguationFailed:     "DISAMBIGUATION_FAILED",
	ErrCodeInvalidChatRequest:       "INVALID_CHAT_REQUEST",
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeSessionStoreUnavailable:  "SESSION_STORE_UNAVAILABLE",
	ErrCodeCandidateQueryFailed:     "CANDIDATE_QUERY_FAILED",
	ErrCodeCandidateSearchFailed:    "CANDIDATE_SEARCH_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeUnsupportedPoolSource:    "UNSUPPORTED_POOL_SOURCE",
}

// GetRetryCount is the Zeebe retry budget per code. Completion-service codes
// get a single retry: the clients already retry once internally.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSessionStoreUnavailable,
		ErrCodeCandidateQueryFailed,
		ErrCodeCandidateSearchFailed:
		return 3

	case ErrCodeQueryTimeout:
		return 2

	case ErrCodeLLMTimeout,
		ErrCodeLLMCompletionFailed,
		ErrCodeLLMCircuitOpen:
		return 1

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "EXTRACTION") || strings.Contains(codeStr, "DISAMBIGUATION"):
		return "AI"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "CANDIDATE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "POOL"):
		return "CANDIDATE_POOL"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
