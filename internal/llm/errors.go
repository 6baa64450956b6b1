package llm

import (
	"errors"
	"fmt"

	dErrors "docval/pkg/domain-errors"
)

// ErrorCategory is the normalized failure taxonomy for the LLM provider.
type ErrorCategory string

const (
	// ErrorTimeout: the provider did not answer within the call timeout
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData: the answer was not the JSON we asked for
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorContractMismatch: the answer lacks choices[0].message.content
	ErrorContractMismatch ErrorCategory = "contract_mismatch"

	// ErrorAuthentication: the API key was rejected
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorRateLimited: the provider throttled us
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorProviderOutage: transport failure, 5xx, or an open circuit
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorInternal: anything we could not classify
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps an LLM failure with its category. Message is the
// client-facing text.
type ProviderError struct {
	Category   ErrorCategory
	Message    string
	StatusCode int
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("llm [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("llm [%s]: %s", e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a categorized error. Retryable is informational;
// this package never retries.
func NewProviderError(category ErrorCategory, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		Message:    message,
		Underlying: underlying,
		Retryable: category == ErrorTimeout ||
			category == ErrorProviderOutage ||
			category == ErrorRateLimited,
	}
}

// GetCategory extracts the category, or ErrorInternal for foreign errors.
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// IsRetryable reports whether the failure is transient.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// ToDomainError maps a provider failure onto the API error codes: timeouts
// become llm_timeout, malformed answers llm_bad_response and the rest
// llm_unavailable.
func ToDomainError(err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "unexpected LLM failure")
	}
	switch pe.Category {
	case ErrorTimeout:
		return dErrors.Wrap(err, dErrors.CodeLLMTimeout, pe.Message)
	case ErrorBadData, ErrorContractMismatch:
		return dErrors.Wrap(err, dErrors.CodeLLMBadResponse, pe.Message)
	default:
		return dErrors.Wrap(err, dErrors.CodeLLMUnavailable, pe.Message)
	}
}

// Client-facing messages.
const (
	msgTimeout      = "O serviço de processamento de documentos demorou muito para responder. Tente novamente."
	msgTransport    = "Erro ao comunicar com o serviço de processamento. Tente novamente mais tarde."
	msgHTTPStatus   = "Erro no serviço de processamento de documentos. Tente novamente mais tarde."
	msgInvalidBody  = "Resposta inválida do serviço de processamento. Tente novamente."
	msgBadStructure = "Estrutura de resposta inválida do serviço. Tente novamente."
	msgEmpty        = "Resposta vazia do serviço de processamento. Tente novamente."
	msgBadJSON      = "Não foi possível processar a resposta do serviço. Tente novamente."
	msgCircuitOpen  = "Serviço de processamento temporariamente indisponível. Tente novamente mais tarde."
)
