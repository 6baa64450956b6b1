package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeLLMUnavailable, "llm call failed")

	assert.True(t, HasCode(err, CodeLLMUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	wrapped := fmt.Errorf("outer: %w", New(CodeNotFound, "missing"))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:      http.StatusBadRequest,
		CodeInvalidFile:     http.StatusUnprocessableEntity,
		CodePDFExtraction:   http.StatusUnprocessableEntity,
		CodeDocumentInvalid: http.StatusUnprocessableEntity,
		CodeNotFound:        http.StatusNotFound,
		CodeLLMTimeout:      http.StatusGatewayTimeout,
		CodeLLMUnavailable:  http.StatusBadGateway,
		CodeLLMBadResponse:  http.StatusBadGateway,
		CodeInternal:        http.StatusInternalServerError,
		Code("unknown"):     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
