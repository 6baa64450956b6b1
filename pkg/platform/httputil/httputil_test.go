package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docval/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "internal message is hidden",
			err:        dErrors.New(dErrors.CodeInternal, "insert validation row"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal_error"}`,
		},
		{
			name:       "plain error is internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal_error"}`,
		},
		{
			name:       "missing upload field",
			err:        dErrors.New(dErrors.CodeValidation, "cnpj_card is required"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"error":"validation_error","error_description":"cnpj_card is required"}`,
		},
		{
			name:       "llm timeout keeps outer message",
			err:        dErrors.Wrap(errors.New("context deadline exceeded"), dErrors.CodeLLMTimeout, "Tempo limite excedido."),
			wantStatus: http.StatusGatewayTimeout,
			wantBody:   `{"error":"llm_timeout","error_description":"Tempo limite excedido."}`,
		},
		{
			name:       "upload too large",
			err:        dErrors.New(dErrors.CodeTooLarge, "upload exceeds limit"),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   `{"error":"payload_too_large","error_description":"upload exceeds limit"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			require.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
