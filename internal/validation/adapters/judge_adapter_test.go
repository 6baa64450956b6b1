package adapters

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docval/internal/llm"
	dErrors "docval/pkg/domain-errors"
)

type fakeCompleter struct {
	payload string
	err     error
	label   string
	prompt  string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, label, prompt string) (json.RawMessage, error) {
	f.label = label
	f.prompt = prompt
	return json.RawMessage(f.payload), f.err
}

func TestLLMPurposeJudge(t *testing.T) {
	t.Run("builds the prompt and decodes the verdict", func(t *testing.T) {
		llmStub := &fakeCompleter{payload: `{"match": false, "reason": "Transporte ausente."}`}
		judge := NewLLMPurposeJudge(llmStub)

		verdict, err := judge.JudgeBusinessPurpose(context.Background(), "- Software", "Atividade Principal:")
		require.NoError(t, err)

		assert.Equal(t, "business_purpose_validation", llmStub.label)
		assert.Contains(t, llmStub.prompt, "Objeto Social: - Software")
		assert.Contains(t, llmStub.prompt, "Atividades CNPJ: Atividade Principal:")
		require.NotNil(t, verdict.Match)
		assert.False(t, *verdict.Match)
		require.NotNil(t, verdict.Reason)
		assert.Equal(t, "Transporte ausente.", *verdict.Reason)
		assert.False(t, verdict.Matches())
	})

	t.Run("provider errors become domain errors", func(t *testing.T) {
		judge := NewLLMPurposeJudge(&fakeCompleter{err: llm.NewProviderError(llm.ErrorTimeout, "demorou", nil)})

		_, err := judge.JudgeBusinessPurpose(context.Background(), "a", "b")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeLLMTimeout))
	})
}

func TestDecodeVerdict(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantMatch  *bool
		wantReason *string
		wantErr    bool
	}{
		{name: "empty object", payload: `{}`},
		{name: "null fields", payload: `{"match": null, "reason": null}`},
		{name: "match only", payload: `{"match": true}`, wantMatch: ptr(true)},
		{name: "non-string reason ignored", payload: `{"match": false, "reason": 3}`, wantMatch: ptr(false)},
		{name: "string match rejected", payload: `{"match": "false"}`, wantErr: true},
		{name: "not an object", payload: `[true]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := decodeVerdict([]byte(tt.payload))
			if tt.wantErr {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeLLMBadResponse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatch, verdict.Match)
			assert.Equal(t, tt.wantReason, verdict.Reason)
		})
	}
}

func ptr[T any](v T) *T { return &v }
