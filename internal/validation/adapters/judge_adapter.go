package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"docval/internal/llm"
	"docval/internal/prompts"
	"docval/internal/validation/ports"
	dErrors "docval/pkg/domain-errors"
)

// Completer is the LLM capability the judge needs.
type Completer interface {
	CompleteJSON(ctx context.Context, label, prompt string) (json.RawMessage, error)
}

// LLMPurposeJudge implements ports.PurposeJudge with the business purpose
// validation prompt.
type LLMPurposeJudge struct {
	llm Completer
}

func NewLLMPurposeJudge(completer Completer) ports.PurposeJudge {
	return &LLMPurposeJudge{llm: completer}
}

func (j *LLMPurposeJudge) JudgeBusinessPurpose(ctx context.Context, purposeText, activitiesText string) (ports.PurposeVerdict, error) {
	prompt, err := prompts.BuildPrompt(prompts.BusinessPurposeValidation, map[string]string{
		prompts.KeyBusinessPurpose: purposeText,
		prompts.KeyActivities:      activitiesText,
	})
	if err != nil {
		return ports.PurposeVerdict{}, err
	}

	payload, err := j.llm.CompleteJSON(ctx, string(prompts.BusinessPurposeValidation), prompt)
	if err != nil {
		return ports.PurposeVerdict{}, llm.ToDomainError(err)
	}
	return decodeVerdict(payload)
}

// decodeVerdict reads {"match": bool, "reason": string}. Missing or null
// fields stay nil; a non-boolean match is a bad response. A non-string reason
// is ignored.
func decodeVerdict(payload []byte) (ports.PurposeVerdict, error) {
	var raw struct {
		Match  json.RawMessage `json:"match"`
		Reason json.RawMessage `json:"reason"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ports.PurposeVerdict{}, dErrors.Wrap(err, dErrors.CodeLLMBadResponse,
			"Não foi possível processar a resposta do serviço. Tente novamente.")
	}

	var verdict ports.PurposeVerdict
	if len(raw.Match) > 0 && string(raw.Match) != "null" {
		var match bool
		if err := json.Unmarshal(raw.Match, &match); err != nil {
			return ports.PurposeVerdict{}, dErrors.Wrap(
				fmt.Errorf("match is not a boolean: %s", raw.Match),
				dErrors.CodeLLMBadResponse,
				"Estrutura de resposta inválida do serviço. Tente novamente.")
		}
		verdict.Match = &match
	}
	if len(raw.Reason) > 0 {
		var reason string
		if err := json.Unmarshal(raw.Reason, &reason); err == nil && string(raw.Reason) != "null" {
			verdict.Reason = &reason
		}
	}
	return verdict, nil
}
