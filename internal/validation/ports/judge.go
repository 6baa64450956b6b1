package ports

import "context"

// PurposeJudge decides whether the business purpose declared in the articles
// of association covers the activities registered on the CNPJ card. The
// validation engine depends on this port only; the LLM-backed implementation
// lives in adapters.
type PurposeJudge interface {
	// JudgeBusinessPurpose returns a verdict or an error. Errors are fatal for
	// the validation run and are not retried.
	JudgeBusinessPurpose(ctx context.Context, purposeText, activitiesText string) (PurposeVerdict, error)
}

// PurposeVerdict mirrors the judge's JSON answer. Both fields may be absent.
type PurposeVerdict struct {
	Match  *bool   `json:"match"`
	Reason *string `json:"reason"`
}

// Matches treats an absent match as true.
func (v PurposeVerdict) Matches() bool {
	return v.Match == nil || *v.Match
}
