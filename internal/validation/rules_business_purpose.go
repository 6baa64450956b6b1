package validation

import (
	"context"
	"strings"

	"docval/internal/documents"
	"docval/internal/validation/ports"
)

const (
	purposeNotSpecified  = "Objeto social não especificado."
	purposeMismatch      = "Objeto social não está alinhado com as atividades do cartão CNPJ."
	purposeDefaultReason = "Objeto social não contempla as atividades do cartão CNPJ."
)

// FormatBusinessPurpose renders the purpose clauses as a bulleted list.
func FormatBusinessPurpose(purpose []string) string {
	if len(purpose) == 0 {
		return purposeNotSpecified
	}
	lines := make([]string, 0, len(purpose))
	for _, item := range purpose {
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}

// FormatActivities renders the main and secondary CNAE activities of the card.
func FormatActivities(activities documents.Activities) string {
	lines := []string{
		"Atividade Principal:",
		"  Código CNAE: " + activities.Main.Code,
		"  Descrição: " + activities.Main.Description,
	}
	if len(activities.Secondary) > 0 {
		lines = append(lines, "\nAtividades Secundárias:")
		for _, a := range activities.Secondary {
			lines = append(lines,
				"  Código CNAE: "+a.Code,
				"  Descrição: "+a.Description,
			)
		}
	}
	return strings.Join(lines, "\n")
}

// checkBusinessPurpose asks the judge whether the articles' purpose covers the
// card activities. A judge failure fails the rule; it is not retried.
func checkBusinessPurpose(ctx context.Context, judge ports.PurposeJudge, docs Documents) ([]Inconsistency, error) {
	verdict, err := judge.JudgeBusinessPurpose(ctx,
		FormatBusinessPurpose(docs.Articles.BusinessPurpose),
		FormatActivities(docs.CNPJCard.Activities),
	)
	if err != nil {
		return nil, err
	}
	return interpretPurposeVerdict(verdict), nil
}

func interpretPurposeVerdict(verdict ports.PurposeVerdict) []Inconsistency {
	if verdict.Matches() {
		return nil
	}
	reason := purposeDefaultReason
	if verdict.Reason != nil {
		reason = *verdict.Reason
	}
	return []Inconsistency{{
		Field:    FieldBusinessPurpose,
		Message:  purposeMismatch + " " + reason,
		Severity: SeverityCritical,
	}}
}
