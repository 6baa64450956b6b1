package validation

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"docval/internal/documents"
	"docval/internal/validation/ports"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

var today = documents.NewDate(2025, time.January, 1)

// consistentDocuments returns three records that agree on every compared field.
func consistentDocuments() Documents {
	address := documents.Address{
		Street:     "Avenida Paulista",
		Number:     "1000",
		Complement: strPtr("Sala 1"),
		District:   "Bela Vista",
		PostalCode: "01310-100",
		City:       "São Paulo",
		State:      "SP",
	}
	cardAddress := address
	cardAddress.Complement = strPtr("Sala 1")

	return Documents{
		Articles: &documents.ArticlesOfAssociation{
			DocumentType: "Contrato Social",
			Entity: documents.EntityInfo{
				CompanyName:      "Empresa Exemplo Ltda",
				LegalNature:      "Sociedade Empresária Limitada",
				RegistrationDate: documents.NewDate(2015, time.March, 1),
				StartDate:        documents.NewDate(2015, time.March, 1),
			},
			HeadOffice:      address,
			BusinessPurpose: []string{"Desenvolvimento de software"},
			Shareholders: []documents.Party{
				{NameOrCompanyName: "Maria Silva", TaxID: "111.222.333-44", Qualification: "Sócio Administrador"},
				{NameOrCompanyName: "Holding Exemplo SA", TaxID: "98.765.432/0001-10", Qualification: "Sócio"},
			},
		},
		CNPJCard: &documents.CNPJCard{
			Registration: documents.RegistrationInfo{
				TaxID:       "12.345.678/0001-99",
				CompanyName: "EMPRESA EXEMPLO LTDA",
				LegalNature: "sociedade empresaria limitada",
				OpeningDate: documents.NewDate(2015, time.March, 10),
			},
			Activities: documents.Activities{
				Main:      documents.Activity{Code: "62.01-5-01", Description: "Desenvolvimento de programas de computador sob encomenda"},
				Secondary: []documents.Activity{},
			},
			Address:   cardAddress,
			TaxStatus: documents.TaxStatus{Status: "ATIVA", StatusDate: documents.NewDate(2015, time.March, 10)},
			Partners: []documents.Party{
				{NameOrCompanyName: "MARIA SILVA", TaxID: "11122233344", Qualification: "socio administrador"},
				{NameOrCompanyName: "Holding Exemplo SA", TaxID: "98765432000110", Qualification: "Sócio"},
			},
		},
		Certificate: &documents.TaxClearanceCertificate{
			CompanyName:    "Empresa Exemplo Ltda",
			LegalNature:    "Sociedade Empresária Limitada",
			TaxID:          "12345678000199",
			IssueDate:      documents.NewDate(2024, time.December, 1),
			ExpirationDate: documents.NewDate(2025, time.May, 30),
		},
	}
}

// stubJudge answers with a fixed verdict or error and counts calls.
type stubJudge struct {
	verdict ports.PurposeVerdict
	err     error
	calls   atomic.Int32

	purposeText    string
	activitiesText string
}

func (j *stubJudge) JudgeBusinessPurpose(_ context.Context, purposeText, activitiesText string) (ports.PurposeVerdict, error) {
	j.calls.Add(1)
	j.purposeText = purposeText
	j.activitiesText = activitiesText
	return j.verdict, j.err
}

func matchingJudge() *stubJudge {
	return &stubJudge{verdict: ports.PurposeVerdict{Match: boolPtr(true)}}
}

var errJudgeDown = errors.New("judge unavailable")
