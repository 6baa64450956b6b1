package validation

import (
	"strings"

	"docval/internal/documents"
	"docval/pkg/normalize"
)

// The rules below are pure domain logic: no I/O, no clock, no shared state.
// Each receives the records it needs and returns the inconsistencies it found.

const expectedTaxStatus = "ATIVA"

// checkTaxID compares the CNPJ of the card and of the certificate, digits only.
func checkTaxID(docs Documents) []Inconsistency {
	return CompareDocuments(FieldTaxID, []SourceValue{
		{Source: SourceCNPJCard, Value: normalize.Digits(docs.CNPJCard.Registration.TaxID)},
		{Source: SourceCertificate, Value: normalize.Digits(docs.Certificate.TaxID)},
	}, "CNPJ divergente entre documentos.", SeverityCritical)
}

// checkCompanyName compares the razão social across all three documents.
func checkCompanyName(docs Documents) []Inconsistency {
	return CompareDocuments(FieldCompanyName, []SourceValue{
		{Source: SourceArticles, Value: normalize.Text(docs.Articles.Entity.CompanyName)},
		{Source: SourceCNPJCard, Value: normalize.Text(docs.CNPJCard.Registration.CompanyName)},
		{Source: SourceCertificate, Value: normalize.Text(docs.Certificate.CompanyName)},
	}, "Razão social divergente entre documentos.", SeverityCritical)
}

// checkLegalNature compares the natureza jurídica across all three documents.
func checkLegalNature(docs Documents) []Inconsistency {
	return CompareDocuments(FieldLegalNature, []SourceValue{
		{Source: SourceArticles, Value: normalize.Text(docs.Articles.Entity.LegalNature)},
		{Source: SourceCNPJCard, Value: normalize.Text(docs.CNPJCard.Registration.LegalNature)},
		{Source: SourceCertificate, Value: normalize.Text(docs.Certificate.LegalNature)},
	}, "Natureza jurídica divergente entre documentos.", SeverityCritical)
}

// checkCertificateExpiration flags a certificate whose expiration date is
// before today. The certificate is still valid on its expiration day.
func checkCertificateExpiration(docs Documents, today documents.Date) []Inconsistency {
	expiration := docs.Certificate.ExpirationDate
	if !expiration.Before(today) {
		return nil
	}
	return []Inconsistency{{
		Field:    FieldExpirationDate,
		Message:  "Certidão negativa vencida.",
		Severity: SeverityCritical,
		Values: map[string]string{
			"data_validade": expiration.Display(),
			"data_atual":    today.Display(),
		},
	}}
}

// addressField describes one address sub-field comparison.
type addressField struct {
	name     string
	message  string
	severity Severity
	value    func(documents.Address) string
}

// addressFields is evaluated in order. Postal code compares digits only; the
// rest compare normalized text.
var addressFields = []addressField{
	{"cep", "CEP divergente entre documentos.", SeverityCritical,
		func(a documents.Address) string { return normalize.Digits(a.PostalCode) }},
	{"cidade", "Cidade divergente entre documentos.", SeverityCritical,
		func(a documents.Address) string { return normalize.Text(a.City) }},
	{"estado", "Estado divergente entre documentos.", SeverityCritical,
		func(a documents.Address) string { return normalize.Text(a.State) }},
	{"bairro", "Bairro divergente entre documentos.", SeverityCritical,
		func(a documents.Address) string { return normalize.Text(a.District) }},
	{"numero", "Número divergente entre documentos.", SeverityCritical,
		func(a documents.Address) string { return normalize.Text(a.Number) }},
	{"complemento", "Complemento divergente entre documentos.", SeverityWarning,
		func(a documents.Address) string { return normalize.Text(a.ComplementValue()) }},
	{"logradouro", "Logradouro divergente entre documentos.", SeverityWarning,
		func(a documents.Address) string { return normalize.Text(a.Street) }},
}

// checkAddress compares the articles head office with the CNPJ card address.
func checkAddress(docs Documents) []Inconsistency {
	articles := docs.Articles.HeadOffice
	card := docs.CNPJCard.Address

	var out []Inconsistency
	for _, f := range addressFields {
		out = append(out, CompareDocuments(f.name, []SourceValue{
			{Source: SourceArticles, Value: f.value(articles)},
			{Source: SourceCNPJCard, Value: f.value(card)},
		}, f.message, f.severity)...)
	}
	return out
}

// checkTaxStatus requires the CNPJ registration status to be ATIVA.
func checkTaxStatus(docs Documents) []Inconsistency {
	raw := docs.CNPJCard.TaxStatus.Status
	if strings.ToUpper(strings.TrimSpace(raw)) == expectedTaxStatus {
		return nil
	}
	return []Inconsistency{{
		Field:    FieldTaxStatus,
		Message:  "Situação cadastral do CNPJ não está ativa.",
		Severity: SeverityCritical,
		Values: map[string]string{
			"situacao_atual":    raw,
			"situacao_esperada": expectedTaxStatus,
		},
	}}
}
