package validation

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"docval/internal/documents"
	dErrors "docval/pkg/domain-errors"
	"docval/pkg/platform/sentinel"
)

// Severity classifies an inconsistency. Any CRITICAL entry rejects the run.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// Status is the overall verdict.
type Status string

const (
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Source names used as keys in Inconsistency.Values.
const (
	SourceArticles    = "contrato_social"
	SourceCNPJCard    = "cartao_cnpj"
	SourceCertificate = "certidao_negativa"
)

// Field identifiers reported by the rules.
const (
	FieldTaxID           = "cnpj"
	FieldCompanyName     = "razao_social"
	FieldLegalNature     = "natureza_juridica"
	FieldExpirationDate  = "data_validade"
	FieldTaxStatus       = "situacao_cadastral"
	FieldPartners        = "socios"
	FieldBusinessPurpose = "objeto_social"
)

// Inconsistency is one itemized discrepancy. Values maps the disagreeing
// sources (or auxiliary keys such as "data_atual") to the compared values.
type Inconsistency struct {
	Field    string            `json:"field"`
	Message  string            `json:"message"`
	Severity Severity          `json:"severity"`
	Values   map[string]string `json:"values,omitempty"`
}

// Result is the engine output.
type Result struct {
	Status          Status          `json:"status"`
	Inconsistencies []Inconsistency `json:"inconsistencies"`
}

// NewResult derives the status from the inconsistencies: REJECTED iff at least
// one is CRITICAL. Entries are kept as given, without deduplication.
func NewResult(inconsistencies []Inconsistency) *Result {
	if inconsistencies == nil {
		inconsistencies = []Inconsistency{}
	}
	status := StatusApproved
	for _, inc := range inconsistencies {
		if inc.Severity == SeverityCritical {
			status = StatusRejected
			break
		}
	}
	return &Result{Status: status, Inconsistencies: inconsistencies}
}

// Counts returns the number of critical and warning entries.
func (r *Result) Counts() (critical, warning int) {
	for _, inc := range r.Inconsistencies {
		switch inc.Severity {
		case SeverityCritical:
			critical++
		case SeverityWarning:
			warning++
		}
	}
	return critical, warning
}

// Documents bundles the three extracted records a run validates. The engine
// only reads them.
type Documents struct {
	Articles    *documents.ArticlesOfAssociation
	CNPJCard    *documents.CNPJCard
	Certificate *documents.TaxClearanceCertificate
}

var errMissingDocuments = dErrors.New(dErrors.CodeInternal, "validation requires all three documents")

// Record is a stored validation run.
type Record struct {
	ID              uuid.UUID       `json:"id"`
	ValidatedAt     time.Time       `json:"validated_at"`
	Status          Status          `json:"status"`
	Inconsistencies []Inconsistency `json:"inconsistencies"`
}

// Result returns the verdict part of the record.
func (r *Record) Result() *Result {
	return &Result{Status: r.Status, Inconsistencies: r.Inconsistencies}
}

// Counts returns the number of critical and warning entries.
func (r *Record) Counts() (critical, warning int) {
	return r.Result().Counts()
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}
