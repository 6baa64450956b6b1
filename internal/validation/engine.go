package validation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"docval/internal/documents"
	"docval/internal/validation/ports"
)

var tracer = otel.Tracer("docval/internal/validation")

// localRule is a rule that needs nothing beyond the documents and the date.
type localRule struct {
	name  string
	check func(Documents, documents.Date) []Inconsistency
}

// localRules run in this order; the business purpose rule is appended last.
var localRules = []localRule{
	{"tax_id", func(d Documents, _ documents.Date) []Inconsistency { return checkTaxID(d) }},
	{"company_name", func(d Documents, _ documents.Date) []Inconsistency { return checkCompanyName(d) }},
	{"legal_nature", func(d Documents, _ documents.Date) []Inconsistency { return checkLegalNature(d) }},
	{"certificate_expiration", checkCertificateExpiration},
	{"address", func(d Documents, _ documents.Date) []Inconsistency { return checkAddress(d) }},
	{"tax_status", func(d Documents, _ documents.Date) []Inconsistency { return checkTaxStatus(d) }},
	{"partners", func(d Documents, _ documents.Date) []Inconsistency { return checkPartners(d) }},
}

// Engine applies the consistency rules to one set of documents. It holds no
// per-run state and can be shared between goroutines.
type Engine struct {
	judge ports.PurposeJudge
}

func NewEngine(judge ports.PurposeJudge) *Engine {
	return &Engine{judge: judge}
}

// Validate runs every rule and aggregates the inconsistencies. The judge call
// is issued first and the local rules run while it is in flight. A judge
// failure fails the whole run and no partial result is returned.
func (e *Engine) Validate(ctx context.Context, docs Documents, today documents.Date) (*Result, error) {
	if docs.Articles == nil || docs.CNPJCard == nil || docs.Certificate == nil {
		return nil, errMissingDocuments
	}

	ctx, span := tracer.Start(ctx, "validation.Engine.Validate")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)

	var purpose []Inconsistency
	g.Go(func() error {
		found, err := checkBusinessPurpose(gctx, e.judge, docs)
		if err != nil {
			return err
		}
		purpose = found
		return nil
	})

	var out []Inconsistency
	for _, rule := range localRules {
		out = append(out, rule.check(docs, today)...)
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "business purpose judge failed")
		return nil, err
	}
	out = append(out, purpose...)

	result := NewResult(out)
	critical, warning := result.Counts()
	span.SetAttributes(
		attribute.String("validation.status", string(result.Status)),
		attribute.Int("validation.critical", critical),
		attribute.Int("validation.warning", warning),
	)
	return result, nil
}
