package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"docval/internal/documents"
	"docval/internal/validation/metrics"
	"docval/internal/validation/ports"
	dErrors "docval/pkg/domain-errors"
	"docval/pkg/requestcontext"
)

// Store persists completed validation runs.
type Store interface {
	Save(ctx context.Context, record *Record) error
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
}

// Submission is the set of uploads for one validation run.
type Submission struct {
	Articles    ports.Upload
	CNPJCard    ports.Upload
	Certificate ports.Upload
}

func (s Submission) uploads() []ports.Upload {
	return []ports.Upload{s.Articles, s.CNPJCard, s.Certificate}
}

// Service runs the full pipeline: PDF text, structured extraction, rules,
// persistence.
type Service struct {
	texts     ports.TextExtractor
	extractor ports.DocumentExtractor
	engine    *Engine
	store     Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock fixes the time source used for "today". Without it the request
// time from the context is used.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService wires the pipeline. Every collaborator is required.
func NewService(texts ports.TextExtractor, extractor ports.DocumentExtractor, judge ports.PurposeJudge, store Store, opts ...Option) (*Service, error) {
	if texts == nil {
		return nil, fmt.Errorf("text extractor is required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("document extractor is required")
	}
	if judge == nil {
		return nil, fmt.Errorf("purpose judge is required")
	}
	if store == nil {
		return nil, fmt.Errorf("validation store is required")
	}
	s := &Service{
		texts:     texts,
		extractor: extractor,
		engine:    NewEngine(judge),
		store:     store,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Validate runs one submission end to end and stores the outcome.
func (s *Service) Validate(ctx context.Context, sub Submission) (*Record, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "validation.Service.Validate",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	record, err := s.validate(ctx, sub)
	s.metrics.ObserveRunLatency(time.Since(start))
	if err != nil {
		code := dErrors.CodeOf(err)
		s.metrics.IncrementFailure(string(code))
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "document validation failed",
			"request_id", requestcontext.RequestID(ctx),
			"code", code,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	span.SetAttributes(attribute.String("validation.id", record.ID.String()))
	s.logSummary(ctx, record, time.Since(start))
	return record, nil
}

func (s *Service) validate(ctx context.Context, sub Submission) (*Record, error) {
	for _, upload := range sub.uploads() {
		if err := checkPDFName(upload); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "starting PDF text extraction", "request_id", requestcontext.RequestID(ctx))
	texts, err := s.extractTexts(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "starting structured data extraction", "request_id", requestcontext.RequestID(ctx))
	docs, err := s.extractDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}

	now := s.now(ctx)
	rulesStart := time.Now()
	result, err := s.engine.Validate(ctx, docs, documents.DateOf(now))
	s.metrics.ObserveStageLatency("rules", time.Since(rulesStart))
	if err != nil {
		return nil, err
	}

	record := &Record{
		ID:              uuid.New(),
		ValidatedAt:     now.UTC(),
		Status:          result.Status,
		Inconsistencies: result.Inconsistencies,
	}
	if err := s.store.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store validation result")
	}

	s.metrics.IncrementOutcome(string(record.Status))
	for _, inc := range record.Inconsistencies {
		s.metrics.IncrementInconsistency(inc.Field, string(inc.Severity))
	}
	return record, nil
}

// Get returns a stored validation run.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, dErrors.New(dErrors.CodeNotFound, "validation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load validation result")
	}
	return record, nil
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

type documentTexts struct {
	articles    string
	cnpjCard    string
	certificate string
}

// extractTexts reads the three PDFs concurrently. The first failure cancels
// the others.
func (s *Service) extractTexts(ctx context.Context, sub Submission) (documentTexts, error) {
	var out documentTexts
	g, gctx := errgroup.WithContext(ctx)

	run := func(upload ports.Upload, dst *string) {
		g.Go(func() error {
			start := time.Now()
			text, err := s.texts.ExtractText(gctx, upload)
			s.metrics.ObserveStageLatency("text_extraction", time.Since(start))
			if err != nil {
				return err
			}
			*dst = text
			return nil
		})
	}
	run(sub.Articles, &out.articles)
	run(sub.CNPJCard, &out.cnpjCard)
	run(sub.Certificate, &out.certificate)

	if err := g.Wait(); err != nil {
		return documentTexts{}, err
	}
	return out, nil
}

// extractDocuments turns the three texts into typed records concurrently.
func (s *Service) extractDocuments(ctx context.Context, texts documentTexts) (Documents, error) {
	var docs Documents
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer s.observeStage("structured_extraction", time.Now())
		articles, err := s.extractor.ExtractArticles(gctx, texts.articles)
		if err != nil {
			return err
		}
		docs.Articles = articles
		return nil
	})
	g.Go(func() error {
		defer s.observeStage("structured_extraction", time.Now())
		card, err := s.extractor.ExtractCNPJCard(gctx, texts.cnpjCard)
		if err != nil {
			return err
		}
		docs.CNPJCard = card
		return nil
	})
	g.Go(func() error {
		defer s.observeStage("structured_extraction", time.Now())
		certificate, err := s.extractor.ExtractCertificate(gctx, texts.certificate)
		if err != nil {
			return err
		}
		docs.Certificate = certificate
		return nil
	})

	if err := g.Wait(); err != nil {
		return Documents{}, err
	}
	return docs, nil
}

func (s *Service) observeStage(stage string, start time.Time) {
	s.metrics.ObserveStageLatency(stage, time.Since(start))
}

func (s *Service) logSummary(ctx context.Context, record *Record, elapsed time.Duration) {
	critical, warning := record.Counts()
	summary := make([]string, 0, len(record.Inconsistencies))
	for _, inc := range record.Inconsistencies {
		summary = append(summary, inc.Field+":"+string(inc.Severity))
	}
	s.logger.InfoContext(ctx, "document validation completed",
		"request_id", requestcontext.RequestID(ctx),
		"validation_id", record.ID.String(),
		"status", record.Status,
		"total_inconsistencies", len(record.Inconsistencies),
		"critical_count", critical,
		"warning_count", warning,
		"inconsistencies", summary,
		"duration_ms", elapsed.Milliseconds(),
	)
}

// checkPDFName accepts only uploads whose file name ends in .pdf.
func checkPDFName(upload ports.Upload) error {
	if strings.HasSuffix(strings.ToLower(upload.Filename), ".pdf") {
		return nil
	}
	name := ""
	if upload.Filename != "" {
		name = fmt.Sprintf(" '%s'", upload.Filename)
	}
	return dErrors.New(dErrors.CodeInvalidFile,
		fmt.Sprintf("O arquivo%s não é um PDF. Por favor, envie apenas arquivos PDF.", name))
}
