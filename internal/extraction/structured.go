// Package extraction turns uploaded PDFs into typed documents: pdftotext for
// the text, then one JSON-mode LLM call per document.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"docval/internal/documents"
	"docval/internal/extraction/cache"
	"docval/internal/llm"
	"docval/internal/prompts"
	"docval/pkg/platform/sentinel"
	"docval/pkg/requestcontext"
)

// Completer is the LLM capability the extractor needs.
type Completer interface {
	CompleteJSON(ctx context.Context, label, prompt string) (json.RawMessage, error)
}

// Cache stores raw extraction payloads. Get returns sentinel.ErrNotFound on a
// miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
}

// StructuredExtractor implements ports.DocumentExtractor.
type StructuredExtractor struct {
	llm    Completer
	cache  Cache
	model  string
	logger *slog.Logger
}

type Option func(*StructuredExtractor)

// WithCache enables payload caching. Only payloads that decoded and validated
// are cached.
func WithCache(c Cache) Option {
	return func(e *StructuredExtractor) {
		e.cache = c
	}
}

// WithModel names the model behind the completer. It is part of every cache
// key, so payloads from a previous model are not reused.
func WithModel(model string) Option {
	return func(e *StructuredExtractor) {
		e.model = model
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *StructuredExtractor) {
		e.logger = logger
	}
}

func NewStructuredExtractor(completer Completer, opts ...Option) *StructuredExtractor {
	e := &StructuredExtractor{llm: completer, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *StructuredExtractor) ExtractArticles(ctx context.Context, text string) (*documents.ArticlesOfAssociation, error) {
	return extract[documents.ArticlesOfAssociation](ctx, e, documents.KindArticlesOfAssociation, prompts.ArticlesOfAssociation, text)
}

func (e *StructuredExtractor) ExtractCNPJCard(ctx context.Context, text string) (*documents.CNPJCard, error) {
	return extract[documents.CNPJCard](ctx, e, documents.KindCNPJCard, prompts.CNPJCard, text)
}

func (e *StructuredExtractor) ExtractCertificate(ctx context.Context, text string) (*documents.TaxClearanceCertificate, error) {
	return extract[documents.TaxClearanceCertificate](ctx, e, documents.KindTaxClearanceCertificate, prompts.TaxClearanceCertificate, text)
}

type recordPtr[T any] interface {
	*T
	documents.Record
}

func extract[T any, P recordPtr[T]](ctx context.Context, e *StructuredExtractor, kind documents.Kind, name prompts.Name, text string) (*T, error) {
	prompt, err := prompts.BuildPrompt(name, map[string]string{prompts.KeyDocumentText: text})
	if err != nil {
		return nil, err
	}
	key := cache.Key(e.model, string(name), prompt)
	if payload, ok := e.lookup(ctx, key); ok {
		if rec, err := documents.Decode[T, P](kind, payload); err == nil {
			return rec, nil
		}
	}

	payload, err := e.llm.CompleteJSON(ctx, string(name), prompt)
	if err != nil {
		return nil, llm.ToDomainError(err)
	}

	rec, err := documents.Decode[T, P](kind, payload)
	if err != nil {
		e.logger.ErrorContext(ctx, "extracted document rejected",
			"request_id", requestcontext.RequestID(ctx),
			"document", kind,
			"error", err,
		)
		return nil, err
	}
	e.store(ctx, key, payload)
	return rec, nil
}

func (e *StructuredExtractor) lookup(ctx context.Context, key string) ([]byte, bool) {
	if e.cache == nil {
		return nil, false
	}
	payload, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			e.logger.WarnContext(ctx, "extraction cache lookup failed", "error", err)
		}
		return nil, false
	}
	return payload, true
}

func (e *StructuredExtractor) store(ctx context.Context, key string, payload []byte) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, key, payload); err != nil {
		e.logger.WarnContext(ctx, "extraction cache store failed", "error", err)
	}
}
