package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docval/internal/extraction/cache"
	"docval/internal/llm"
	dErrors "docval/pkg/domain-errors"
)

const certificateJSON = `{
  "tipo_documento": "Certidão Negativa de Débitos",
  "razao_social": "empresa exemplo limitada",
  "natureza_juridica": "limitada",
  "cnpj": "12345678000199",
  "data_emissao": "2024-12-01",
  "data_validade": "2025-05-30",
  "status": "VALIDA",
  "codigo_controle": "ABCD.1234"
}`

type fakeCompleter struct {
	mu      sync.Mutex
	payload string
	err     error
	labels  []string
	prompts []string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, label, prompt string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labels = append(f.labels, label)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.payload), nil
}

type StructuredExtractorSuite struct {
	suite.Suite
	llm       *fakeCompleter
	cache     *cache.InMemoryCache
	extractor *StructuredExtractor
}

func TestStructuredExtractorSuite(t *testing.T) {
	suite.Run(t, new(StructuredExtractorSuite))
}

func (s *StructuredExtractorSuite) SetupTest() {
	s.llm = &fakeCompleter{payload: certificateJSON}
	s.cache = cache.NewInMemoryCache(time.Hour)
	s.extractor = NewStructuredExtractor(s.llm,
		WithCache(s.cache),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (s *StructuredExtractorSuite) TestExtractCertificate() {
	cert, err := s.extractor.ExtractCertificate(context.Background(), "CERTIDAO POSITIVA COM EFEITOS DE NEGATIVA")
	s.Require().NoError(err)

	s.Equal("12345678000199", cert.TaxID)
	s.Equal("30/05/2025", cert.ExpirationDate.Display())
	s.Equal([]string{"tax_clearance_certificate"}, s.llm.labels)
	s.True(strings.HasSuffix(s.llm.prompts[0], "Texto do documento:\nCERTIDAO POSITIVA COM EFEITOS DE NEGATIVA"))
}

func (s *StructuredExtractorSuite) TestCacheSkipsRepeatedCalls() {
	ctx := context.Background()
	_, err := s.extractor.ExtractCertificate(ctx, "mesmo texto")
	s.Require().NoError(err)
	_, err = s.extractor.ExtractCertificate(ctx, "mesmo texto")
	s.Require().NoError(err)
	s.Len(s.llm.labels, 1)

	_, err = s.extractor.ExtractCertificate(ctx, "outro texto")
	s.Require().NoError(err)
	s.Len(s.llm.labels, 2)
}

func (s *StructuredExtractorSuite) TestInvalidPayloadIsNotCached() {
	ctx := context.Background()
	s.llm.payload = `{"razao_social": "x"}`

	_, err := s.extractor.ExtractCertificate(ctx, "texto")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDocumentInvalid))

	s.llm.payload = certificateJSON
	_, err = s.extractor.ExtractCertificate(ctx, "texto")
	s.Require().NoError(err)
	s.Len(s.llm.labels, 2, "rejected payload must not be served from cache")
}

func (s *StructuredExtractorSuite) TestCacheIsScopedToModel() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	older := NewStructuredExtractor(s.llm, WithCache(s.cache), WithModel("model-a"), WithLogger(logger))
	newer := NewStructuredExtractor(s.llm, WithCache(s.cache), WithModel("model-b"), WithLogger(logger))

	_, err := older.ExtractCertificate(ctx, "mesmo texto")
	s.Require().NoError(err)
	_, err = older.ExtractCertificate(ctx, "mesmo texto")
	s.Require().NoError(err)
	s.Len(s.llm.labels, 1)

	_, err = newer.ExtractCertificate(ctx, "mesmo texto")
	s.Require().NoError(err)
	s.Len(s.llm.labels, 2)
}

func (s *StructuredExtractorSuite) TestWrongShapeForDocument() {
	s.llm.payload = `["not", "an", "object"]`

	_, err := s.extractor.ExtractCNPJCard(context.Background(), "texto")
	s.True(dErrors.HasCode(err, dErrors.CodeDocumentInvalid))
}

func (s *StructuredExtractorSuite) TestLLMFailuresMapToDomainCodes() {
	s.llm.err = llm.NewProviderError(llm.ErrorTimeout, "demorou", errors.New("deadline"))

	_, err := s.extractor.ExtractArticles(context.Background(), "texto")
	s.True(dErrors.HasCode(err, dErrors.CodeLLMTimeout))

	s.llm.err = llm.NewProviderError(llm.ErrorBadData, "json inválido", nil)
	_, err = s.extractor.ExtractArticles(context.Background(), "texto")
	s.True(dErrors.HasCode(err, dErrors.CodeLLMBadResponse))
}
