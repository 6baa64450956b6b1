package validation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"docval/internal/documents"
	"docval/internal/validation/ports"
	dErrors "docval/pkg/domain-errors"
	"docval/pkg/platform/sentinel"
)

type stubTexts struct {
	mu    sync.Mutex
	texts map[documents.Kind]string
	err   error
	seen  []documents.Kind
}

func (s *stubTexts) ExtractText(_ context.Context, upload ports.Upload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, upload.Kind)
	if s.err != nil {
		return "", s.err
	}
	return s.texts[upload.Kind], nil
}

type stubExtractor struct {
	docs   Documents
	err    error
	mu     sync.Mutex
	inputs []string
}

func (s *stubExtractor) record(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, text)
}

func (s *stubExtractor) ExtractArticles(_ context.Context, text string) (*documents.ArticlesOfAssociation, error) {
	s.record(text)
	return s.docs.Articles, s.err
}

func (s *stubExtractor) ExtractCNPJCard(_ context.Context, text string) (*documents.CNPJCard, error) {
	s.record(text)
	return s.docs.CNPJCard, nil
}

func (s *stubExtractor) ExtractCertificate(_ context.Context, text string) (*documents.TaxClearanceCertificate, error) {
	s.record(text)
	return s.docs.Certificate, nil
}

type memoryStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
	err     error
}

func (m *memoryStore) Save(_ context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records[record.ID] = record
	return nil
}

func (m *memoryStore) FindByID(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r, nil
}

type ServiceSuite struct {
	suite.Suite
	texts     *stubTexts
	extractor *stubExtractor
	judge     *stubJudge
	store     *memoryStore
	service   *Service
	now       time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.texts = &stubTexts{texts: map[documents.Kind]string{
		documents.KindArticlesOfAssociation:   "contrato",
		documents.KindCNPJCard:                "cartao",
		documents.KindTaxClearanceCertificate: "certidao",
	}}
	s.extractor = &stubExtractor{docs: consistentDocuments()}
	s.judge = matchingJudge()
	s.store = &memoryStore{records: map[uuid.UUID]*Record{}}
	s.now = time.Date(2025, time.January, 1, 15, 30, 0, 0, time.UTC)

	var err error
	s.service, err = NewService(s.texts, s.extractor, s.judge, s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func submission() Submission {
	return Submission{
		Articles:    ports.Upload{Kind: documents.KindArticlesOfAssociation, Filename: "contrato.pdf"},
		CNPJCard:    ports.Upload{Kind: documents.KindCNPJCard, Filename: "cartao.PDF"},
		Certificate: ports.Upload{Kind: documents.KindTaxClearanceCertificate, Filename: "certidao.pdf"},
	}
}

func (s *ServiceSuite) TestNewServiceRequiresCollaborators() {
	_, err := NewService(nil, s.extractor, s.judge, s.store)
	s.ErrorContains(err, "text extractor is required")

	_, err = NewService(s.texts, s.extractor, s.judge, nil)
	s.ErrorContains(err, "validation store is required")
}

func (s *ServiceSuite) TestValidateStoresTheRun() {
	record, err := s.service.Validate(context.Background(), submission())
	s.Require().NoError(err)

	s.Equal(StatusApproved, record.Status)
	s.Equal(s.now, record.ValidatedAt)
	s.NotEqual(uuid.Nil, record.ID)
	s.ElementsMatch([]string{"contrato", "cartao", "certidao"}, s.extractor.inputs)

	stored, err := s.service.Get(context.Background(), record.ID)
	s.Require().NoError(err)
	s.Equal(record, stored)
}

func (s *ServiceSuite) TestValidateUsesClockForExpiration() {
	s.now = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	record, err := s.service.Validate(context.Background(), submission())
	s.Require().NoError(err)
	s.Equal(StatusRejected, record.Status)
	s.Require().Len(record.Inconsistencies, 1)
	s.Equal("01/06/2025", record.Inconsistencies[0].Values["data_atual"])
}

func (s *ServiceSuite) TestRejectsNonPDFUploads() {
	sub := submission()
	sub.CNPJCard.Filename = "cartao.docx"

	_, err := s.service.Validate(context.Background(), sub)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidFile))
	s.Contains(err.Error(), "O arquivo 'cartao.docx' não é um PDF.")
	s.Empty(s.texts.seen)
}

func (s *ServiceSuite) TestStageFailuresStopThePipeline() {
	s.Run("text extraction", func() {
		s.texts.err = dErrors.New(dErrors.CodePDFExtraction, "no text")
		defer func() { s.texts.err = nil }()

		_, err := s.service.Validate(context.Background(), submission())
		s.True(dErrors.HasCode(err, dErrors.CodePDFExtraction))
		s.Empty(s.extractor.inputs)
		s.Equal(int32(0), s.judge.calls.Load())
	})

	s.Run("structured extraction", func() {
		s.extractor.err = dErrors.New(dErrors.CodeDocumentInvalid, "missing fields")
		defer func() { s.extractor.err = nil }()

		_, err := s.service.Validate(context.Background(), submission())
		s.True(dErrors.HasCode(err, dErrors.CodeDocumentInvalid))
		s.Equal(int32(0), s.judge.calls.Load())
		s.Empty(s.store.records)
	})

	s.Run("judge", func() {
		s.judge.err = dErrors.New(dErrors.CodeLLMTimeout, "timed out")
		defer func() { s.judge.err = nil }()

		_, err := s.service.Validate(context.Background(), submission())
		s.True(dErrors.HasCode(err, dErrors.CodeLLMTimeout))
		s.Empty(s.store.records)
	})

	s.Run("store", func() {
		s.store.err = errors.New("connection refused")
		defer func() { s.store.err = nil }()

		_, err := s.service.Validate(context.Background(), submission())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestGet() {
	s.Run("unknown id is not found", func() {
		_, err := s.service.Get(context.Background(), uuid.New())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("store failure is internal", func() {
		s.store.err = errors.New("boom")
		defer func() { s.store.err = nil }()

		_, err := s.service.Get(context.Background(), uuid.New())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
