package ports

import (
	"context"
	"io"

	"docval/internal/documents"
)

// Upload is one PDF received by the service.
type Upload struct {
	Kind     documents.Kind
	Filename string
	Content  io.Reader
}

// TextExtractor turns a PDF upload into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, upload Upload) (string, error)
}

// DocumentExtractor turns document text into a typed record.
type DocumentExtractor interface {
	ExtractArticles(ctx context.Context, text string) (*documents.ArticlesOfAssociation, error)
	ExtractCNPJCard(ctx context.Context, text string) (*documents.CNPJCard, error)
	ExtractCertificate(ctx context.Context, text string) (*documents.TaxClearanceCertificate, error)
}
