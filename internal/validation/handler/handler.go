package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"docval/internal/documents"
	"docval/internal/validation"
	"docval/internal/validation/ports"
	dErrors "docval/pkg/domain-errors"
	"docval/pkg/platform/httputil"
	"docval/pkg/requestcontext"
)

// DefaultMaxUploadBytes bounds the whole multipart body.
const DefaultMaxUploadBytes int64 = 30 << 20

// multipart parts above this size are spooled to disk
const memoryLimit = 8 << 20

// Service defines the interface for validation operations.
type Service interface {
	Validate(ctx context.Context, sub validation.Submission) (*validation.Record, error)
	Get(ctx context.Context, id uuid.UUID) (*validation.Record, error)
}

// Handler wires validation endpoints to the validation service.
type Handler struct {
	service        Service
	logger         *slog.Logger
	maxUploadBytes int64
}

// New constructs a validation handler. A non-positive maxUploadBytes uses
// DefaultMaxUploadBytes.
func New(service Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		service:        service,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register mounts validation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/validate-docs", h.HandleValidate)
	r.Get("/validations/{id}", h.HandleGet)
}

// HandleValidate handles POST /validate-docs multipart uploads.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		h.logger.WarnContext(ctx, "invalid multipart request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, multipartError(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	sub, closeFiles, err := submissionFromForm(r.MultipartForm)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer closeFiles()

	record, err := h.service.Validate(ctx, sub)
	if err != nil {
		h.logger.ErrorContext(ctx, "document validation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "documents validated",
		"request_id", requestID,
		"validation_id", record.ID,
		"status", record.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleGet handles GET /validations/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid validation id"))
		return
	}

	record, err := h.service.Get(ctx, id)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to load validation",
				"request_id", requestID,
				"validation_id", id,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

func multipartError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return dErrors.Wrap(err, dErrors.CodeTooLarge, "upload exceeds the size limit")
	}
	return dErrors.Wrap(err, dErrors.CodeBadRequest, "request must be multipart/form-data")
}

// submissionFromForm opens the three required file fields. The returned
// function closes every opened file.
func submissionFromForm(form *multipart.Form) (validation.Submission, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	uploads := make(map[documents.Kind]ports.Upload, len(documents.Kinds))
	for _, kind := range documents.Kinds {
		headers := form.File[kind.String()]
		if len(headers) == 0 {
			closeAll()
			return validation.Submission{}, nil, dErrors.New(dErrors.CodeValidation, kind.String()+" is required")
		}
		f, err := headers[0].Open()
		if err != nil {
			closeAll()
			return validation.Submission{}, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read "+kind.String())
		}
		opened = append(opened, f)
		uploads[kind] = ports.Upload{Kind: kind, Filename: headers[0].Filename, Content: f}
	}

	return validation.Submission{
		Articles:    uploads[documents.KindArticlesOfAssociation],
		CNPJCard:    uploads[documents.KindCNPJCard],
		Certificate: uploads[documents.KindTaxClearanceCertificate],
	}, closeAll, nil
}
