package receipt

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/receipt-insights/internal/extraction"
)

// IDGenerator generates unique IDs for stored documents
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now().UTC()
}

// Service runs the ingestion pipeline and the analytics engine. It holds no
// mutable state of its own; concurrent invocations for different objects do
// not contend.
type Service struct {
	db          DB
	storage     Storage
	text        extraction.TextExtractor
	model       extraction.StructuredExtractor
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, storage Storage, text extraction.TextExtractor, model extraction.StructuredExtractor) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		text:        text,
		model:       model,
		idGenerator: &uuidGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, text extraction.TextExtractor, model extraction.StructuredExtractor, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		text:        text,
		model:       model,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ProcessObject ingests one finalized object: download, text detection,
// structured extraction, validation, persist, cleanup. Any failure is written
// to the error log and returned; the triggering event must still be
// acknowledged by the caller, so the returned Failure is informational.
// Duplicate deliveries of the same event are not deduplicated and produce
// duplicate receipts.
func (s *Service) ProcessObject(event ObjectEvent) error {
	if !strings.HasPrefix(event.ContentType, "image/") {
		slog.Info("Skipping non-image object", "path", event.Path, "content_type", event.ContentType)
		return nil
	}

	receipt, failure := s.ingest(event)
	if failure != nil {
		s.recordFailure(event.Path, failure)
		return failure
	}
	slog.Info("Receipt stored", "path", event.Path, "receipt_id", receipt.ID)

	// Best-effort cleanup. The receipt already exists; a failed delete is
	// logged and never compensated.
	if err := s.storage.Delete(event.Path); err != nil {
		slog.Warn("Failed to delete source image", "path", event.Path, "error", err)
	} else {
		slog.Info("Image deleted", "path", event.Path)
	}

	return nil
}

// ingest runs the fallible part of the pipeline and reports which stage lost
// the receipt.
func (s *Service) ingest(event ObjectEvent) (*Receipt, *Failure) {
	data, err := s.storage.Get(event.Path)
	if err != nil {
		return nil, fail(FetchFailure, "downloading %s: %w", event.Path, err)
	}

	fullText, err := s.text.DetectText(data)
	if err != nil {
		return nil, fail(ExtractionFailure, "detecting text: %w", err)
	}
	if strings.TrimSpace(fullText) == "" {
		return nil, fail(ExtractionFailure, "no text detected in image")
	}

	response, err := s.model.Generate(extraction.BuildPrompt(fullText))
	if err != nil {
		return nil, fail(GenerationFailure, "generating structured receipt: %w", err)
	}

	doc, err := extraction.ParseDocument(response)
	if err != nil {
		return nil, fail(GenerationFailure, "parsing model response: %w", err)
	}

	if missing := doc.MissingFields(); len(missing) > 0 {
		return nil, fail(ValidationFailure, "missing required receipt fields: %s", strings.Join(missing, ", "))
	}

	receipt := s.buildReceipt(doc, event.Path)
	if err := s.db.SaveReceipt(receipt); err != nil {
		return nil, fail(StoreFailure, "saving receipt: %w", err)
	}

	return receipt, nil
}

// buildReceipt converts a validated document into the persisted model,
// stamping provenance. Nullable numeric fields pass through as produced.
func (s *Service) buildReceipt(doc *extraction.Document, path string) *Receipt {
	receipt := &Receipt{
		ID:        s.idGenerator.Generate(),
		StoreName: strings.TrimSpace(*doc.StoreName),
		Date:      strings.TrimSpace(*doc.Date),
		Subtotal:  doc.Subtotal,
		Tax:       doc.Tax,
		Total:     doc.Total,
		Items:     make([]Item, 0, len(doc.Items)),
		CreatedAt: s.timeSource.Now(),
		ImagePath: path,
	}
	if doc.Location != nil {
		receipt.Location = strings.TrimSpace(*doc.Location)
	}

	for _, it := range doc.Items {
		item := Item{
			UnitPrice: it.UnitPrice,
			Tags:      it.Tags,
		}
		if it.Description != nil {
			item.Description = *it.Description
		}
		if it.GeneralName != nil {
			item.GeneralName = *it.GeneralName
		}
		item.Qty = 1
		if it.Qty != nil && *it.Qty > 1 {
			item.Qty = *it.Qty
		}
		if it.Price != nil {
			item.Price = *it.Price
		}
		if len(item.Tags) == 0 {
			item.Tags = []string{"other"}
		}
		receipt.Items = append(receipt.Items, item)
	}

	return receipt
}

// recordFailure appends one error record per failed ingestion attempt
func (s *Service) recordFailure(path string, failure *Failure) {
	slog.Error("Error processing receipt", "path", path, "kind", string(failure.Kind), "error", failure.Err)

	record := &ErrorRecord{
		ID:        s.idGenerator.Generate(),
		FilePath:  path,
		Error:     failure.Error(),
		Timestamp: s.timeSource.Now(),
	}
	if err := s.db.SaveError(record); err != nil {
		slog.Error("Failed to write error record", "path", path, "error", err)
	}
}

// IngestUpload deposits an uploaded file into the blob store and runs the
// pipeline as if a finalized event had been delivered for it. The upload is
// normalized to PNG first so HEIC photos and PDF receipts enter the store in
// a format the pipeline accepts. A pipeline failure is not returned as an
// error here; it is already in the error log.
func (s *Service) IngestUpload(filename string, data []byte, contentType string) (string, error) {
	pngData, normalizedType, err := extraction.PrepareImage(data, contentType)
	if err != nil {
		return "", fmt.Errorf("preparing image: %w", err)
	}

	path, err := s.storage.Save(fmt.Sprintf("%s_%s", s.idGenerator.Generate(), sanitizeFilename(filename)), pngData)
	if err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}

	err = s.ProcessObject(ObjectEvent{Path: path, ContentType: normalizedType})
	var failure *Failure
	if err != nil && !errors.As(err, &failure) {
		return path, err
	}
	return path, nil
}

// ListReceipts returns all stored receipts
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// ListErrors returns all ingestion error records
func (s *Service) ListErrors() ([]*ErrorRecord, error) {
	records, err := s.db.ListErrors()
	if err != nil {
		return nil, fmt.Errorf("listing error records: %w", err)
	}
	return records, nil
}

// sanitizeFilename cleans up a filename for use as a stored object name and
// forces the .png extension the upload was normalized to
func sanitizeFilename(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "receipt"
	}

	return base + ".png"
}
