package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docvec/internal/augment"
	"docvec/internal/chunker"
	"docvec/internal/config"
	"docvec/internal/contextbuilder"
	"docvec/internal/domain"
	"docvec/internal/logger"
	"docvec/internal/metrics"
	"docvec/internal/reader"
)

// Options holds chunk sizing and fan-out settings.
type Options struct {
	PageChars   int
	PageWindow  int
	CSVRows     int
	XLSXRows    int
	SampleRows  int
	GroupSize   int
	MaxInFlight int
}

// OptionsFromConfig maps the chunker section of the configuration.
func OptionsFromConfig(c config.ChunkerConfig) Options {
	return Options(c)
}

// Result summarizes one ingested document.
type Result struct {
	DocumentID string
	Type       domain.FileType
	Records    int
}

// Progress reports how far the ingestion of one document has come.
type Progress struct {
	Document string
	Done     int
	Total    int
	Stage    string
}

// ProgressFunc receives progress updates from the ingesting goroutine.
type ProgressFunc func(Progress)

// IngestService turns uploaded files into vector records and removes them again.
type IngestService struct {
	store     domain.RecordStore
	fanout    *augment.FanOut
	builder   *contextbuilder.Builder
	csv       *chunker.TabularChunker
	xlsx      *chunker.TabularChunker
	pages     *chunker.PageChunker
	groupSize int
	metrics   *metrics.Recorder
	newID     func() string
}

func NewIngestService(
	store domain.RecordStore,
	augmenter domain.Augmenter,
	embedder domain.Embedder,
	opts Options,
	rec *metrics.Recorder,
) *IngestService {
	return &IngestService{
		store:     store,
		fanout:    augment.New(augmenter, embedder, opts.MaxInFlight, rec),
		builder:   contextbuilder.New(augmenter, opts.SampleRows, opts.PageWindow),
		csv:       chunker.NewTabularChunker(opts.CSVRows),
		xlsx:      chunker.NewTabularChunker(opts.XLSXRows),
		pages:     chunker.NewPageChunker(opts.PageChars),
		groupSize: opts.GroupSize,
		metrics:   rec,
		newID:     uuid.NewString,
	}
}

// section is a run of chunks sharing one context. The context is resolved just
// before the section's groups are augmented.
type section struct {
	label     string
	chunks    []domain.Chunk
	groupSize int
	context   func(ctx context.Context) (string, error)
}

// Ingest processes one document. It fails with ErrUnsupportedFormat,
// ErrDuplicateDocument, ErrRead, ErrAugmentation or ErrPersistence. Records of
// groups written before a failure stay in the store.
func (s *IngestService) Ingest(ctx context.Context, name string, data []byte) (Result, error) {
	return s.IngestWithProgress(ctx, name, data, nil)
}

// Upload ingests a document and reports how many records it produced.
func (s *IngestService) Upload(ctx context.Context, name string, data []byte) (int, error) {
	res, err := s.Ingest(ctx, name, data)
	return res.Records, err
}

func (s *IngestService) IngestWithProgress(
	ctx context.Context,
	name string,
	data []byte,
	progress ProgressFunc,
) (Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx).With("document_name", name)
	if progress == nil {
		progress = func(Progress) {}
	}

	fileType, err := reader.DetectFormat(name, data)
	if err != nil {
		s.metrics.ObserveDocument("unknown", "unsupported", time.Since(start))
		log.Info("ingest rejected", "error", err)
		return Result{}, err
	}
	res := Result{Type: fileType}
	log = log.With("type", fileType)
	fail := func(status string, err error) (Result, error) {
		s.metrics.ObserveDocument(string(fileType), status, time.Since(start))
		if status == "duplicate" {
			log.Warn("ingest rejected", "records", res.Records, "error", err)
		} else {
			log.Error("ingest failed", "records", res.Records, "error", err)
		}
		return res, fmt.Errorf("ingest %s %q: %w", fileType, name, err)
	}

	exists, err := s.store.Exists(ctx, name)
	if err != nil {
		return fail("error", err)
	}
	if exists {
		return fail("duplicate", fmt.Errorf("%w: %q", domain.ErrDuplicateDocument, name))
	}

	doc := domain.Document{Name: name, ID: s.newID(), Type: fileType}
	res.DocumentID = doc.ID
	log = log.With("document_id", doc.ID)
	log.Info("ingest started", "bytes", len(data))

	progress(Progress{Document: name, Stage: "reading"})
	sections, err := s.plan(doc, data)
	if err != nil {
		return fail("error", err)
	}
	total := 0
	for _, sec := range sections {
		total += len(sec.chunks)
	}

	dimension := 0
	for _, sec := range sections {
		progress(Progress{Document: name, Done: res.Records, Total: total, Stage: "context " + sec.label})
		docContext, err := sec.context(ctx)
		if err != nil {
			return fail("error", err)
		}
		for gi, group := range chunker.Batch(docContext, sec.chunks, sec.groupSize) {
			enriched, err := s.fanout.Run(ctx, group)
			if err != nil {
				return fail("error", fmt.Errorf("%s group %d: %w", sec.label, gi, err))
			}
			if dimension == 0 {
				dimension = len(enriched[0].Vector)
			}
			if d := len(enriched[0].Vector); d != dimension {
				return fail("error", fmt.Errorf("%w: %s group %d: embedding dimension %d, expected %d",
					domain.ErrAugmentation, sec.label, gi, d, dimension))
			}
			for _, e := range enriched {
				if err := s.write(ctx, doc, e); err != nil {
					if errors.Is(err, domain.ErrDuplicateDocument) {
						s.discard(ctx, log, doc)
						res.Records = 0
						return fail("duplicate", err)
					}
					return fail("error", err)
				}
				res.Records++
			}
			log.Debug("group written", "group", sec.label, "index", gi, "records", len(enriched))
			progress(Progress{Document: name, Done: res.Records, Total: total, Stage: "augmenting " + sec.label})
		}
	}

	s.metrics.AddRecords(string(fileType), res.Records)
	s.metrics.ObserveDocument(string(fileType), "ok", time.Since(start))
	log.Info("ingest finished", "records", res.Records, "duration", time.Since(start))
	progress(Progress{Document: name, Done: res.Records, Total: total, Stage: "done"})
	return res, nil
}

func (s *IngestService) write(ctx context.Context, doc domain.Document, e domain.EnrichedChunk) error {
	return s.store.Insert(ctx, domain.VectorRecord{
		ID:               s.newID(),
		OriginalText:     e.Chunk.Text,
		ContextualText:   e.Contextual,
		DocumentName:     doc.Name,
		DocumentID:       doc.ID,
		PageNumber:       e.Chunk.Position,
		VectorEmbeddings: e.Vector,
	})
}

// discard removes the records this upload already wrote after losing a race
// against a concurrent upload of the same name.
func (s *IngestService) discard(ctx context.Context, log logger.Logger, doc domain.Document) {
	n, err := s.store.DeleteByNameOrID(context.WithoutCancel(ctx), doc.ID)
	if err != nil {
		log.Warn("discard partial records failed", "error", err)
		return
	}
	log.Warn("concurrent upload detected, partial records discarded", "records", n)
}

func (s *IngestService) plan(doc domain.Document, data []byte) ([]section, error) {
	switch doc.Type {
	case domain.FileTypePDF:
		pdf, err := reader.ReadPDF(data)
		if err != nil {
			return nil, err
		}
		return s.planPages(pdf), nil
	case domain.FileTypeCSV:
		sheet, err := reader.ReadCSV(data, reader.SheetName(doc.Name))
		if err != nil {
			return nil, err
		}
		return s.planSheets([]reader.Sheet{*sheet}, s.csv), nil
	case domain.FileTypeXLSX:
		sheets, err := reader.ReadXLSX(data)
		if err != nil {
			return nil, err
		}
		return s.planSheets(sheets, s.xlsx), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, doc.Type)
	}
}

// planPages makes one section per non-empty page; a page is one group.
func (s *IngestService) planPages(doc *reader.PaginatedDocument) []section {
	var out []section
	for i, page := range doc.Pages {
		chunks := s.pages.Chunk(page)
		if len(chunks) == 0 {
			continue
		}
		out = append(out, section{
			label:  fmt.Sprintf("page %d", page.Index),
			chunks: chunks,
			context: func(context.Context) (string, error) {
				return s.builder.PageContext(doc, i), nil
			},
		})
	}
	return out
}

// planSheets makes one section per sheet with data rows; the sheet description
// is requested once, right before the sheet's first group.
func (s *IngestService) planSheets(sheets []reader.Sheet, tc *chunker.TabularChunker) []section {
	var out []section
	for _, sheet := range sheets {
		chunks := tc.Chunk(sheet)
		if len(chunks) == 0 {
			continue
		}
		out = append(out, section{
			label:     "sheet " + sheet.Name,
			chunks:    chunks,
			groupSize: s.groupSize,
			context: func(ctx context.Context) (string, error) {
				return s.builder.DescribeSheet(ctx, sheet)
			},
		})
	}
	return out
}

// Delete removes every record whose document name or id equals input.
func (s *IngestService) Delete(ctx context.Context, input string) (int64, error) {
	n, err := s.store.DeleteByNameOrID(ctx, input)
	if err != nil {
		logger.FromContext(ctx).Error("delete failed", "input", input, "error", err)
		return 0, err
	}
	s.metrics.AddDeleted(n)
	logger.FromContext(ctx).Info("documents deleted", "input", input, "records", n)
	return n, nil
}

// DocumentNames lists the distinct document names present in the store.
func (s *IngestService) DocumentNames(ctx context.Context) ([]string, error) {
	return s.store.DocumentNames(ctx)
}
