package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"docvec/internal/domain"
	"docvec/internal/logger"
	"docvec/internal/metrics"
	"docvec/internal/objectstore"
)

// Index is the vector-store side of reconciliation.
type Index interface {
	DocumentNames(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, input string) (int64, error)
}

// Uploader ingests one document and reports the number of records written;
// the in-process service and the HTTP client both satisfy it.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (int, error)
}

// Report describes one reconciliation cycle.
type Report struct {
	Deleted        []string
	DeletedRecords int64
	Uploaded       []string
	Skipped        []string
	Failed         []string
}

// Reconciler aligns the set of indexed document names with the object store.
// Documents that ingest to zero records never show up in the index, so their
// object keys are remembered and not uploaded again while the key is unchanged.
type Reconciler struct {
	objects  objectstore.Store
	index    Index
	uploader Uploader
	metrics  *metrics.Recorder

	mu    sync.Mutex
	empty map[string]string
}

func New(objects objectstore.Store, index Index, uploader Uploader, rec *metrics.Recorder) *Reconciler {
	return &Reconciler{
		objects:  objects,
		index:    index,
		uploader: uploader,
		metrics:  rec,
		empty:    make(map[string]string),
	}
}

// RunOnce deletes names present only in the index and uploads names present
// only in the object store. Failures of single documents are logged and
// reported; only listing failures abort the cycle.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	log := logger.FromContext(ctx)
	var rep Report

	indexed, err := r.index.DocumentNames(ctx)
	if err != nil {
		return rep, fmt.Errorf("reconcile: list indexed documents: %w", err)
	}
	objects, err := r.objects.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("reconcile: list object store: %w", err)
	}
	known := make(map[string]struct{}, len(indexed))
	for _, name := range indexed {
		known[name] = struct{}{}
	}

	sort.Strings(indexed)
	for _, name := range indexed {
		if _, ok := objects[name]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		n, err := r.index.Delete(ctx, name)
		if err != nil {
			log.Error("reconcile delete failed", "document_name", name, "error", err)
			rep.Failed = append(rep.Failed, name)
			continue
		}
		rep.Deleted = append(rep.Deleted, name)
		rep.DeletedRecords += n
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, key := range r.empty {
		if objects[name] != key {
			delete(r.empty, name)
		}
	}

	missing := make([]string, 0, len(objects))
	for name := range objects {
		if _, ok := known[name]; ok {
			continue
		}
		if _, ok := r.empty[name]; ok {
			rep.Skipped = append(rep.Skipped, name)
			continue
		}
		missing = append(missing, name)
	}
	sort.Strings(missing)
	for _, name := range missing {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		records := 0
		data, err := r.objects.Get(ctx, objects[name])
		if err == nil {
			records, err = r.uploader.Upload(ctx, name, data)
		}
		switch {
		case err == nil && records == 0:
			log.Info("reconcile upload produced no records", "document_name", name)
			r.empty[name] = objects[name]
			rep.Skipped = append(rep.Skipped, name)
		case err == nil:
			rep.Uploaded = append(rep.Uploaded, name)
		case errors.Is(err, domain.ErrDuplicateDocument):
			log.Debug("reconcile upload skipped, already indexed", "document_name", name)
			rep.Skipped = append(rep.Skipped, name)
		default:
			log.Error("reconcile upload failed", "document_name", name, "key", objects[name], "error", err)
			rep.Failed = append(rep.Failed, name)
		}
	}

	sort.Strings(rep.Skipped)
	r.metrics.ReconcileAction("delete", len(rep.Deleted))
	r.metrics.ReconcileAction("upload", len(rep.Uploaded))
	r.metrics.ReconcileAction("failed", len(rep.Failed))
	log.Info("reconcile cycle complete",
		"deleted", len(rep.Deleted), "uploaded", len(rep.Uploaded),
		"skipped", len(rep.Skipped), "failed", len(rep.Failed))
	return rep, nil
}
