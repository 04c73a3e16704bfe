// Package catalog rebuilds the product list from the model store. The
// directory tree is scanned on every call; nothing is cached.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/modelshelf/modelshelf/pkg/domain"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/messages"
	"github.com/modelshelf/modelshelf/pkg/store"
)

// DefaultConcurrency bounds how many records are read at once.
const DefaultConcurrency = 8

// PartialRecordError describes a model directory that was left out of a
// listing because its record could not be used.
type PartialRecordError struct {
	Model string
	Err   error
}

func (e *PartialRecordError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Model, e.Err)
}

func (e *PartialRecordError) Unwrap() error {
	return e.Err
}

// Reader lists and loads model records.
type Reader struct {
	store       *store.Store
	logger      *logging.Logger
	concurrency int
	partial     atomic.Int64
}

// NewReader creates a Reader over st.
func NewReader(st *store.Store, logger *logging.Logger) *Reader {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Reader{
		store:       st,
		logger:      logger,
		concurrency: DefaultConcurrency,
	}
}

// WithConcurrency overrides how many records are loaded in parallel.
func (r *Reader) WithConcurrency(n int) *Reader {
	if n > 0 {
		r.concurrency = n
	}
	return r
}

// PartialRecords returns how many corrupt records have been skipped since the
// Reader was created.
func (r *Reader) PartialRecords() int64 {
	return r.partial.Load()
}

// List returns the record of every catalog-visible model, ordered by model
// directory name. Directories without a record are skipped silently, those
// with a corrupt record are skipped with a warning.
func (r *Reader) List(ctx context.Context) ([]domain.ModelInfo, error) {
	start := time.Now()

	names, err := r.store.ListModelDirs()
	if err != nil {
		return nil, domain.NewStorageError(messages.ErrReadCatalog, err)
	}

	slots := make([]*domain.ModelInfo, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for idx, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if info, ok := r.load(name); ok {
				slots[idx] = &info
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, domain.NewAppError(domain.ErrCodeInternal, messages.ErrReadCatalog).WithError(err)
	}

	products := make([]domain.ModelInfo, 0, len(slots))
	for _, info := range slots {
		if info != nil {
			products = append(products, *info)
		}
	}

	r.logger.Debug(messages.MsgCatalogListed,
		"directories", len(names),
		"products", len(products),
		"duration", time.Since(start))
	return products, nil
}

// load reads one record and reports false when the directory is skipped. Every
// per-directory failure is a skip; only the root listing aborts.
func (r *Reader) load(name string) (domain.ModelInfo, bool) {
	info, err := r.store.ReadRecord(name)
	if err == nil {
		return info, true
	}

	var corrupt *store.CorruptRecordError
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		r.logger.Debug(messages.MsgSkippingNoRecord, "model", name)
		return domain.ModelInfo{}, false
	case errors.As(err, &corrupt):
		r.partial.Add(1)
		r.logger.Warn(messages.MsgSkippingCorrupt, "model", name,
			"error", &PartialRecordError{Model: name, Err: corrupt.Err})
		return domain.ModelInfo{}, false
	default:
		r.partial.Add(1)
		r.logger.Warn(messages.MsgSkippingUnread, "model", name,
			"error", &PartialRecordError{Model: name, Err: err})
		return domain.ModelInfo{}, false
	}
}

// Get loads the record of a single model.
func (r *Reader) Get(ctx context.Context, name string) (domain.ModelInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.ModelInfo{}, err
	}
	if err := store.CheckModelName(name); err != nil {
		return domain.ModelInfo{}, domain.NewValidationError("name", domain.ValidationUnsafe,
			messages.ErrModelNameUnsafe, name).AsAppError()
	}

	info, err := r.store.ReadRecord(name)
	if err == nil {
		return info, nil
	}

	var corrupt *store.CorruptRecordError
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		return domain.ModelInfo{}, domain.NewAppError(domain.ErrCodeNotFound,
			fmt.Sprintf(messages.ErrModelNotFound, name)).WithModel(name).WithError(err)
	case errors.As(err, &corrupt):
		return domain.ModelInfo{}, domain.NewAppError(domain.ErrCodeStorage,
			fmt.Sprintf(messages.ErrModelRecordBroken, name)).WithModel(name).WithError(err)
	default:
		return domain.ModelInfo{}, domain.NewStorageError(messages.ErrReadModelRecord, err).WithModel(name)
	}
}
