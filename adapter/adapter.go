package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docstore/cache"
	"github.com/poiesic/docstore/core"
	"github.com/poiesic/docstore/query"
	"github.com/poiesic/docstore/queue"
	"github.com/poiesic/docstore/storage"
)

// Adapter stores the records of every model in a single blob on a
// storage.Backend and serves document-store operations over it.
//
// Writes are serialized through one queue for the whole adapter. Reads are
// not ordered against writes and may observe a namespace snapshot taken
// before an in-flight write finished.
type Adapter struct {
	backend      storage.Backend
	models       core.ModelProvider
	config       *Config
	cache        *cache.Cache
	queue        *queue.Queue
	pool         *ants.Pool
	serializer   Serializer
	materializer Materializer
	generateID   func() string
	poolSize     int
	closeOnce    sync.Once
	logger       *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter) error

// WithConfig sets the adapter configuration.
// Default is DefaultConfig().
func WithConfig(cfg *Config) Option {
	return func(a *Adapter) error {
		if cfg == nil {
			return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
		}
		a.config = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithSerializer sets the serializer used on writes.
// Default is JSONSerializer.
func WithSerializer(s Serializer) Option {
	return func(a *Adapter) error {
		if s == nil {
			return ErrSerializerRequired
		}
		a.serializer = s
		return nil
	}
}

// WithMaterializer sets the source of already materialized records
// consulted before resolving a belongs-to reference from storage.
func WithMaterializer(m Materializer) Option {
	return func(a *Adapter) error {
		a.materializer = m
		return nil
	}
}

// WithPoolSize sets the worker pool size for loading query results,
// overriding Config.PoolSize.
func WithPoolSize(size int) Option {
	return func(a *Adapter) error {
		if size < 1 {
			size = 1
		}
		a.poolSize = size
		return nil
	}
}

// WithIDGenerator sets the function producing ids for records created
// without one.
// Default is core.GenerateID.
func WithIDGenerator(fn func() string) Option {
	return func(a *Adapter) error {
		if fn == nil {
			fn = core.GenerateID
		}
		a.generateID = fn
		return nil
	}
}

// New creates an adapter over backend. The caller keeps ownership of
// backend and closes it after closing the adapter.
func New(backend storage.Backend, models core.ModelProvider, opts ...Option) (*Adapter, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	if models == nil {
		return nil, ErrModelProviderRequired
	}

	a := &Adapter{
		backend:    backend,
		models:     models,
		config:     DefaultConfig(),
		serializer: JSONSerializer{},
		generateID: core.GenerateID,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.poolSize > 0 {
		a.config.PoolSize = a.poolSize
	}
	if err := a.config.Validate(); err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(a.config.PoolSize)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	a.cache = cache.New(a.config.Caching, a.logger)
	a.queue = queue.New(queue.WithLogger(a.logger))

	return a, nil
}

// Close waits for queued writes to finish and releases the worker pool.
// It does not close the backend.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		a.queue.Close()
		a.pool.Release()
	})
	return nil
}

// Config returns the adapter configuration.
func (a *Adapter) Config() *Config {
	return a.config
}

// ShouldReloadAll reports that FindAll should always be re-issued.
func (a *Adapter) ShouldReloadAll() bool {
	return true
}

// ShouldBackgroundReloadRecord reports that found records are not
// refreshed in the background.
func (a *Adapter) ShouldBackgroundReloadRecord() bool {
	return false
}

// CoalesceFindRequests reports whether callers should batch find requests.
func (a *Adapter) CoalesceFindRequests() bool {
	return a.config.CoalesceFindRequests
}

// GenerateIDForRecord returns a new short random id. Uniqueness against
// stored records is not checked.
func (a *Adapter) GenerateIDForRecord() string {
	return a.generateID()
}

// FindRecord returns the record of model stored under id.
// Returns ErrNotFound if there is none.
func (a *Adapter) FindRecord(ctx context.Context, modelName, id string) (core.Record, error) {
	model, err := a.model(modelName)
	if err != nil {
		return nil, err
	}
	data, err := a.namespaceData(ctx, model.Namespace())
	if err != nil {
		return nil, err
	}
	record, ok := data.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, model.Name, id)
	}
	return record.Clone(), nil
}

// FindAll returns every record of model in namespace order.
func (a *Adapter) FindAll(ctx context.Context, modelName string) ([]core.Record, error) {
	model, err := a.model(modelName)
	if err != nil {
		return nil, err
	}
	data, err := a.namespaceData(ctx, model.Namespace())
	if err != nil {
		return nil, err
	}
	return cloneAll(data.Values()), nil
}

// FindMany returns the records of model stored under ids, in the order of
// ids. Ids with no record are skipped.
func (a *Adapter) FindMany(ctx context.Context, modelName string, ids []string) ([]core.Record, error) {
	model, err := a.model(modelName)
	if err != nil {
		return nil, err
	}
	data, err := a.namespaceData(ctx, model.Namespace())
	if err != nil {
		return nil, err
	}
	records := make([]core.Record, 0, len(ids))
	for _, id := range ids {
		if record, ok := data.Get(id); ok {
			records = append(records, record.Clone())
		}
	}
	return records, nil
}

// Query returns every record of model satisfying q, in namespace order,
// each loaded with the query's projection. A nil q matches every record.
func (a *Adapter) Query(ctx context.Context, modelName string, q *query.Query) ([]core.Record, error) {
	model, err := a.model(modelName)
	if err != nil {
		return nil, err
	}
	proj, err := a.projection(model, q)
	if err != nil {
		return nil, err
	}
	data, err := a.namespaceData(ctx, model.Namespace())
	if err != nil {
		return nil, err
	}

	matches := query.Match(data, q, false)
	a.logger.Debug("query matched", "model", model.Name, "query", q.String(), "matches", len(matches))
	return a.loadAll(ctx, model, matches, proj)
}

// QueryRecord returns the first record of model satisfying q, loaded with
// the query's projection. Returns ErrNoMatch if no record satisfies q.
func (a *Adapter) QueryRecord(ctx context.Context, modelName string, q *query.Query) (core.Record, error) {
	model, err := a.model(modelName)
	if err != nil {
		return nil, err
	}
	proj, err := a.projection(model, q)
	if err != nil {
		return nil, err
	}
	data, err := a.namespaceData(ctx, model.Namespace())
	if err != nil {
		return nil, err
	}

	matches := query.Match(data, q, true)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no %s record satisfies %s", ErrNoMatch, model.Name, q.String())
	}
	return a.newLoader().load(ctx, model, matches[0], proj, nil)
}

// CreateRecord stores a new record of model. When the snapshot carries no
// id and the serializer provides none, a generated id is used.
// Returns the record as stored.
func (a *Adapter) CreateRecord(ctx context.Context, modelName string, snapshot core.Snapshot) (core.Record, error) {
	return a.upsert(ctx, modelName, snapshot, true)
}

// UpdateRecord replaces the stored record of model with the snapshot.
// Returns the record as stored.
func (a *Adapter) UpdateRecord(ctx context.Context, modelName string, snapshot core.Snapshot) (core.Record, error) {
	return a.upsert(ctx, modelName, snapshot, false)
}

// DeleteRecord removes the record of model stored under id. Deleting an
// id that is not stored succeeds without writing.
func (a *Adapter) DeleteRecord(ctx context.Context, modelName, id string) error {
	model, err := a.model(modelName)
	if err != nil {
		return err
	}
	namespace := model.Namespace()

	return a.attach(ctx, func(ctx context.Context) error {
		stored, data, err := a.loadNamespace(ctx, namespace)
		if err != nil {
			return err
		}
		if _, ok := data.Get(id); !ok {
			a.logger.Debug("delete of absent record", "model", model.Name, "id", id)
			return nil
		}
		next := data.Clone()
		next.Remove(id)
		return a.persist(ctx, stored, namespace, next)
	})
}

// Import replaces the whole persisted dataset with stored. It is queued
// like any other write and resets the cache.
func (a *Adapter) Import(ctx context.Context, stored *core.Storage) error {
	return a.attach(ctx, func(ctx context.Context) error {
		blob, err := storage.MarshalStorage(stored)
		if err != nil {
			return err
		}
		if err := a.backend.SetItem(ctx, a.config.Namespace, blob); err != nil {
			return fmt.Errorf("persist %s: %w", a.config.Namespace, err)
		}
		a.cache.Clear()
		if a.cache.Mode() == cache.ModeAll {
			snapshot, err := storage.UnmarshalStorage(blob)
			if err != nil {
				return err
			}
			a.cache.Replace(snapshot)
		}
		a.logger.Debug("dataset imported", "namespaces", stored.Len())
		return nil
	})
}

// Export returns the whole persisted dataset as currently stored on the
// backend.
func (a *Adapter) Export(ctx context.Context) (*core.Storage, error) {
	return a.loadData(ctx)
}

func (a *Adapter) upsert(ctx context.Context, modelName string, snapshot core.Snapshot, create bool) (core.Record, error) {
	model, err := a.model(modelName)
	if err != nil {
		return nil, err
	}
	namespace := model.Namespace()

	var result core.Record
	err = a.attach(ctx, func(ctx context.Context) error {
		stored, data, err := a.loadNamespace(ctx, namespace)
		if err != nil {
			return err
		}
		record, err := a.serializer.Serialize(model, snapshot, true)
		if err != nil {
			return err
		}

		id := snapshot.ID
		if id == "" {
			id = record.ID()
		}
		if id == "" && create {
			id = a.generateID()
		}
		record[core.IDField] = id
		if err := core.ValidateRecord(record); err != nil {
			return err
		}

		next := data.Clone()
		next.Put(id, record)
		if err := a.persist(ctx, stored, namespace, next); err != nil {
			return err
		}
		result = record.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *Adapter) attach(ctx context.Context, task queue.Task) error {
	err := a.queue.Attach(ctx, task)
	if errors.Is(err, queue.ErrQueueClosed) {
		return fmt.Errorf("adapter closed: %w", err)
	}
	return err
}

// loadAll runs the loader over records on the worker pool and returns the
// loaded records in their original order.
func (a *Adapter) loadAll(ctx context.Context, model *core.Model, records []core.Record, proj *core.Projection) ([]core.Record, error) {
	results := make([]core.Record, len(records))
	errs := make([]error, len(records))
	l := a.newLoader()

	var wg sync.WaitGroup
	for i, record := range records {
		wg.Add(1)
		err := a.pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = l.load(ctx, model, record, proj, nil)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Adapter) model(name string) (*core.Model, error) {
	if name == "" {
		return nil, ErrModelRequired
	}
	return a.models.Model(name)
}

func (a *Adapter) projection(model *core.Model, q *query.Query) (*core.Projection, error) {
	proj, name := q.Projection()
	if proj != nil || name == "" {
		return proj, nil
	}
	proj, err := a.models.Projection(model.Name, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownProjection, err)
	}
	return proj, nil
}

// namespaceData returns the snapshot of namespace, from the cache when
// present, otherwise from the backend. Callers must not mutate it.
func (a *Adapter) namespaceData(ctx context.Context, namespace string) (*core.NamespaceData, error) {
	if data, ok := a.cache.Get(namespace); ok {
		return data, nil
	}

	gen := a.cache.Generation()
	stored, data, err := a.loadNamespace(ctx, namespace)
	if err != nil {
		return nil, err
	}
	a.cache.Populate(gen, namespace, data, stored)
	return data, nil
}

// loadNamespace reads the persisted dataset and the namespace within it,
// bypassing the cache. Queued writes build on this so they always start
// from what the backend holds.
func (a *Adapter) loadNamespace(ctx context.Context, namespace string) (*core.Storage, *core.NamespaceData, error) {
	stored, err := a.loadData(ctx)
	if err != nil {
		return nil, nil, err
	}
	data, ok := stored.Namespace(namespace)
	if !ok {
		data = core.NewNamespaceData()
	}
	return stored, data, nil
}

// persist writes data as namespace into stored, saves the dataset and
// commits it to the cache once the write succeeded.
func (a *Adapter) persist(ctx context.Context, stored *core.Storage, namespace string, data *core.NamespaceData) error {
	stored.SetNamespace(namespace, data)

	blob, err := storage.MarshalStorage(stored)
	if err != nil {
		return err
	}
	if err := a.backend.SetItem(ctx, a.config.Namespace, blob); err != nil {
		return fmt.Errorf("persist %s: %w", a.config.Namespace, err)
	}
	a.cache.Commit(namespace, data, stored)
	return nil
}

func (a *Adapter) loadData(ctx context.Context) (*core.Storage, error) {
	blob, err := a.backend.GetItem(ctx, a.config.Namespace)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", a.config.Namespace, err)
	}
	return storage.UnmarshalStorage(blob)
}

func cloneAll(records []core.Record) []core.Record {
	out := make([]core.Record, len(records))
	for i, record := range records {
		out[i] = record.Clone()
	}
	return out
}
