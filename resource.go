package goviewset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// IDVar is the route variable holding the primary key of an entity.
const IDVar = "id"

// Resource serves a GORM model T as a paginated JSON resource. Behaviour is
// composed from options:
//
//	questions := goviewset.NewResource[Question](db,
//	    goviewset.WithQueryset[Question](goviewset.SelectSubclasses[Question]()),
//	    goviewset.WithPagination[Question](goviewset.NewDeprecationPagination()),
//	)
//	questions.Register(router, "/questions")
type Resource[T any] struct {
	db              *gorm.DB
	name            string
	scopes          []func(*gorm.DB) *gorm.DB
	pagination      *DeprecationPagination
	collector       Collector
	ordering        ColumnMapping
	defaultOrdering Orderings
	logger          *slog.Logger
}

type ResourceOption[T any] func(*Resource[T])

// WithQueryset replaces the default queryset by applying scopes to every
// entity lookup and page query.
func WithQueryset[T any](scopes ...func(*gorm.DB) *gorm.DB) ResourceOption[T] {
	return func(r *Resource[T]) {
		r.scopes = append(r.scopes, scopes...)
	}
}

func WithPagination[T any](pagination *DeprecationPagination) ResourceOption[T] {
	return func(r *Resource[T]) {
		r.pagination = pagination
	}
}

// WithDeletePreview enables the delete_preview action backed by collector.
func WithDeletePreview[T any](collector Collector) ResourceOption[T] {
	return func(r *Resource[T]) {
		r.collector = collector
	}
}

// WithOrdering allows clients to order lists by the aliases in mapping.
// defaults apply when the request has no ordering parameter.
func WithOrdering[T any](mapping ColumnMapping, defaults ...OrderBy) ResourceOption[T] {
	return func(r *Resource[T]) {
		r.ordering = mapping
		r.defaultOrdering = defaults
	}
}

func WithLogger[T any](logger *slog.Logger) ResourceOption[T] {
	return func(r *Resource[T]) {
		r.logger = logger
	}
}

// WithName overrides the resource name used in logs.
func WithName[T any](name string) ResourceOption[T] {
	return func(r *Resource[T]) {
		r.name = name
	}
}

func NewResource[T any](db *gorm.DB, opts ...ResourceOption[T]) *Resource[T] {
	r := &Resource[T]{
		db:         db,
		name:       reflect.TypeFor[T]().Name(),
		pagination: NewDeprecationPagination(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register mounts the resource routes under prefix:
//
//	GET <prefix>/
//	GET <prefix>/{id}/
//	GET <prefix>/{id}/delete_preview/   (only with WithDeletePreview)
func (r *Resource[T]) Register(router *mux.Router, prefix string) {
	router.HandleFunc(prefix+"/", r.List).Methods(http.MethodGet)
	router.HandleFunc(prefix+"/{"+IDVar+"}/", r.Retrieve).Methods(http.MethodGet)

	if r.collector != nil {
		router.HandleFunc(prefix+"/{"+IDVar+"}/delete_preview/", r.DeletePreview).Methods(http.MethodGet)
	}
}

// List writes one page of the queryset.
func (r *Resource[T]) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	query := req.URL.Query()

	sort, err := r.sort(query.Get(OrderingParam))
	if err != nil {
		r.fail(ctx, w, err)
		return
	}

	pager := r.pagination.Pager(query).WithSort(sort...)

	var count int64
	if err = r.countQueryset(ctx).Count(&count).Error; err != nil {
		r.fail(ctx, w, fmt.Errorf("cannot count %s: %w", r.name, err))
		return
	}

	paged, err := pager.Paginate(r.queryset(ctx))
	if err != nil {
		r.fail(ctx, w, err)
		return
	}

	// Offset windows only partition the rows under a total order.
	if len(pager.GetSort()) == 0 {
		paged = paged.Order(clause.OrderByColumn{Column: clause.PrimaryColumn})
	}

	var items []T
	if err = paged.Find(&items).Error; err != nil {
		r.fail(ctx, w, fmt.Errorf("cannot list %s: %w", r.name, err))
		return
	}

	r.respondPage(ctx, w, req, BuildPage(r.pagination, req, pager, count, items))
}

// Retrieve writes a single entity.
func (r *Resource[T]) Retrieve(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	obj, err := r.Get(ctx, mux.Vars(req)[IDVar])
	if err != nil {
		r.fail(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, obj)
}

// DeletePreview writes a page of every row that deleting the entity would
// remove. Nothing is deleted.
func (r *Resource[T]) DeletePreview(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	if r.collector == nil {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	obj, err := r.Get(ctx, mux.Vars(req)[IDVar])
	if err != nil {
		r.fail(ctx, w, err)
		return
	}

	nodes, err := DeletePreview(ctx, r.collector, obj)
	if err != nil {
		r.fail(ctx, w, err)
		return
	}

	pager := r.pagination.Pager(req.URL.Query())
	page := BuildPage(r.pagination, req, pager, int64(len(nodes)), PaginateSlice(pager, nodes))

	r.respondPage(ctx, w, req, page)
}

// Get loads the entity with primary key id through the queryset. Returns
// ErrNotFound if there is no such entity or id is not a valid key.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	pk, err := r.primaryKey(id)
	if err != nil {
		return nil, err
	}

	obj := new(T)
	err = r.queryset(ctx).
		Where(clause.Eq{Column: clause.PrimaryColumn, Value: pk}).
		Take(obj).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("cannot get %s %s: %w", r.name, id, err)
	}

	return obj, nil
}

func (r *Resource[T]) queryset(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(T)).Scopes(r.scopes...)
}

// countQueryset is the queryset with its filters but without preloads.
func (r *Resource[T]) countQueryset(ctx context.Context) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(new(T))
	for _, scope := range r.scopes {
		tx = scope(tx)
	}
	tx.Statement.Preloads = nil

	return tx
}

func (r *Resource[T]) sort(raw string) (Orderings, error) {
	if raw == "" || r.ordering == nil {
		return r.defaultOrdering, nil
	}

	return ParseOrdering(raw, r.ordering)
}

// primaryKey converts a route id to the type of T's primary key, so that
// malformed keys are reported as missing rather than as database errors.
func (r *Resource[T]) primaryKey(id string) (any, error) {
	stmt := &gorm.Statement{DB: r.db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("cannot parse schema of %s: %w", r.name, err)
	}

	field := stmt.Schema.PrioritizedPrimaryField
	if field == nil {
		return id, nil
	}

	switch field.DataType {
	case schema.Int:
		v, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, ErrNotFound
		}
		return v, nil
	case schema.Uint:
		v, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return nil, ErrNotFound
		}
		return v, nil
	default:
		return id, nil
	}
}

func (r *Resource[T]) respondPage(ctx context.Context, w http.ResponseWriter, req *http.Request, page any) {
	if requested, ok := r.pagination.ExceededLimit(req.URL.Query()); ok {
		r.logger.DebugContext(ctx, "limit above maximum requested",
			slog.String("resource", r.name),
			slog.Int("limit", requested),
			slog.Int("max_limit", r.pagination.maxLimit()),
		)
	}

	writeJSON(w, http.StatusOK, page)
}

func (r *Resource[T]) fail(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, ErrInvalidOrdering):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		r.logger.ErrorContext(ctx, "request failed",
			slog.String("resource", r.name),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "A server error occurred.")
	}
}
