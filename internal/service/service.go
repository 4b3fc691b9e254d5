// Package service is the aggregate mutation engine for archgraph.
//
// Every mutation follows the same template: load the tenant aggregate and
// sanitize it into a private copy, locate the entities the call names
// (NotFound), check the caller's input (BadRequest), change exactly one entity
// of the copy, then sanitize and save the copy. Nothing is saved when a check
// fails, so a failed call never leaves a half-applied change behind.
//
// There is no locking across load and save. Two concurrent calls on the same
// tenant both start from the same state and the later save wins.
//
// Import Path: archgraph.io/archgraph/internal/service
package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/metrics"
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
	"archgraph.io/archgraph/internal/pkg/logger"
	"archgraph.io/archgraph/internal/store"
	"archgraph.io/archgraph/internal/validation"
)

// Service performs CRUD operations on tenant aggregates.
type Service struct {
	store store.Store
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator replaces the random id generator. Tests use it to get
// predictable ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates a Service backed by st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// load returns a sanitized private copy of the tenant's aggregate.
func (s *Service) load(ctx context.Context, userID string) (domain.Aggregate, error) {
	agg, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load aggregate: %w", err)
	}
	return validation.Revalidate(agg)
}

func (s *Service) save(ctx context.Context, userID string, agg domain.Aggregate) error {
	clean, err := validation.Revalidate(agg)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, userID, clean); err != nil {
		return fmt.Errorf("save aggregate: %w", err)
	}
	return nil
}

// mutate runs fn on a private copy of the aggregate and saves the copy when
// fn succeeds. fn returns the affected entity and its id for logging.
func mutate[T any](ctx context.Context, s *Service, op, userID, projectID string, fn func(agg domain.Aggregate) (T, string, error)) (out T, err error) {
	start := time.Now()
	var entityID string
	defer func() {
		metrics.ObserveMutation(op, start, err)
		logResult(op, userID, projectID, entityID, err)
	}()

	agg, err := s.load(ctx, userID)
	if err != nil {
		return out, err
	}
	out, entityID, err = fn(agg)
	if err != nil {
		var zero T
		return zero, err
	}
	if err = s.save(ctx, userID, agg); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// mutateProject is mutate scoped to one existing project.
func mutateProject[T any](ctx context.Context, s *Service, op, userID, projectID string, fn func(p *domain.Project) (T, string, error)) (T, error) {
	return mutate(ctx, s, op, userID, projectID, func(agg domain.Aggregate) (T, string, error) {
		var zero T
		p, ok := agg[projectID]
		if !ok {
			return zero, "", apperrors.ErrProjectNotFoundf(projectID)
		}
		out, id, err := fn(&p)
		if err != nil {
			return zero, id, err
		}
		agg[projectID] = p
		return out, id, nil
	})
}

// read looks up an entity without saving anything.
func read[T any](ctx context.Context, s *Service, op, userID, projectID string, fn func(p domain.Project) (T, error)) (out T, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveMutation(op, start, err)
	}()

	agg, err := s.load(ctx, userID)
	if err != nil {
		return out, err
	}
	p, ok := agg[projectID]
	if !ok {
		return out, apperrors.ErrProjectNotFoundf(projectID)
	}
	return fn(p)
}

func logResult(op, userID, projectID, entityID string, err error) {
	fields := []zap.Field{
		logger.Operation(op),
		logger.Tenant(userID),
		logger.Project(projectID),
		logger.Entity(entityID),
	}
	switch {
	case err == nil:
		logger.Info("aggregate updated", fields...)
	case apperrors.IsNotFound(err), apperrors.IsBadRequest(err):
		logger.Debug("aggregate update rejected", append(fields, zap.Error(err))...)
	default:
		logger.Error("aggregate update failed", append(fields, zap.Error(err))...)
	}
}

func notFound(code, kind, id string) error {
	return apperrors.NotFound(code, fmt.Sprintf("%s %q not found", kind, id)).
		WithParams(map[string]interface{}{"id": id})
}

// removeID returns ids without id, preserving order.
func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// appendUnique appends id unless it is already present.
func appendUnique(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

// sortedKeys gives map scans a stable order so errors name the same entity
// on every run.
func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
