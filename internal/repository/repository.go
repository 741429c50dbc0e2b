package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/Clark-Hu/cinecast/internal/domain"
	"github.com/Clark-Hu/cinecast/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = domain.ErrNotFound

// DBTX runs statements. It is implemented by pgx.Tx, so every helper that takes
// one runs inside the caller's unit of work.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Observer is notified once per finished unit of work, including operations
// rejected by validation.
type Observer interface {
	ObserveUnitOfWork(op string, d time.Duration, rows int64, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveUnitOfWork(string, time.Duration, int64, error) {}

// Option customizes a Repository.
type Option func(*unitOfWork)

// WithLogger sets the logger used for unit-of-work tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(u *unitOfWork) {
		if logger != nil {
			u.logger = logger.Named("repository")
		}
	}
}

// WithObserver sets the receiver of unit-of-work measurements.
func WithObserver(o Observer) Option {
	return func(u *unitOfWork) {
		if o != nil {
			u.observer = o
		}
	}
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Actors  *ActorsRepository
	Movies  *MoviesRepository
	Casting *CastingRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store, opts ...Option) *Repository {
	return NewWithPool(st.Pool(), opts...)
}

// NewWithPool allows constructing repositories directly from a pgx pool or any
// other transaction source.
func NewWithPool(db store.TxBeginner, opts ...Option) *Repository {
	uow := &unitOfWork{db: db, logger: zap.NewNop(), observer: nopObserver{}}
	for _, opt := range opts {
		opt(uow)
	}
	casting := &CastingRepository{}
	return &Repository{
		Actors:  &ActorsRepository{uow: uow, casting: casting},
		Movies:  &MoviesRepository{uow: uow, casting: casting},
		Casting: casting,
	}
}

type unitOfWork struct {
	db       store.TxBeginner
	logger   *zap.Logger
	observer Observer
}

// read runs fn in a read-only transaction so an entity query and its eager
// relationship query observe the same snapshot.
func (u *unitOfWork) read(ctx context.Context, op string, fn func(q DBTX) error) error {
	_, err := u.run(ctx, op, store.ReadOnly, func(q DBTX) (int64, error) {
		return 0, fn(q)
	})
	return err
}

// write runs fn in a read-write transaction and reports the affected rows.
func (u *unitOfWork) write(ctx context.Context, op string, fn func(q DBTX) (int64, error)) (int64, error) {
	return u.run(ctx, op, pgx.TxOptions{}, fn)
}

func (u *unitOfWork) run(ctx context.Context, op string, opts pgx.TxOptions, fn func(q DBTX) (int64, error)) (int64, error) {
	id := uuid.Must(uuid.NewV7())
	start := time.Now()

	var rows int64
	err := store.InTx(ctx, u.db, opts, func(tx pgx.Tx) error {
		n, err := fn(tx)
		rows = n
		return err
	})
	elapsed := time.Since(start)
	if err != nil {
		rows = 0
		err = wrapStoreError(op, err)
	}
	u.observer.ObserveUnitOfWork(op, elapsed, rows, err)

	fields := []zap.Field{
		zap.String("op", op),
		zap.Stringer("uow", id),
		zap.Duration("elapsed", elapsed),
	}
	switch {
	case err == nil:
		u.logger.Debug("unit of work committed", append(fields, zap.Int64("rows", rows))...)
	case errors.Is(err, domain.ErrNotFound):
		u.logger.Debug("unit of work found nothing", fields...)
	default:
		u.logger.Warn("unit of work rolled back", append(fields, zap.Error(err))...)
	}
	return rows, err
}

// reject records an operation refused before any transaction was opened.
func (u *unitOfWork) reject(op string, err error) error {
	u.observer.ObserveUnitOfWork(op, 0, 0, err)
	u.logger.Debug("operation rejected", zap.String("op", op), zap.Error(err))
	return err
}

func wrapStoreError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	wrapped := &domain.StoreError{Op: op, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		wrapped.Code = pgErr.Code
	}
	return wrapped
}
