package repository

import (
	"context"
	"errors"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/cinecast/internal/domain"
	"github.com/Clark-Hu/cinecast/internal/store"
)

type observation struct {
	op   string
	rows int64
	err  error
}

type recordingObserver struct {
	seen []observation
}

func (r *recordingObserver) ObserveUnitOfWork(op string, _ time.Duration, rows int64, err error) {
	r.seen = append(r.seen, observation{op: op, rows: rows, err: err})
}

func newMockRepository(t *testing.T) (pgxmock.PgxPoolIface, *Repository, *recordingObserver) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	obs := &recordingObserver{}
	return mock, NewWithPool(mock, WithObserver(obs)), obs
}

func TestValidationRejectsBeforeBegin(t *testing.T) {
	ctx := context.Background()
	mock, repo, obs := newMockRepository(t)

	cases := []struct {
		name string
		call func() error
	}{
		{"actor without name", func() error { _, err := repo.Actors.Add(ctx, domain.Actor{Name: "  "}); return err }},
		{"negative age", func() error { _, err := repo.Actors.Add(ctx, domain.Actor{Name: "A", Age: -1}); return err }},
		{"negative salary", func() error { _, err := repo.Actors.Add(ctx, domain.Actor{Name: "A", Salary: -5}); return err }},
		{"zero actor id", func() error { _, err := repo.Actors.FindByID(ctx, 0); return err }},
		{"blank name", func() error { _, err := repo.Actors.FindByName(ctx, ""); return err }},
		{"min above max", func() error { _, err := repo.Actors.FindBetweenAge(ctx, 50, 20); return err }},
		{"negative min", func() error { _, err := repo.Actors.FindBetweenAge(ctx, -1, 20); return err }},
		{"blank nationality", func() error { _, err := repo.Actors.UpdateNationalityByID(ctx, 1, " "); return err }},
		{"negative salary update", func() error { _, err := repo.Actors.UpdateAllSalaryByMovieID(ctx, 1, -1); return err }},
		{"blank industry delete", func() error { _, err := repo.Actors.DeleteAllByIndustry(ctx, ""); return err }},
		{"movie id zero", func() error { _, err := repo.Movies.Add(ctx, domain.Movie{Name: "M"}, nil); return err }},
		{"movie without name", func() error { _, err := repo.Movies.Add(ctx, domain.Movie{MovieID: 1}, nil); return err }},
		{"bad actor id", func() error { _, err := repo.Movies.Add(ctx, domain.Movie{MovieID: 1, Name: "M"}, []int{3, -2}); return err }},
		{"blank verdict", func() error { _, err := repo.Movies.UpdateCollectionByVerdict(ctx, "", 10); return err }},
		{"zero actor for movies", func() error { _, err := repo.Movies.FindAllByActorID(ctx, 0); return err }},
		{"blank actor name delete", func() error { _, err := repo.Movies.DeleteAllByActorName(ctx, ""); return err }},
		{"actor id beyond int4", func() error { _, err := repo.Actors.FindByID(ctx, 3_000_000_000); return err }},
		{"explicit actor id beyond int4", func() error { _, err := repo.Actors.Add(ctx, domain.Actor{ID: 3_000_000_000, Name: "A"}); return err }},
		{"age beyond int4", func() error { _, err := repo.Actors.Add(ctx, domain.Actor{Name: "A", Age: 3_000_000_000}); return err }},
		{"min age beyond int4", func() error { _, err := repo.Actors.FindBetweenAge(ctx, 3_000_000_000, 4_000_000_000); return err }},
		{"movie id beyond int4", func() error { _, err := repo.Movies.Add(ctx, domain.Movie{MovieID: 3_000_000_000, Name: "M"}, nil); return err }},
		{"cast id beyond int4", func() error { _, err := repo.Movies.Add(ctx, domain.Movie{MovieID: 1, Name: "M"}, []int{1, 3_000_000_000}); return err }},
		{"salary movie beyond int4", func() error { _, err := repo.Actors.UpdateAllSalaryByMovieID(ctx, 3_000_000_000, 10); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}

	require.Len(t, obs.seen, len(cases))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateNationalityByIDCommits(t *testing.T) {
	ctx := context.Background()
	mock, repo, obs := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE actor SET nationality = $2 WHERE id = $1")).
		WithArgs(7, "Indian").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	n, err := repo.Actors.UpdateNationalityByID(ctx, 7, "Indian")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, []observation{{op: "updateActorNationalityById", rows: 1}}, obs.seen)
}

func TestDeleteAllActorsByIndustryUnlinksFirst(t *testing.T) {
	ctx := context.Background()
	mock, repo, _ := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM actor WHERE industry = $1 ORDER BY id FOR UPDATE")).
		WithArgs("Bollywood").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(12).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM actor_movie WHERE actor_id = ANY($1)")).
		WithArgs([]int{10, 12}).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM actor WHERE id = ANY($1)")).
		WithArgs([]int{10, 12}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	n, err := repo.Actors.DeleteAllByIndustry(ctx, "Bollywood")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWithNoMatchesSkipsStatements(t *testing.T) {
	ctx := context.Background()
	mock, repo, _ := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT movie_id FROM movie WHERE collection < $1")).
		WithArgs(int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"movie_id"}))
	mock.ExpectCommit()
	mock.ExpectRollback()

	n, err := repo.Movies.DeleteAllWithCollectionLessThan(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFailureRollsBackWithCode(t *testing.T) {
	ctx := context.Background()
	mock, repo, obs := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT movie_id FROM movie WHERE collection < $1")).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"movie_id"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM actor_movie WHERE movie_id = ANY($1)")).
		WithArgs([]int{3}).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM movie WHERE movie_id = ANY($1)")).
		WithArgs([]int{3}).
		WillReturnError(&pgconn.PgError{Code: domain.CodeForeignKeyViolation, Message: "violates foreign key constraint"})
	mock.ExpectRollback()

	_, err := repo.Movies.DeleteAllWithCollectionLessThan(ctx, 5)
	require.Error(t, err)

	var se *domain.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "deleteAllMoviesWithCollectionLessThan", se.Op)
	assert.Equal(t, domain.CodeForeignKeyViolation, se.Code)
	assert.True(t, domain.IsConflict(err))
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, obs.seen, 1)
	assert.Zero(t, obs.seen[0].rows)
}

func TestFindActorByIDNotFoundUsesReadOnlyTx(t *testing.T) {
	ctx := context.Background()
	mock, repo, _ := newMockRepository(t)

	mock.ExpectBeginTx(store.ReadOnly)
	mock.ExpectQuery("FROM actor WHERE id =").
		WithArgs(99).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "age", "industry", "salary", "nationality"}))
	mock.ExpectRollback()

	_, err := repo.Actors.FindByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMoviesEagerLoadsCast(t *testing.T) {
	ctx := context.Background()
	mock, repo, _ := newMockRepository(t)

	mock.ExpectBeginTx(store.ReadOnly)
	mock.ExpectQuery("FROM movie WHERE genre =").
		WithArgs("SciFi").
		WillReturnRows(pgxmock.NewRows([]string{"movie_id", "movie_name", "movie_director", "genre", "verdict", "collection"}).
			AddRow(1, "Inception", "Nolan", "SciFi", "Hit", int64(800)).
			AddRow(4, "Interstellar", "Nolan", "SciFi", "Hit", int64(700)))
	mock.ExpectQuery("FROM actor_movie am JOIN actor a").
		WithArgs([]int{1, 4}).
		WillReturnRows(pgxmock.NewRows([]string{"movie_id", "id", "name", "age", "industry", "salary", "nationality"}).
			AddRow(1, 10, "Leo", 48, "Hollywood", 1.5, "US"))
	mock.ExpectCommit()
	mock.ExpectRollback()

	movies, err := repo.Movies.FindAllByGenre(ctx, "SciFi")
	require.NoError(t, err)
	require.Len(t, movies, 2)
	require.Len(t, movies[0].Actors, 1)
	assert.Equal(t, "Leo", movies[0].Actors[0].Name)
	assert.Empty(t, movies[0].Actors[0].Movies)
	assert.NotNil(t, movies[1].Actors)
	assert.Empty(t, movies[1].Actors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMovieSkipsUnknownActors(t *testing.T) {
	ctx := context.Background()
	mock, repo, _ := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO movie").
		WithArgs(2, "Tenet", "Nolan", "SciFi", "Average", int64(400)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM actor_movie WHERE movie_id = $1")).
		WithArgs(2).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery("INSERT INTO actor_movie").
		WithArgs(2, []int{10, 404}).
		WillReturnRows(pgxmock.NewRows([]string{"actor_id"}).AddRow(10))
	mock.ExpectQuery("FROM movie WHERE movie_id =").
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{"movie_id", "movie_name", "movie_director", "genre", "verdict", "collection"}).
			AddRow(2, "Tenet", "Nolan", "SciFi", "Average", int64(400)))
	mock.ExpectQuery("FROM actor_movie am JOIN actor a").
		WithArgs([]int{2}).
		WillReturnRows(pgxmock.NewRows([]string{"movie_id", "id", "name", "age", "industry", "salary", "nationality"}).
			AddRow(2, 10, "John David", 39, "Hollywood", 2.0, "US"))
	mock.ExpectCommit()
	mock.ExpectRollback()

	movie, err := repo.Movies.Add(ctx, domain.Movie{
		MovieID: 2, Name: "Tenet", Director: "Nolan", Genre: "SciFi", Verdict: "Average", Collection: 400,
	}, []int{10, 404})
	require.NoError(t, err)
	assert.Equal(t, []int{10}, actorIDs(movie.Actors))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDifference(t *testing.T) {
	assert.Equal(t, []int{404, 7}, difference([]int{10, 404, 7, 404}, []int{10}))
	assert.Nil(t, difference([]int{1, 2}, []int{2, 1}))
}

func TestPageNormalized(t *testing.T) {
	assert.Equal(t, Page{Limit: 20}, Page{}.normalized())
	assert.Equal(t, Page{AfterID: 0, Limit: 100}, Page{AfterID: -3, Limit: 500}.normalized())
	assert.Equal(t, Page{AfterID: 9, Limit: 5}, Page{AfterID: 9, Limit: 5}.normalized())
	assert.Equal(t, Page{AfterID: math.MaxInt32, Limit: 20}, Page{AfterID: 5_000_000_000}.normalized())
}

func TestFindBetweenAgeClampsUpperBound(t *testing.T) {
	ctx := context.Background()
	mock, repo, _ := newMockRepository(t)

	mock.ExpectBeginTx(store.ReadOnly)
	mock.ExpectQuery(regexp.QuoteMeta("FROM actor WHERE age BETWEEN $1 AND $2")).
		WithArgs(30, math.MaxInt32).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "age", "industry", "salary", "nationality"}))
	mock.ExpectCommit()
	mock.ExpectRollback()

	actors, err := repo.Actors.FindBetweenAge(ctx, 30, 9_000_000_000)
	require.NoError(t, err)
	assert.Empty(t, actors)
	require.NoError(t, mock.ExpectationsWereMet())
}
