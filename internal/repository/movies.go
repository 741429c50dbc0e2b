package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Clark-Hu/cinecast/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	uow     *unitOfWork
	casting *CastingRepository
}

const movieColumns = `
    movie_id,
    movie_name,
    movie_director,
    genre,
    verdict,
    collection
`

// Add inserts a movie, or merges it over the row with the same movieId. A
// non-nil actorIDs becomes the movie's complete cast; ids that do not resolve
// to an actor are skipped. A nil actorIDs leaves existing links untouched.
func (r *MoviesRepository) Add(ctx context.Context, movie domain.Movie, actorIDs []int) (domain.Movie, error) {
	const op = "addMovie"
	if err := validateMovie(movie, actorIDs); err != nil {
		return domain.Movie{}, r.uow.reject(op, err)
	}

	var stored domain.Movie
	_, err := r.uow.write(ctx, op, func(q DBTX) (int64, error) {
		const query = `
            INSERT INTO movie (movie_id, movie_name, movie_director, genre, verdict, collection)
            VALUES ($1,$2,$3,$4,$5,$6)
            ON CONFLICT (movie_id) DO UPDATE
            SET movie_name = EXCLUDED.movie_name,
                movie_director = EXCLUDED.movie_director,
                genre = EXCLUDED.genre,
                verdict = EXCLUDED.verdict,
                collection = EXCLUDED.collection
        `
		if _, err := q.Exec(ctx, query, movie.MovieID, movie.Name, movie.Director, movie.Genre, movie.Verdict, movie.Collection); err != nil {
			return 0, fmt.Errorf("merge movie %d: %w", movie.MovieID, err)
		}

		if actorIDs != nil {
			linked, err := r.casting.ReplaceMovieActors(ctx, q, movie.MovieID, actorIDs)
			if err != nil {
				return 0, err
			}
			if skipped := difference(actorIDs, linked); len(skipped) > 0 {
				r.uow.logger.Info("skipped unknown actor ids", zap.Int("movie", movie.MovieID), zap.Ints("actors", skipped))
			}
		}

		var err error
		stored, err = r.load(ctx, q, movie.MovieID)
		return 1, err
	})
	if err != nil {
		return domain.Movie{}, err
	}
	return stored, nil
}

// FindByID fetches a movie by movieId, returning ErrNotFound on a miss.
func (r *MoviesRepository) FindByID(ctx context.Context, movieID int) (domain.Movie, error) {
	const op = "findMovieById"
	if err := requireID("movieId", movieID); err != nil {
		return domain.Movie{}, r.uow.reject(op, err)
	}

	var movie domain.Movie
	err := r.uow.read(ctx, op, func(q DBTX) error {
		var err error
		movie, err = r.load(ctx, q, movieID)
		return err
	})
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

// FindByName returns movies whose name matches exactly.
func (r *MoviesRepository) FindByName(ctx context.Context, name string) ([]domain.Movie, error) {
	const op = "findMovieByName"
	if err := requireText("movieName", name); err != nil {
		return nil, r.uow.reject(op, err)
	}
	return r.query(ctx, op, fmt.Sprintf(`SELECT %s FROM movie WHERE movie_name = $1 ORDER BY movie_id`, movieColumns), name)
}

// FindAllByGenre returns movies of the given genre.
func (r *MoviesRepository) FindAllByGenre(ctx context.Context, genre string) ([]domain.Movie, error) {
	const op = "findAllMoviesByGenre"
	if err := requireText("genre", genre); err != nil {
		return nil, r.uow.reject(op, err)
	}
	return r.query(ctx, op, fmt.Sprintf(`SELECT %s FROM movie WHERE genre = $1 ORDER BY movie_id`, movieColumns), genre)
}

// FindAllByDirector returns movies by the given director.
func (r *MoviesRepository) FindAllByDirector(ctx context.Context, director string) ([]domain.Movie, error) {
	const op = "findAllMoviesByDirector"
	if err := requireText("movieDirector", director); err != nil {
		return nil, r.uow.reject(op, err)
	}
	return r.query(ctx, op, fmt.Sprintf(`SELECT %s FROM movie WHERE movie_director = $1 ORDER BY movie_id`, movieColumns), director)
}

// FindAllCollectionGreaterThan returns movies whose collection is strictly
// greater than threshold.
func (r *MoviesRepository) FindAllCollectionGreaterThan(ctx context.Context, threshold int64) ([]domain.Movie, error) {
	return r.query(ctx, "findAllMovieCollectionGreaterThan",
		fmt.Sprintf(`SELECT %s FROM movie WHERE collection > $1 ORDER BY movie_id`, movieColumns), threshold)
}

// FindAllByActorID returns the movies the actor is linked to.
func (r *MoviesRepository) FindAllByActorID(ctx context.Context, actorID int) ([]domain.Movie, error) {
	const op = "findAllMoviesByActorId"
	if err := requireID("actorId", actorID); err != nil {
		return nil, r.uow.reject(op, err)
	}
	query := fmt.Sprintf(`
        SELECT %s FROM movie
        WHERE movie_id IN (SELECT movie_id FROM actor_movie WHERE actor_id = $1)
        ORDER BY movie_id
    `, movieColumns)
	return r.query(ctx, op, query, actorID)
}

// List returns one page of movies ordered by movieId.
func (r *MoviesRepository) List(ctx context.Context, page Page) ([]domain.Movie, error) {
	page = page.normalized()
	query := fmt.Sprintf(`SELECT %s FROM movie WHERE movie_id > $1 ORDER BY movie_id LIMIT %d`, movieColumns, page.Limit)
	return r.query(ctx, "listMovies", query, page.AfterID)
}

// UpdateCollectionByVerdict adds increment to the collection of every movie
// with the given verdict.
func (r *MoviesRepository) UpdateCollectionByVerdict(ctx context.Context, verdict string, increment int64) (int64, error) {
	const op = "updateMovieCollectionByVerdict"
	if err := requireText("verdict", verdict); err != nil {
		return 0, r.uow.reject(op, err)
	}

	return r.uow.write(ctx, op, func(q DBTX) (int64, error) {
		tag, err := q.Exec(ctx, `UPDATE movie SET collection = collection + $2 WHERE verdict = $1`, verdict, increment)
		if err != nil {
			return 0, err
		}
		return tag.RowsAffected(), nil
	})
}

// SetCollection overwrites one movie's collection and reports 0 or 1.
func (r *MoviesRepository) SetCollection(ctx context.Context, movieID int, collection int64) (int64, error) {
	const op = "setMovieCollection"
	if err := requireID("movieId", movieID); err != nil {
		return 0, r.uow.reject(op, err)
	}
	if collection < 0 {
		return 0, r.uow.reject(op, domain.Invalid("collection", "must not be negative, got %d", collection))
	}

	return r.uow.write(ctx, op, func(q DBTX) (int64, error) {
		tag, err := q.Exec(ctx, `UPDATE movie SET collection = $2 WHERE movie_id = $1`, movieID, collection)
		if err != nil {
			return 0, err
		}
		return tag.RowsAffected(), nil
	})
}

// DeleteAllByActorName removes every movie featuring an actor with that name.
// The actors are kept; only their links to the deleted movies go.
func (r *MoviesRepository) DeleteAllByActorName(ctx context.Context, actorName string) (int64, error) {
	const op = "deleteAllMoviesByActorName"
	if err := requireText("actorName", actorName); err != nil {
		return 0, r.uow.reject(op, err)
	}
	const selectIDs = `
        SELECT movie_id FROM movie
        WHERE movie_id IN (
            SELECT am.movie_id
            FROM actor_movie am
            JOIN actor a ON a.id = am.actor_id
            WHERE a.name = $1
        )
        ORDER BY movie_id
        FOR UPDATE
    `
	return r.deleteWhere(ctx, op, selectIDs, actorName)
}

// DeleteAllWithCollectionLessThan removes movies whose collection is strictly
// less than threshold.
func (r *MoviesRepository) DeleteAllWithCollectionLessThan(ctx context.Context, threshold int64) (int64, error) {
	return r.deleteWhere(ctx, "deleteAllMoviesWithCollectionLessThan",
		`SELECT movie_id FROM movie WHERE collection < $1 ORDER BY movie_id FOR UPDATE`, threshold)
}

func (r *MoviesRepository) deleteWhere(ctx context.Context, op, selectIDs string, args ...any) (int64, error) {
	return r.uow.write(ctx, op, func(q DBTX) (int64, error) {
		ids, err := collectIDs(q.Query(ctx, selectIDs, args...))
		if err != nil {
			return 0, fmt.Errorf("select movies: %w", err)
		}
		if len(ids) == 0 {
			return 0, nil
		}
		if _, err := r.casting.UnlinkMovies(ctx, q, ids); err != nil {
			return 0, err
		}
		tag, err := q.Exec(ctx, `DELETE FROM movie WHERE movie_id = ANY($1)`, ids)
		if err != nil {
			return 0, fmt.Errorf("delete movies: %w", err)
		}
		return tag.RowsAffected(), nil
	})
}

func (r *MoviesRepository) query(ctx context.Context, op, query string, args ...any) ([]domain.Movie, error) {
	var movies []domain.Movie
	err := r.uow.read(ctx, op, func(q DBTX) error {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		movies, err = collectMovies(rows)
		if err != nil {
			return err
		}
		return r.attachActors(ctx, q, movies)
	})
	if err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *MoviesRepository) load(ctx context.Context, q DBTX, movieID int) (domain.Movie, error) {
	row := q.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM movie WHERE movie_id = $1`, movieColumns), movieID)
	movie, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	movies := []domain.Movie{movie}
	if err := r.attachActors(ctx, q, movies); err != nil {
		return domain.Movie{}, err
	}
	return movies[0], nil
}

func (r *MoviesRepository) attachActors(ctx context.Context, q DBTX, movies []domain.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	ids := make([]int, len(movies))
	for i, m := range movies {
		ids[i] = m.MovieID
	}
	byMovie, err := r.casting.ActorsForMovies(ctx, q, ids)
	if err != nil {
		return err
	}
	for i := range movies {
		if cast, ok := byMovie[movies[i].MovieID]; ok {
			movies[i].Actors = cast
		}
	}
	return nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.MovieID,
		&movie.Name,
		&movie.Director,
		&movie.Genre,
		&movie.Verdict,
		&movie.Collection,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	movie.Actors = []domain.Actor{}
	return movie, nil
}

func collectMovies(rows pgx.Rows) ([]domain.Movie, error) {
	defer rows.Close()

	movies := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movies, nil
}
