package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/cinecast/internal/domain"
)

// CastingRepository owns the actor_movie join table. Its methods run on the
// DBTX of the calling unit of work and never open transactions themselves.
type CastingRepository struct{}

// MoviesForActors loads the movies linked to each of the given actors.
func (c *CastingRepository) MoviesForActors(ctx context.Context, q DBTX, actorIDs []int) (map[int][]domain.Movie, error) {
	out := make(map[int][]domain.Movie, len(actorIDs))
	if len(actorIDs) == 0 {
		return out, nil
	}

	const query = `
        SELECT am.actor_id, m.movie_id, m.movie_name, m.movie_director, m.genre, m.verdict, m.collection
        FROM actor_movie am
        JOIN movie m ON m.movie_id = am.movie_id
        WHERE am.actor_id = ANY($1)
        ORDER BY am.actor_id, m.movie_id
    `
	rows, err := q.Query(ctx, query, actorIDs)
	if err != nil {
		return nil, fmt.Errorf("load movies for actors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			actorID int
			movie   domain.Movie
		)
		if err := rows.Scan(&actorID, &movie.MovieID, &movie.Name, &movie.Director, &movie.Genre, &movie.Verdict, &movie.Collection); err != nil {
			return nil, err
		}
		out[actorID] = append(out[actorID], movie.Shallow())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ActorsForMovies loads the cast of each of the given movies.
func (c *CastingRepository) ActorsForMovies(ctx context.Context, q DBTX, movieIDs []int) (map[int][]domain.Actor, error) {
	out := make(map[int][]domain.Actor, len(movieIDs))
	if len(movieIDs) == 0 {
		return out, nil
	}

	const query = `
        SELECT am.movie_id, a.id, a.name, a.age, a.industry, a.salary, a.nationality
        FROM actor_movie am
        JOIN actor a ON a.id = am.actor_id
        WHERE am.movie_id = ANY($1)
        ORDER BY am.movie_id, a.id
    `
	rows, err := q.Query(ctx, query, movieIDs)
	if err != nil {
		return nil, fmt.Errorf("load actors for movies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			movieID int
			actor   domain.Actor
		)
		if err := rows.Scan(&movieID, &actor.ID, &actor.Name, &actor.Age, &actor.Industry, &actor.Salary, &actor.Nationality); err != nil {
			return nil, err
		}
		out[movieID] = append(out[movieID], actor.Shallow())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceMovieActors makes actorIDs the complete cast of movieID. Ids that do
// not resolve to an existing actor are skipped; the linked ids are returned in
// ascending order.
func (c *CastingRepository) ReplaceMovieActors(ctx context.Context, q DBTX, movieID int, actorIDs []int) ([]int, error) {
	if _, err := q.Exec(ctx, `DELETE FROM actor_movie WHERE movie_id = $1`, movieID); err != nil {
		return nil, fmt.Errorf("clear cast of movie %d: %w", movieID, err)
	}
	if len(actorIDs) == 0 {
		return []int{}, nil
	}

	const query = `
        INSERT INTO actor_movie (actor_id, movie_id)
        SELECT a.id, $1::integer FROM actor a WHERE a.id = ANY($2::integer[])
        ON CONFLICT DO NOTHING
        RETURNING actor_id
    `
	linked, err := collectIDs(q.Query(ctx, query, movieID, actorIDs))
	if err != nil {
		return nil, fmt.Errorf("link cast of movie %d: %w", movieID, err)
	}
	return linked, nil
}

// ReplaceActorMovies makes movieIDs the complete filmography of actorID,
// skipping ids that do not resolve to an existing movie.
func (c *CastingRepository) ReplaceActorMovies(ctx context.Context, q DBTX, actorID int, movieIDs []int) ([]int, error) {
	if _, err := q.Exec(ctx, `DELETE FROM actor_movie WHERE actor_id = $1`, actorID); err != nil {
		return nil, fmt.Errorf("clear movies of actor %d: %w", actorID, err)
	}
	if len(movieIDs) == 0 {
		return []int{}, nil
	}

	const query = `
        INSERT INTO actor_movie (actor_id, movie_id)
        SELECT $1::integer, m.movie_id FROM movie m WHERE m.movie_id = ANY($2::integer[])
        ON CONFLICT DO NOTHING
        RETURNING movie_id
    `
	linked, err := collectIDs(q.Query(ctx, query, actorID, movieIDs))
	if err != nil {
		return nil, fmt.Errorf("link movies of actor %d: %w", actorID, err)
	}
	return linked, nil
}

// UnlinkActors removes every join row that references one of the actors.
func (c *CastingRepository) UnlinkActors(ctx context.Context, q DBTX, actorIDs []int) (int64, error) {
	if len(actorIDs) == 0 {
		return 0, nil
	}
	tag, err := q.Exec(ctx, `DELETE FROM actor_movie WHERE actor_id = ANY($1)`, actorIDs)
	if err != nil {
		return 0, fmt.Errorf("unlink actors: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UnlinkMovies removes every join row that references one of the movies.
func (c *CastingRepository) UnlinkMovies(ctx context.Context, q DBTX, movieIDs []int) (int64, error) {
	if len(movieIDs) == 0 {
		return 0, nil
	}
	tag, err := q.Exec(ctx, `DELETE FROM actor_movie WHERE movie_id = ANY($1)`, movieIDs)
	if err != nil {
		return 0, fmt.Errorf("unlink movies: %w", err)
	}
	return tag.RowsAffected(), nil
}

// collectIDs drains a single integer column and returns it sorted.
func collectIDs(rows pgx.Rows, err error) ([]int, error) {
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, err
	}
	sort.Ints(ids)
	return ids, nil
}
