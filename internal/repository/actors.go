package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Clark-Hu/cinecast/internal/domain"
)

// ActorsRepository provides persistence helpers for actor entities. Every
// loaded actor carries its movies, fetched by a secondary join-table query in
// the same transaction.
type ActorsRepository struct {
	uow     *unitOfWork
	casting *CastingRepository
}

const actorColumns = `
    id,
    name,
    age,
    industry,
    salary,
    nationality
`

// Add stores an actor. A zero ID lets the store assign one; a positive ID is
// merged over the existing row, or inserted with that ID when none exists.
// When Movies is non-nil it becomes the actor's complete filmography, skipping
// movie ids that do not exist.
func (r *ActorsRepository) Add(ctx context.Context, actor domain.Actor) (domain.Actor, error) {
	const op = "addActor"
	if err := validateActor(actor); err != nil {
		return domain.Actor{}, r.uow.reject(op, err)
	}

	var stored domain.Actor
	_, err := r.uow.write(ctx, op, func(q DBTX) (int64, error) {
		id, err := upsertActor(ctx, q, actor)
		if err != nil {
			return 0, err
		}

		if actor.Movies != nil {
			want := actor.MovieIDs()
			linked, err := r.casting.ReplaceActorMovies(ctx, q, id, want)
			if err != nil {
				return 0, err
			}
			if skipped := difference(want, linked); len(skipped) > 0 {
				r.uow.logger.Info("skipped unknown movie ids", zap.Int("actor", id), zap.Ints("movies", skipped))
			}
		}

		stored, err = r.load(ctx, q, id)
		return 1, err
	})
	if err != nil {
		return domain.Actor{}, err
	}
	return stored, nil
}

func upsertActor(ctx context.Context, q DBTX, a domain.Actor) (int, error) {
	var id int
	if a.ID == 0 {
		const query = `
            INSERT INTO actor (name, age, industry, salary, nationality)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING id
        `
		if err := q.QueryRow(ctx, query, a.Name, a.Age, a.Industry, a.Salary, a.Nationality).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert actor: %w", err)
		}
		return id, nil
	}

	const query = `
        INSERT INTO actor (id, name, age, industry, salary, nationality)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (id) DO UPDATE
        SET name = EXCLUDED.name,
            age = EXCLUDED.age,
            industry = EXCLUDED.industry,
            salary = EXCLUDED.salary,
            nationality = EXCLUDED.nationality
        RETURNING id
    `
	if err := q.QueryRow(ctx, query, a.ID, a.Name, a.Age, a.Industry, a.Salary, a.Nationality).Scan(&id); err != nil {
		return 0, fmt.Errorf("merge actor %d: %w", a.ID, err)
	}

	// Explicit ids bypass the identity sequence; move it past them so later
	// generated ids cannot collide.
	const bump = `SELECT setval(pg_get_serial_sequence('actor', 'id'), GREATEST(MAX(id), 1)) FROM actor`
	if _, err := q.Exec(ctx, bump); err != nil {
		return 0, fmt.Errorf("advance actor id sequence: %w", err)
	}
	return id, nil
}

// FindByID fetches an actor by identifier, returning ErrNotFound on a miss.
func (r *ActorsRepository) FindByID(ctx context.Context, id int) (domain.Actor, error) {
	const op = "findActorById"
	if err := requireID("id", id); err != nil {
		return domain.Actor{}, r.uow.reject(op, err)
	}

	var actor domain.Actor
	err := r.uow.read(ctx, op, func(q DBTX) error {
		var err error
		actor, err = r.load(ctx, q, id)
		return err
	})
	if err != nil {
		return domain.Actor{}, err
	}
	return actor, nil
}

// FindByName returns actors whose name matches exactly, in id order.
func (r *ActorsRepository) FindByName(ctx context.Context, name string) ([]domain.Actor, error) {
	const op = "findActorByName"
	if err := requireText("name", name); err != nil {
		return nil, r.uow.reject(op, err)
	}
	return r.query(ctx, op, fmt.Sprintf(`SELECT %s FROM actor WHERE name = $1 ORDER BY id`, actorColumns), name)
}

// FindByIndustry returns actors working in the given industry.
func (r *ActorsRepository) FindByIndustry(ctx context.Context, industry string) ([]domain.Actor, error) {
	const op = "findActorByIndustry"
	if err := requireText("industry", industry); err != nil {
		return nil, r.uow.reject(op, err)
	}
	return r.query(ctx, op, fmt.Sprintf(`SELECT %s FROM actor WHERE industry = $1 ORDER BY id`, actorColumns), industry)
}

// FindBetweenAge returns actors with minAge <= age <= maxAge.
func (r *ActorsRepository) FindBetweenAge(ctx context.Context, minAge, maxAge int) ([]domain.Actor, error) {
	const op = "findActorBetweenAge"
	if minAge < 0 {
		return nil, r.uow.reject(op, domain.Invalid("minAge", "must not be negative, got %d", minAge))
	}
	if minAge > maxInt4 {
		return nil, r.uow.reject(op, domain.Invalid("minAge", "must not exceed %d, got %d", maxInt4, minAge))
	}
	if minAge > maxAge {
		return nil, r.uow.reject(op, domain.Invalid("maxAge", "must be >= minAge (%d), got %d", minAge, maxAge))
	}
	maxAge = min(maxAge, maxInt4)
	return r.query(ctx, op, fmt.Sprintf(`SELECT %s FROM actor WHERE age BETWEEN $1 AND $2 ORDER BY id`, actorColumns), minAge, maxAge)
}

// FindAllByMovieName returns the actors linked to any movie with that name.
func (r *ActorsRepository) FindAllByMovieName(ctx context.Context, movieName string) ([]domain.Actor, error) {
	const op = "findAllActorsByMovieName"
	if err := requireText("movieName", movieName); err != nil {
		return nil, r.uow.reject(op, err)
	}
	query := fmt.Sprintf(`
        SELECT %s FROM actor
        WHERE id IN (
            SELECT am.actor_id
            FROM actor_movie am
            JOIN movie m ON m.movie_id = am.movie_id
            WHERE m.movie_name = $1
        )
        ORDER BY id
    `, actorColumns)
	return r.query(ctx, op, query, movieName)
}

// List returns one page of actors ordered by id.
func (r *ActorsRepository) List(ctx context.Context, page Page) ([]domain.Actor, error) {
	page = page.normalized()
	query := fmt.Sprintf(`SELECT %s FROM actor WHERE id > $1 ORDER BY id LIMIT %d`, actorColumns, page.Limit)
	return r.query(ctx, "listActors", query, page.AfterID)
}

// UpdateAllSalaryByMovieID sets the salary of every actor linked to movieID.
func (r *ActorsRepository) UpdateAllSalaryByMovieID(ctx context.Context, movieID int, salary float64) (int64, error) {
	const op = "updateAllActorSalaryByMovieId"
	if err := requireID("movieId", movieID); err != nil {
		return 0, r.uow.reject(op, err)
	}
	if salary < 0 {
		return 0, r.uow.reject(op, domain.Invalid("salary", "must not be negative, got %v", salary))
	}

	return r.uow.write(ctx, op, func(q DBTX) (int64, error) {
		const query = `
            UPDATE actor
            SET salary = $2
            WHERE id IN (SELECT actor_id FROM actor_movie WHERE movie_id = $1)
        `
		tag, err := q.Exec(ctx, query, movieID, salary)
		if err != nil {
			return 0, err
		}
		return tag.RowsAffected(), nil
	})
}

// UpdateNationalityByID changes one actor's nationality and reports 0 or 1.
func (r *ActorsRepository) UpdateNationalityByID(ctx context.Context, id int, nationality string) (int64, error) {
	const op = "updateActorNationalityById"
	if err := requireID("id", id); err != nil {
		return 0, r.uow.reject(op, err)
	}
	if err := requireText("nationality", nationality); err != nil {
		return 0, r.uow.reject(op, err)
	}

	return r.uow.write(ctx, op, func(q DBTX) (int64, error) {
		tag, err := q.Exec(ctx, `UPDATE actor SET nationality = $2 WHERE id = $1`, id, nationality)
		if err != nil {
			return 0, err
		}
		return tag.RowsAffected(), nil
	})
}

// DeleteAllByIndustry removes every actor in the industry together with the
// actors' join rows.
func (r *ActorsRepository) DeleteAllByIndustry(ctx context.Context, industry string) (int64, error) {
	const op = "deleteAllActorsByIndustry"
	if err := requireText("industry", industry); err != nil {
		return 0, r.uow.reject(op, err)
	}
	return r.deleteWhere(ctx, op, `SELECT id FROM actor WHERE industry = $1 ORDER BY id FOR UPDATE`, industry)
}

// DeleteAllByMovieName removes the actors linked to movies with that name. The
// movies themselves are kept.
func (r *ActorsRepository) DeleteAllByMovieName(ctx context.Context, movieName string) (int64, error) {
	const op = "deleteAllActorsByMovieName"
	if err := requireText("movieName", movieName); err != nil {
		return 0, r.uow.reject(op, err)
	}
	const selectIDs = `
        SELECT id FROM actor
        WHERE id IN (
            SELECT am.actor_id
            FROM actor_movie am
            JOIN movie m ON m.movie_id = am.movie_id
            WHERE m.movie_name = $1
        )
        ORDER BY id
        FOR UPDATE
    `
	return r.deleteWhere(ctx, op, selectIDs, movieName)
}

// deleteWhere locks the actors selected by selectIDs, drops their join rows and
// then the actor rows, all in one transaction.
func (r *ActorsRepository) deleteWhere(ctx context.Context, op, selectIDs string, args ...any) (int64, error) {
	return r.uow.write(ctx, op, func(q DBTX) (int64, error) {
		ids, err := collectIDs(q.Query(ctx, selectIDs, args...))
		if err != nil {
			return 0, fmt.Errorf("select actors: %w", err)
		}
		if len(ids) == 0 {
			return 0, nil
		}
		if _, err := r.casting.UnlinkActors(ctx, q, ids); err != nil {
			return 0, err
		}
		tag, err := q.Exec(ctx, `DELETE FROM actor WHERE id = ANY($1)`, ids)
		if err != nil {
			return 0, fmt.Errorf("delete actors: %w", err)
		}
		return tag.RowsAffected(), nil
	})
}

func (r *ActorsRepository) query(ctx context.Context, op, query string, args ...any) ([]domain.Actor, error) {
	var actors []domain.Actor
	err := r.uow.read(ctx, op, func(q DBTX) error {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		actors, err = collectActors(rows)
		if err != nil {
			return err
		}
		return r.attachMovies(ctx, q, actors)
	})
	if err != nil {
		return nil, err
	}
	return actors, nil
}

func (r *ActorsRepository) load(ctx context.Context, q DBTX, id int) (domain.Actor, error) {
	row := q.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM actor WHERE id = $1`, actorColumns), id)
	actor, err := scanActor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Actor{}, ErrNotFound
		}
		return domain.Actor{}, err
	}
	actors := []domain.Actor{actor}
	if err := r.attachMovies(ctx, q, actors); err != nil {
		return domain.Actor{}, err
	}
	return actors[0], nil
}

func (r *ActorsRepository) attachMovies(ctx context.Context, q DBTX, actors []domain.Actor) error {
	if len(actors) == 0 {
		return nil
	}
	ids := make([]int, len(actors))
	for i, a := range actors {
		ids[i] = a.ID
	}
	byActor, err := r.casting.MoviesForActors(ctx, q, ids)
	if err != nil {
		return err
	}
	for i := range actors {
		if movies, ok := byActor[actors[i].ID]; ok {
			actors[i].Movies = movies
		}
	}
	return nil
}

func scanActor(row pgx.Row) (domain.Actor, error) {
	var actor domain.Actor
	err := row.Scan(
		&actor.ID,
		&actor.Name,
		&actor.Age,
		&actor.Industry,
		&actor.Salary,
		&actor.Nationality,
	)
	if err != nil {
		return domain.Actor{}, err
	}
	actor.Movies = []domain.Movie{}
	return actor, nil
}

func collectActors(rows pgx.Rows) ([]domain.Actor, error) {
	defer rows.Close()

	actors := make([]domain.Actor, 0)
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		actors = append(actors, actor)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return actors, nil
}
