package console

import (
	"context"
	"fmt"

	"github.com/Clark-Hu/cinecast/internal/domain"
	"github.com/Clark-Hu/cinecast/internal/repository"
)

func (c *Console) addActor(ctx context.Context) error {
	var (
		actor domain.Actor
		err   error
	)
	if actor.Name, err = c.ask(ctx, "Enter actor name:"); err != nil {
		return err
	}
	if actor.Age, err = c.askInt(ctx, "Enter actor age:"); err != nil {
		return err
	}
	if actor.Industry, err = c.ask(ctx, "Enter actor industry:"); err != nil {
		return err
	}
	if actor.Salary, err = c.askFloat(ctx, "Enter actor salary:"); err != nil {
		return err
	}
	if actor.Nationality, err = c.ask(ctx, "Enter actor nationality:"); err != nil {
		return err
	}

	stored, err := c.actors.Add(ctx, actor)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Actor saved with ID %d.\n", stored.ID)
	return nil
}

func (c *Console) findActorByID(ctx context.Context) error {
	id, err := c.askInt(ctx, "Enter actor ID:")
	if err != nil {
		return err
	}
	actor, err := c.actors.FindByID(ctx, id)
	if err != nil {
		return err
	}
	c.printActors([]domain.Actor{actor})
	return nil
}

func (c *Console) findActorByName(ctx context.Context) error {
	name, err := c.ask(ctx, "Enter actor name:")
	if err != nil {
		return err
	}
	actors, err := c.actors.FindByName(ctx, name)
	if err != nil {
		return err
	}
	c.printActors(actors)
	return nil
}

func (c *Console) findActorByIndustry(ctx context.Context) error {
	industry, err := c.ask(ctx, "Enter industry:")
	if err != nil {
		return err
	}
	actors, err := c.actors.FindByIndustry(ctx, industry)
	if err != nil {
		return err
	}
	c.printActors(actors)
	return nil
}

func (c *Console) findActorBetweenAge(ctx context.Context) error {
	minAge, err := c.askInt(ctx, "Enter min age:")
	if err != nil {
		return err
	}
	maxAge, err := c.askInt(ctx, "Enter max age:")
	if err != nil {
		return err
	}
	actors, err := c.actors.FindBetweenAge(ctx, minAge, maxAge)
	if err != nil {
		return err
	}
	c.printActors(actors)
	return nil
}

func (c *Console) findActorsByMovieName(ctx context.Context) error {
	name, err := c.ask(ctx, "Enter movie name:")
	if err != nil {
		return err
	}
	actors, err := c.actors.FindAllByMovieName(ctx, name)
	if err != nil {
		return err
	}
	c.printActors(actors)
	return nil
}

func (c *Console) updateSalaryByMovieID(ctx context.Context) error {
	movieID, err := c.askInt(ctx, "Enter movie ID:")
	if err != nil {
		return err
	}
	salary, err := c.askFloat(ctx, "Enter new salary:")
	if err != nil {
		return err
	}
	n, err := c.actors.UpdateAllSalaryByMovieID(ctx, movieID, salary)
	if err != nil {
		return err
	}
	c.printCount("Updated", n)
	return nil
}

func (c *Console) updateNationalityByID(ctx context.Context) error {
	id, err := c.askInt(ctx, "Enter actor ID:")
	if err != nil {
		return err
	}
	nationality, err := c.ask(ctx, "Enter new nationality:")
	if err != nil {
		return err
	}
	n, err := c.actors.UpdateNationalityByID(ctx, id, nationality)
	if err != nil {
		return err
	}
	c.printCount("Updated", n)
	return nil
}

func (c *Console) deleteActorsByIndustry(ctx context.Context) error {
	industry, err := c.ask(ctx, "Enter industry:")
	if err != nil {
		return err
	}
	n, err := c.actors.DeleteAllByIndustry(ctx, industry)
	if err != nil {
		return err
	}
	c.printCount("Deleted", n)
	return nil
}

func (c *Console) deleteActorsByMovieName(ctx context.Context) error {
	name, err := c.ask(ctx, "Enter movie name:")
	if err != nil {
		return err
	}
	n, err := c.actors.DeleteAllByMovieName(ctx, name)
	if err != nil {
		return err
	}
	c.printCount("Deleted", n)
	return nil
}

// addMovie shows the known actors first so their ids can be picked for the cast.
func (c *Console) addMovie(ctx context.Context) error {
	var (
		movie domain.Movie
		err   error
	)
	if movie.MovieID, err = c.askInt(ctx, "Enter movie ID:"); err != nil {
		return err
	}
	if movie.Name, err = c.ask(ctx, "Enter movie name:"); err != nil {
		return err
	}
	if movie.Director, err = c.ask(ctx, "Enter movie director:"); err != nil {
		return err
	}
	if movie.Genre, err = c.ask(ctx, "Enter genre:"); err != nil {
		return err
	}
	if movie.Verdict, err = c.ask(ctx, "Enter verdict:"); err != nil {
		return err
	}
	if movie.Collection, err = c.askInt64(ctx, "Enter collection:"); err != nil {
		return err
	}

	actors, err := c.allActors(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Available actors:")
	c.printActors(actors)
	actorIDs, err := c.askIDs(ctx, "Enter actor IDs (comma separated, blank for none):")
	if err != nil {
		return err
	}

	stored, err := c.movies.Add(ctx, movie, actorIDs)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Movie %d saved with %d actor(s).\n", stored.MovieID, len(stored.Actors))
	return nil
}

func (c *Console) findMovieByName(ctx context.Context) error {
	name, err := c.ask(ctx, "Enter movie name:")
	if err != nil {
		return err
	}
	movies, err := c.movies.FindByName(ctx, name)
	if err != nil {
		return err
	}
	c.printMovies(movies)
	return nil
}

func (c *Console) findMoviesByGenre(ctx context.Context) error {
	genre, err := c.ask(ctx, "Enter genre:")
	if err != nil {
		return err
	}
	movies, err := c.movies.FindAllByGenre(ctx, genre)
	if err != nil {
		return err
	}
	c.printMovies(movies)
	return nil
}

func (c *Console) findMoviesByDirector(ctx context.Context) error {
	director, err := c.ask(ctx, "Enter director:")
	if err != nil {
		return err
	}
	movies, err := c.movies.FindAllByDirector(ctx, director)
	if err != nil {
		return err
	}
	c.printMovies(movies)
	return nil
}

func (c *Console) findMoviesCollectionGreaterThan(ctx context.Context) error {
	threshold, err := c.askInt64(ctx, "Enter collection threshold:")
	if err != nil {
		return err
	}
	movies, err := c.movies.FindAllCollectionGreaterThan(ctx, threshold)
	if err != nil {
		return err
	}
	c.printMovies(movies)
	return nil
}

func (c *Console) updateCollectionByVerdict(ctx context.Context) error {
	verdict, err := c.ask(ctx, "Enter verdict:")
	if err != nil {
		return err
	}
	increment, err := c.askInt64(ctx, "Enter collection increment:")
	if err != nil {
		return err
	}
	n, err := c.movies.UpdateCollectionByVerdict(ctx, verdict, increment)
	if err != nil {
		return err
	}
	c.printCount("Updated", n)
	return nil
}

func (c *Console) findMoviesByActorID(ctx context.Context) error {
	actorID, err := c.askInt(ctx, "Enter actor ID:")
	if err != nil {
		return err
	}
	movies, err := c.movies.FindAllByActorID(ctx, actorID)
	if err != nil {
		return err
	}
	c.printMovies(movies)
	return nil
}

func (c *Console) deleteMoviesByActorName(ctx context.Context) error {
	name, err := c.ask(ctx, "Enter actor name:")
	if err != nil {
		return err
	}
	n, err := c.movies.DeleteAllByActorName(ctx, name)
	if err != nil {
		return err
	}
	c.printCount("Deleted", n)
	return nil
}

func (c *Console) deleteMoviesCollectionLessThan(ctx context.Context) error {
	threshold, err := c.askInt64(ctx, "Enter collection threshold:")
	if err != nil {
		return err
	}
	n, err := c.movies.DeleteAllWithCollectionLessThan(ctx, threshold)
	if err != nil {
		return err
	}
	c.printCount("Deleted", n)
	return nil
}

func (c *Console) listActors(ctx context.Context) error {
	actors, err := c.allActors(ctx)
	if err != nil {
		return err
	}
	c.printActors(actors)
	return nil
}

func (c *Console) listMovies(ctx context.Context) error {
	movies, err := c.allMovies(ctx)
	if err != nil {
		return err
	}
	c.printMovies(movies)
	return nil
}

// allActors walks the keyset pages until a short page comes back.
func (c *Console) allActors(ctx context.Context) ([]domain.Actor, error) {
	var all []domain.Actor
	page := repository.Page{Limit: listPageSize}
	for {
		batch, err := c.actors.List(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < listPageSize {
			return all, nil
		}
		page.AfterID = batch[len(batch)-1].ID
	}
}

func (c *Console) allMovies(ctx context.Context) ([]domain.Movie, error) {
	var all []domain.Movie
	page := repository.Page{Limit: listPageSize}
	for {
		batch, err := c.movies.List(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < listPageSize {
			return all, nil
		}
		page.AfterID = batch[len(batch)-1].MovieID
	}
}
