// Package console implements the interactive numbered menu over the actor and
// movie access layer.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/Clark-Hu/cinecast/internal/domain"
	"github.com/Clark-Hu/cinecast/internal/repository"
)

// Actors is the subset of the actor repository the console drives.
type Actors interface {
	Add(ctx context.Context, actor domain.Actor) (domain.Actor, error)
	FindByID(ctx context.Context, id int) (domain.Actor, error)
	FindByName(ctx context.Context, name string) ([]domain.Actor, error)
	FindByIndustry(ctx context.Context, industry string) ([]domain.Actor, error)
	FindBetweenAge(ctx context.Context, minAge, maxAge int) ([]domain.Actor, error)
	FindAllByMovieName(ctx context.Context, movieName string) ([]domain.Actor, error)
	UpdateAllSalaryByMovieID(ctx context.Context, movieID int, salary float64) (int64, error)
	UpdateNationalityByID(ctx context.Context, id int, nationality string) (int64, error)
	DeleteAllByIndustry(ctx context.Context, industry string) (int64, error)
	DeleteAllByMovieName(ctx context.Context, movieName string) (int64, error)
	List(ctx context.Context, page repository.Page) ([]domain.Actor, error)
}

// Movies is the subset of the movie repository the console drives.
type Movies interface {
	Add(ctx context.Context, movie domain.Movie, actorIDs []int) (domain.Movie, error)
	FindByName(ctx context.Context, name string) ([]domain.Movie, error)
	FindAllByGenre(ctx context.Context, genre string) ([]domain.Movie, error)
	FindAllByDirector(ctx context.Context, director string) ([]domain.Movie, error)
	FindAllCollectionGreaterThan(ctx context.Context, threshold int64) ([]domain.Movie, error)
	UpdateCollectionByVerdict(ctx context.Context, verdict string, increment int64) (int64, error)
	FindAllByActorID(ctx context.Context, actorID int) ([]domain.Movie, error)
	DeleteAllByActorName(ctx context.Context, actorName string) (int64, error)
	DeleteAllWithCollectionLessThan(ctx context.Context, threshold int64) (int64, error)
	List(ctx context.Context, page repository.Page) ([]domain.Movie, error)
}

// errInput marks a malformed answer to a prompt.
var errInput = errors.New("invalid input")

// listPageSize is the page size used when walking full listings.
const listPageSize = 100

type command struct {
	label string
	run   func(ctx context.Context) error
}

// Console reads menu choices and prompt answers line by line from in and
// writes results to out.
type Console struct {
	actors   Actors
	movies   Movies
	in       *bufio.Scanner
	lines    chan string
	scanErr  error
	out      io.Writer
	logger   *zap.Logger
	commands []command
}

// New builds a console over the given repositories.
func New(actors Actors, movies Movies, in io.Reader, out io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Console{
		actors: actors,
		movies: movies,
		in:     bufio.NewScanner(in),
		lines:  make(chan string),
		out:    out,
		logger: logger.Named("console"),
	}
	c.commands = []command{
		{"Add Actor", c.addActor},
		{"Find Actor by ID", c.findActorByID},
		{"Find Actor by Name", c.findActorByName},
		{"Find Actor by Industry", c.findActorByIndustry},
		{"Find Actor Between Age", c.findActorBetweenAge},
		{"Find All Actors by Movie Name", c.findActorsByMovieName},
		{"Update All Actor Salary by Movie ID", c.updateSalaryByMovieID},
		{"Update Actor Nationality by ID", c.updateNationalityByID},
		{"Delete All Actors by Industry", c.deleteActorsByIndustry},
		{"Delete All Actors by Movie Name", c.deleteActorsByMovieName},
		{"Add Movie", c.addMovie},
		{"Find Movie by Name", c.findMovieByName},
		{"Find All Movies by Genre", c.findMoviesByGenre},
		{"Find All Movies by Director", c.findMoviesByDirector},
		{"Find All Movies with Collection Greater Than", c.findMoviesCollectionGreaterThan},
		{"Update Movie Collection by Verdict", c.updateCollectionByVerdict},
		{"Find All Movies by Actor ID", c.findMoviesByActorID},
		{"Delete All Movies by Actor Name", c.deleteMoviesByActorName},
		{"Delete All Movies with Collection Less Than", c.deleteMoviesCollectionLessThan},
		{"List Actors", c.listActors},
		{"List Movies", c.listMovies},
	}
	go c.scan()
	return c
}

// scan feeds input lines to readLine so a pending prompt can be abandoned
// when the context ends.
func (c *Console) scan() {
	defer close(c.lines)
	for c.in.Scan() {
		c.lines <- strings.TrimSpace(c.in.Text())
	}
	c.scanErr = c.in.Err()
}

// Run shows the menu until the user exits, input ends or ctx is cancelled,
// including while a prompt is waiting for input. Failed operations are
// reported and the menu is shown again.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.printMenu()

		line, err := c.readLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		choice, err := strconv.Atoi(line)
		if err != nil || choice < 0 || choice > len(c.commands) {
			fmt.Fprintln(c.out, "Invalid choice. Please try again.")
			continue
		}
		if choice == 0 {
			return nil
		}

		cmd := c.commands[choice-1]
		if err := cmd.run(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.logger.Debug("command failed", zap.String("command", cmd.label), zap.Error(err))
			fmt.Fprintf(c.out, "Error: %s\n", describe(err))
		}
	}
}

func (c *Console) printMenu() {
	fmt.Fprintln(c.out, "Choose an option:")
	for i, cmd := range c.commands {
		fmt.Fprintf(c.out, "%d. %s\n", i+1, cmd.label)
	}
	fmt.Fprintln(c.out, "0. Exit")
}

func describe(err error) string {
	var v *domain.ValidationError
	switch {
	case errors.As(err, &v):
		return v.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "no such record"
	default:
		return err.Error()
	}
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			if c.scanErr != nil {
				return "", c.scanErr
			}
			return "", io.EOF
		}
		return line, nil
	}
}

func (c *Console) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprintln(c.out, prompt)
	return c.readLine(ctx)
}

func (c *Console) askInt(ctx context.Context, prompt string) (int, error) {
	line, err := c.ask(ctx, prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", errInput, line)
	}
	return n, nil
}

func (c *Console) askInt64(ctx context.Context, prompt string) (int64, error) {
	line, err := c.ask(ctx, prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", errInput, line)
	}
	return n, nil
}

func (c *Console) askFloat(ctx context.Context, prompt string) (float64, error) {
	line, err := c.ask(ctx, prompt)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errInput, line)
	}
	return f, nil
}

// askIDs reads a comma-separated id list. A blank answer yields an empty list.
func (c *Console) askIDs(ctx context.Context, prompt string) ([]int, error) {
	line, err := c.ask(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseIDs(line)
}

func parseIDs(line string) ([]int, error) {
	ids := []int{}
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an id", errInput, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Console) printActors(actors []domain.Actor) {
	if len(actors) == 0 {
		fmt.Fprintln(c.out, "No actors found.")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAGE\tINDUSTRY\tSALARY\tNATIONALITY\tMOVIES")
	for _, a := range actors {
		titles := make([]string, 0, len(a.Movies))
		for _, m := range a.Movies {
			titles = append(titles, m.Name)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%.2f\t%s\t%s\n", a.ID, a.Name, a.Age, a.Industry, a.Salary, a.Nationality, strings.Join(titles, ", "))
	}
	_ = tw.Flush()
}

func (c *Console) printMovies(movies []domain.Movie) {
	if len(movies) == 0 {
		fmt.Fprintln(c.out, "No movies found.")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDIRECTOR\tGENRE\tVERDICT\tCOLLECTION\tACTORS")
	for _, m := range movies {
		names := make([]string, 0, len(m.Actors))
		for _, a := range m.Actors {
			names = append(names, a.Name)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n", m.MovieID, m.Name, m.Director, m.Genre, m.Verdict, m.Collection, strings.Join(names, ", "))
	}
	_ = tw.Flush()
}

func (c *Console) printCount(verb string, n int64) {
	fmt.Fprintf(c.out, "%s %d row(s).\n", verb, n)
}
