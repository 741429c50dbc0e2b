package repository

import (
	"math"
	"strings"

	"github.com/Clark-Hu/cinecast/internal/domain"
)

// maxInt4 is the largest value an INTEGER column holds. Larger arguments are
// rejected here since pgx cannot encode them.
const maxInt4 = math.MaxInt32

func requireID(field string, id int) error {
	if id <= 0 {
		return domain.Invalid(field, "must be positive, got %d", id)
	}
	if id > maxInt4 {
		return domain.Invalid(field, "must not exceed %d, got %d", maxInt4, id)
	}
	return nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.Invalid(field, "is required")
	}
	return nil
}

func requireIDs(field string, ids []int) error {
	for _, id := range ids {
		if id <= 0 {
			return domain.Invalid(field, "contains non-positive id %d", id)
		}
		if id > maxInt4 {
			return domain.Invalid(field, "contains out of range id %d", id)
		}
	}
	return nil
}

func validateActor(a domain.Actor) error {
	if a.ID < 0 {
		return domain.Invalid("id", "must not be negative, got %d", a.ID)
	}
	if a.ID > maxInt4 {
		return domain.Invalid("id", "must not exceed %d, got %d", maxInt4, a.ID)
	}
	if err := requireText("name", a.Name); err != nil {
		return err
	}
	if a.Age < 0 {
		return domain.Invalid("age", "must not be negative, got %d", a.Age)
	}
	if a.Age > maxInt4 {
		return domain.Invalid("age", "must not exceed %d, got %d", maxInt4, a.Age)
	}
	if a.Salary < 0 {
		return domain.Invalid("salary", "must not be negative, got %v", a.Salary)
	}
	return requireIDs("movies", a.MovieIDs())
}

func validateMovie(m domain.Movie, actorIDs []int) error {
	if err := requireID("movieId", m.MovieID); err != nil {
		return err
	}
	if err := requireText("movieName", m.Name); err != nil {
		return err
	}
	return requireIDs("actorIds", actorIDs)
}

// Page bounds a keyset-paginated listing.
type Page struct {
	AfterID int
	Limit   int
}

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = 20
	} else if p.Limit > 100 {
		p.Limit = 100
	}
	if p.AfterID < 0 {
		p.AfterID = 0
	} else if p.AfterID > maxInt4 {
		p.AfterID = maxInt4
	}
	return p
}

// difference returns the members of want missing from got, preserving order.
func difference(want, got []int) []int {
	seen := make(map[int]struct{}, len(got))
	for _, id := range got {
		seen[id] = struct{}{}
	}
	var out []int
	for _, id := range want {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
