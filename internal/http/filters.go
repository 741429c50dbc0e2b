package httpserver

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Clark-Hu/cinecast/internal/repository"
)

// Each finder route accepts exactly one predicate; no predicate lists a page.
const (
	byName       = "name"
	byIndustry   = "industry"
	byAge        = "age"
	byMovie      = "movie"
	byGenre      = "genre"
	byDirector   = "director"
	byCollection = "collection"
	byActor      = "actor"
	listAll      = "list"
)

type actorFilter struct {
	Kind   string
	Text   string
	MinAge int
	MaxAge int
	Page   repository.Page
}

type movieFilter struct {
	Kind      string
	Text      string
	Threshold int64
	ActorID   int
	Page      repository.Page
}

func buildActorFilter(query url.Values) (actorFilter, error) {
	var filter actorFilter

	present, err := singlePredicate(query, "name", "industry", "movie", "age")
	if err != nil {
		return filter, err
	}
	switch present {
	case "name":
		filter.Kind, filter.Text = byName, strings.TrimSpace(query.Get("name"))
	case "industry":
		filter.Kind, filter.Text = byIndustry, strings.TrimSpace(query.Get("industry"))
	case "movie":
		filter.Kind, filter.Text = byMovie, strings.TrimSpace(query.Get("movie"))
	case "age":
		filter.Kind = byAge
		if filter.MinAge, err = parseInt(query, "minAge"); err != nil {
			return filter, err
		}
		if filter.MaxAge, err = parseInt(query, "maxAge"); err != nil {
			return filter, err
		}
	default:
		filter.Kind = listAll
		if filter.Page, err = buildPage(query); err != nil {
			return filter, err
		}
	}
	return filter, nil
}

func buildMovieFilter(query url.Values) (movieFilter, error) {
	var filter movieFilter

	present, err := singlePredicate(query, "name", "genre", "director", "collectionGt", "actorId")
	if err != nil {
		return filter, err
	}
	switch present {
	case "name":
		filter.Kind, filter.Text = byName, strings.TrimSpace(query.Get("name"))
	case "genre":
		filter.Kind, filter.Text = byGenre, strings.TrimSpace(query.Get("genre"))
	case "director":
		filter.Kind, filter.Text = byDirector, strings.TrimSpace(query.Get("director"))
	case "collectionGt":
		filter.Kind = byCollection
		if filter.Threshold, err = parseInt64(query, "collectionGt"); err != nil {
			return filter, err
		}
	case "actorId":
		filter.Kind = byActor
		if filter.ActorID, err = parseInt(query, "actorId"); err != nil {
			return filter, err
		}
	default:
		filter.Kind = listAll
		if filter.Page, err = buildPage(query); err != nil {
			return filter, err
		}
	}
	return filter, nil
}

type actorDeletion struct {
	ByMovie bool
	Value   string
}

func buildActorDeletion(query url.Values) (actorDeletion, error) {
	present, err := singlePredicate(query, "industry", "movie")
	if err != nil {
		return actorDeletion{}, err
	}
	switch present {
	case "industry":
		return actorDeletion{Value: strings.TrimSpace(query.Get("industry"))}, nil
	case "movie":
		return actorDeletion{ByMovie: true, Value: strings.TrimSpace(query.Get("movie"))}, nil
	default:
		return actorDeletion{}, fmt.Errorf("one of industry or movie is required")
	}
}

type movieDeletion struct {
	ActorName    string
	CollectionLt *int64
}

func buildMovieDeletion(query url.Values) (movieDeletion, error) {
	present, err := singlePredicate(query, "actorName", "collectionLt")
	if err != nil {
		return movieDeletion{}, err
	}
	switch present {
	case "actorName":
		return movieDeletion{ActorName: strings.TrimSpace(query.Get("actorName"))}, nil
	case "collectionLt":
		threshold, err := parseInt64(query, "collectionLt")
		if err != nil {
			return movieDeletion{}, err
		}
		return movieDeletion{CollectionLt: &threshold}, nil
	default:
		return movieDeletion{}, fmt.Errorf("one of actorName or collectionLt is required")
	}
}

// singlePredicate returns which of keys is present in query. The pseudo-key
// "age" stands for the minAge/maxAge pair.
func singlePredicate(query url.Values, keys ...string) (string, error) {
	var found []string
	for _, key := range keys {
		if key == "age" {
			if query.Has("minAge") || query.Has("maxAge") {
				found = append(found, key)
			}
			continue
		}
		if query.Has(key) {
			found = append(found, key)
		}
	}
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("only one filter may be given, got %s", strings.Join(found, ", "))
	}
}

func buildPage(query url.Values) (repository.Page, error) {
	var page repository.Page
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil {
			return page, fmt.Errorf("invalid limit value")
		}
		page.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("after")); val != "" {
		after, err := strconv.Atoi(val)
		if err != nil || after < 0 {
			return page, fmt.Errorf("invalid after value")
		}
		page.AfterID = after
	}
	return page, nil
}

func parseInt(query url.Values, key string) (int, error) {
	val := strings.TrimSpace(query.Get(key))
	if val == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value", key)
	}
	return n, nil
}

func parseInt64(query url.Values, key string) (int64, error) {
	val := strings.TrimSpace(query.Get(key))
	if val == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value", key)
	}
	return n, nil
}
