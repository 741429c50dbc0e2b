package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/cinecast/internal/boxoffice"
	"github.com/Clark-Hu/cinecast/internal/domain"
)

type movieRequest struct {
	MovieID    int    `json:"movieId"`
	Name       string `json:"movieName"`
	Director   string `json:"movieDirector"`
	Genre      string `json:"genre"`
	Verdict    string `json:"verdict"`
	Collection int64  `json:"collection"`
	ActorIDs   []int  `json:"actorIds"`
}

type salaryRequest struct {
	Salary float64 `json:"salary"`
}

type collectionRequest struct {
	Verdict   string `json:"verdict"`
	Increment int64  `json:"increment"`
}

type syncResponse struct {
	Movie    domain.Movie `json:"movie"`
	Currency string       `json:"currency"`
	Source   string       `json:"source"`
	Updated  int64        `json:"updated"`
}

func (s *Server) handleAddMovie(w http.ResponseWriter, r *http.Request) {
	var req movieRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	movie := domain.Movie{
		MovieID:    req.MovieID,
		Name:       strings.TrimSpace(req.Name),
		Director:   strings.TrimSpace(req.Director),
		Genre:      strings.TrimSpace(req.Genre),
		Verdict:    strings.TrimSpace(req.Verdict),
		Collection: req.Collection,
	}
	stored, err := s.repo.Movies.Add(r.Context(), movie, req.ActorIDs)
	if err != nil {
		s.respondRepoError(w, "add movie", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/movies/%d", stored.MovieID))
	s.respondJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movie, err := s.repo.Movies.FindByID(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, "find movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, movie)
}

func (s *Server) handleFindMovies(w http.ResponseWriter, r *http.Request) {
	filter, err := buildMovieFilter(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var movies []domain.Movie
	ctx := r.Context()
	switch filter.Kind {
	case byName:
		movies, err = s.repo.Movies.FindByName(ctx, filter.Text)
	case byGenre:
		movies, err = s.repo.Movies.FindAllByGenre(ctx, filter.Text)
	case byDirector:
		movies, err = s.repo.Movies.FindAllByDirector(ctx, filter.Text)
	case byCollection:
		movies, err = s.repo.Movies.FindAllCollectionGreaterThan(ctx, filter.Threshold)
	case byActor:
		movies, err = s.repo.Movies.FindAllByActorID(ctx, filter.ActorID)
	default:
		movies, err = s.repo.Movies.List(ctx, filter.Page)
	}
	if err != nil {
		s.respondRepoError(w, "find movies", err)
		return
	}
	s.respondJSON(w, http.StatusOK, listResponse[domain.Movie]{Items: movies})
}

func (s *Server) handleUpdateActorSalary(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var req salaryRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	n, err := s.repo.Actors.UpdateAllSalaryByMovieID(r.Context(), id, req.Salary)
	if err != nil {
		s.respondRepoError(w, "update salaries", err)
		return
	}
	s.respondJSON(w, http.StatusOK, countResponse{Count: n})
}

func (s *Server) handleUpdateCollectionByVerdict(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	n, err := s.repo.Movies.UpdateCollectionByVerdict(r.Context(), strings.TrimSpace(req.Verdict), req.Increment)
	if err != nil {
		s.respondRepoError(w, "update collections", err)
		return
	}
	s.respondJSON(w, http.StatusOK, countResponse{Count: n})
}

func (s *Server) handleDeleteMovies(w http.ResponseWriter, r *http.Request) {
	deletion, err := buildMovieDeletion(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var n int64
	if deletion.CollectionLt != nil {
		n, err = s.repo.Movies.DeleteAllWithCollectionLessThan(r.Context(), *deletion.CollectionLt)
	} else {
		n, err = s.repo.Movies.DeleteAllByActorName(r.Context(), deletion.ActorName)
	}
	if err != nil {
		s.respondRepoError(w, "delete movies", err)
		return
	}
	s.respondJSON(w, http.StatusOK, countResponse{Count: n})
}

// handleSyncCollection replaces a movie's collection with the worldwide gross
// reported by the box office upstream.
func (s *Server) handleSyncCollection(w http.ResponseWriter, r *http.Request) {
	if s.boxOffice == nil {
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Box office source is not configured")
		return
	}
	id, err := decodeIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movie, err := s.repo.Movies.FindByID(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, "find movie", err)
		return
	}

	result, err := s.fetchBoxOffice(r.Context(), movie.Name)
	if err != nil {
		if errors.Is(err, boxoffice.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "UPSTREAM_NOT_FOUND", "Box office has no record for this movie")
			return
		}
		s.logger.Warn("boxoffice fetch failed", zap.String("movie", movie.Name), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Box office lookup failed")
		return
	}

	n, err := s.repo.Movies.SetCollection(r.Context(), movie.MovieID, result.Collection)
	if err != nil {
		s.respondRepoError(w, "set collection", err)
		return
	}
	if n == 0 {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Movie was removed during sync")
		return
	}
	movie.Collection = result.Collection

	s.respondJSON(w, http.StatusOK, syncResponse{
		Movie:    movie,
		Currency: result.Currency,
		Source:   result.Source,
		Updated:  n,
	})
}

func (s *Server) fetchBoxOffice(ctx context.Context, title string) (*boxoffice.Result, error) {
	timeout := time.Duration(s.cfg.BoxOfficeTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.boxOffice.Fetch(ctx, title)
}
