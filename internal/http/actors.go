package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Clark-Hu/cinecast/internal/domain"
)

type actorRequest struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Age         int     `json:"age"`
	Industry    string  `json:"industry"`
	Salary      float64 `json:"salary"`
	Nationality string  `json:"nationality"`
	MovieIDs    []int   `json:"movieIds"`
}

type nationalityRequest struct {
	Nationality string `json:"nationality"`
}

func (req actorRequest) toDomain() domain.Actor {
	actor := domain.Actor{
		ID:          req.ID,
		Name:        strings.TrimSpace(req.Name),
		Age:         req.Age,
		Industry:    strings.TrimSpace(req.Industry),
		Salary:      req.Salary,
		Nationality: strings.TrimSpace(req.Nationality),
	}
	if req.MovieIDs != nil {
		actor.Movies = make([]domain.Movie, 0, len(req.MovieIDs))
		for _, id := range req.MovieIDs {
			actor.Movies = append(actor.Movies, domain.Movie{MovieID: id})
		}
	}
	return actor
}

func (s *Server) handleAddActor(w http.ResponseWriter, r *http.Request) {
	var req actorRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	actor, err := s.repo.Actors.Add(r.Context(), req.toDomain())
	if err != nil {
		s.respondRepoError(w, "add actor", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/actors/%d", actor.ID))
	s.respondJSON(w, http.StatusCreated, actor)
}

func (s *Server) handleGetActor(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	actor, err := s.repo.Actors.FindByID(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, "find actor", err)
		return
	}
	s.respondJSON(w, http.StatusOK, actor)
}

func (s *Server) handleFindActors(w http.ResponseWriter, r *http.Request) {
	filter, err := buildActorFilter(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var actors []domain.Actor
	ctx := r.Context()
	switch filter.Kind {
	case byName:
		actors, err = s.repo.Actors.FindByName(ctx, filter.Text)
	case byIndustry:
		actors, err = s.repo.Actors.FindByIndustry(ctx, filter.Text)
	case byAge:
		actors, err = s.repo.Actors.FindBetweenAge(ctx, filter.MinAge, filter.MaxAge)
	case byMovie:
		actors, err = s.repo.Actors.FindAllByMovieName(ctx, filter.Text)
	default:
		actors, err = s.repo.Actors.List(ctx, filter.Page)
	}
	if err != nil {
		s.respondRepoError(w, "find actors", err)
		return
	}
	s.respondJSON(w, http.StatusOK, listResponse[domain.Actor]{Items: actors})
}

func (s *Server) handleUpdateNationality(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var req nationalityRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	n, err := s.repo.Actors.UpdateNationalityByID(r.Context(), id, strings.TrimSpace(req.Nationality))
	if err != nil {
		s.respondRepoError(w, "update nationality", err)
		return
	}
	s.respondJSON(w, http.StatusOK, countResponse{Count: n})
}

func (s *Server) handleDeleteActors(w http.ResponseWriter, r *http.Request) {
	deletion, err := buildActorDeletion(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var n int64
	if deletion.ByMovie {
		n, err = s.repo.Actors.DeleteAllByMovieName(r.Context(), deletion.Value)
	} else {
		n, err = s.repo.Actors.DeleteAllByIndustry(r.Context(), deletion.Value)
	}
	if err != nil {
		s.respondRepoError(w, "delete actors", err)
		return
	}
	s.respondJSON(w, http.StatusOK, countResponse{Count: n})
}
