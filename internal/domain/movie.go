package domain

// Movie represents a film row. MovieID is assigned by the caller, not the store.
type Movie struct {
	MovieID    int     `json:"movieId"`
	Name       string  `json:"movieName"`
	Director   string  `json:"movieDirector"`
	Genre      string  `json:"genre"`
	Verdict    string  `json:"verdict"`
	Collection int64   `json:"collection"`
	Actors     []Actor `json:"actors"`
}

// ActorIDs lists the identifiers of the movie's loaded cast.
func (m Movie) ActorIDs() []int {
	ids := make([]int, 0, len(m.Actors))
	for _, a := range m.Actors {
		ids = append(ids, a.ID)
	}
	return ids
}

// Shallow returns a copy without the cast so it can be nested inside an Actor.
func (m Movie) Shallow() Movie {
	m.Actors = []Actor{}
	return m
}
