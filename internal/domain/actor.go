package domain

// Actor represents a performer row. ID is assigned by the store on insert; a
// caller that pre-sets it asks for the existing row to be merged over.
type Actor struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Age         int     `json:"age"`
	Industry    string  `json:"industry"`
	Salary      float64 `json:"salary"`
	Nationality string  `json:"nationality"`
	Movies      []Movie `json:"movies"`
}

// MovieIDs lists the identifiers of the actor's loaded movies.
func (a Actor) MovieIDs() []int {
	ids := make([]int, 0, len(a.Movies))
	for _, m := range a.Movies {
		ids = append(ids, m.MovieID)
	}
	return ids
}

// Shallow returns a copy without the filmography so it can be nested inside a Movie.
func (a Actor) Shallow() Actor {
	a.Movies = []Movie{}
	return a
}
