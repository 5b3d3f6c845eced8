package domain

// Quote is an inspirational quote and its author.
type Quote struct {
	ID     int    `json:"id"`
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

func (q Quote) GetID() int { return q.ID }

func (q Quote) WithID(id int) Quote {
	q.ID = id
	return q
}

// MatchesTerm reports whether term appears in the quote or its author,
// ignoring case.
func (q Quote) MatchesTerm(term string) bool {
	return containsFold(q.Quote, term) || containsFold(q.Author, term)
}
