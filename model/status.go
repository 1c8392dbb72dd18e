package model

// Status is a post delivered by the stream. It only lives as long as the
// handler processing it.
type Status struct {
	ID     string
	Text   string
	Author User
	// Set when the status republishes another status (a retweet).
	IsReshare bool
}
