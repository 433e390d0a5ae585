package models

// AuthorSummary is the display data the users service returns for a user.
type AuthorSummary struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
}

// PostWithAuthor pairs a post with its owner's display data. Author is nil
// when the users service could not be reached; the post still counts.
type PostWithAuthor struct {
	Post   Post           `json:"post"`
	Author *AuthorSummary `json:"author,omitempty"`
}
