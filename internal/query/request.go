package query

// GenerateRequest is the body of POST /generate. A missing searchResults
// field decodes to the empty string.
type GenerateRequest struct {
	Query         string `json:"query"`
	SearchResults string `json:"searchResults"`
}

func (r GenerateRequest) Validate() error {
	if r.Query == "" {
		return ValidationError(ErrEmptyInput)
	}
	return nil
}

// Response is the body of every /generate reply: the answer on success, the
// error message otherwise.
type Response struct {
	Result string `json:"result"`
}
