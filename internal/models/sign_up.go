package models

// SignUp is a validated and normalized landing page submission.
type SignUp struct {
	Name  string
	Email string
}
