package models

import "time"

type Status string

// The sign-up flow only writes StatusSubscribed; opt-outs are recorded outside this service.
const (
	StatusSubscribed   Status = "subscribed"
	StatusUnsubscribed Status = "unsubscribed"
)

const (
	// DefaultSource tags sign-ups coming from the ebook landing page.
	DefaultSource = "ebook-landing"

	MaxNameLength = 120
)

// Subscriber is a single newsletter subscriber keyed by normalized email.
type Subscriber struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
