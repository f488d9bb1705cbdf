package domain

import "time"

// UserSummary is the public view of an account. The password hash never leaves the repository layer.
type UserSummary struct {
	ID         string    `json:"_id"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	ProfilePic string    `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
}
