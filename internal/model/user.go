package model

import "time"

// User is a staff account allowed to log in. All users have the same privileges.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
