package domain

import "time"

// Department is a unit tickets are filed against. Departments are disabled, never deleted.
type Department struct {
	ID          int64
	Name        string
	Manager     string
	Email       string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}
