package domain

import "time"

type Account struct {
	ID        string
	UserID    string
	Balance   Amount
	CreatedAt time.Time
	UpdatedAt time.Time
}
