package dbModel

import "time"

type Portfolio struct {
	OwnerID     string    `db:"owner_id"`
	PortfolioID string    `db:"portfolio_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
