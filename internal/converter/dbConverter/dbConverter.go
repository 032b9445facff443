package dbConverter

import (
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/dbModel"
)

func ConvertPosition(dbPosition dbModel.Position) model.Position {
	position := model.Position{
		OwnerID:       dbPosition.OwnerID,
		PortfolioID:   dbPosition.PortfolioID,
		Ticker:        dbPosition.Ticker,
		Shares:        dbPosition.Shares,
		PurchasePrice: dbPosition.PurchasePrice,
		PurchaseDate:  dbPosition.PurchaseDate,
		Notes:         dbPosition.Notes,
		CreatedAt:     dbPosition.CreatedAt,
		UpdatedAt:     dbPosition.UpdatedAt,
	}

	if dbPosition.CurrentPrice.Valid {
		price := dbPosition.CurrentPrice.Decimal
		position.CurrentPrice = &price
	}

	return position
}

func ConvertPortfolio(dbPortfolio dbModel.Portfolio) model.Portfolio {
	return model.Portfolio{
		OwnerID:     dbPortfolio.OwnerID,
		PortfolioID: dbPortfolio.PortfolioID,
		Name:        dbPortfolio.Name,
		Description: dbPortfolio.Description,
		CreatedAt:   dbPortfolio.CreatedAt,
		UpdatedAt:   dbPortfolio.UpdatedAt,
	}
}
