package enricher

import (
	"fmt"
	"strings"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
)

// Enrich fills the price gaps of a resolved candidate and records what was
// inferred, both as warnings for the caller and as provenance in the notes.
func Enrich(candidate model.Candidate, resolution model.Resolution, source, importDate string) model.ImportLot {
	lot := model.ImportLot{
		Row: candidate.Row,
		Position: model.Position{
			Ticker:        resolution.Ticker,
			Shares:        candidate.Shares,
			PurchasePrice: candidate.PurchasePrice,
			PurchaseDate:  candidate.PurchaseDate,
		},
	}

	notes := []string{fmt.Sprintf("Imported from %s on %s", source, importDate)}

	if resolution.LookedUpFrom != "" {
		lot.Warnings = append(lot.Warnings, fmt.Sprintf("looked up ticker %s for company name %s", resolution.Ticker, resolution.LookedUpFrom))
		notes = append(notes, fmt.Sprintf("ticker looked up from company name %s", resolution.LookedUpFrom))
	}

	if resolution.Quote != nil {
		price := resolution.Quote.Price
		if lot.Position.PurchasePrice.IsZero() {
			lot.Position.PurchasePrice = price
			lot.Warnings = append(lot.Warnings, fmt.Sprintf("used current price as purchase price was missing for %s", resolution.Ticker))
			notes = append(notes, "purchase price taken from current quote")
		}
		lot.Position.CurrentPrice = &price
	} else {
		// imported lots are always priced; a refresh job replaces this later
		price := lot.Position.PurchasePrice
		lot.Position.CurrentPrice = &price
	}

	lot.Position.Notes = strings.Join(notes, "; ")

	return lot
}
