// Package memory is an in-process store with the same semantics as the
// Postgres repository. It backs service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
)

type portfolioKey struct {
	ownerID     string
	portfolioID string
}

type positionKey struct {
	portfolioKey
	ticker string
}

type Store struct {
	mu         sync.Mutex
	portfolios map[portfolioKey]model.Portfolio
	positions  map[positionKey]model.Position
	// FailInsert makes InsertPositionIfAbsent fail for the listed tickers.
	FailInsert map[string]error
	now        func() time.Time
}

func New() *Store {
	return &Store{
		portfolios: make(map[portfolioKey]model.Portfolio),
		positions:  make(map[positionKey]model.Position),
		FailInsert: make(map[string]error),
		now:        time.Now,
	}
}

func (s *Store) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	return tFunc(ctx)
}

func (s *Store) EnsurePortfolio(_ context.Context, portfolio model.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := portfolioKey{portfolio.OwnerID, portfolio.PortfolioID}
	if _, ok := s.portfolios[key]; !ok {
		portfolio.CreatedAt = s.now()
		portfolio.UpdatedAt = portfolio.CreatedAt
		s.portfolios[key] = portfolio
	}
	return nil
}

func (s *Store) InsertPortfolio(_ context.Context, portfolio model.Portfolio) (model.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := portfolioKey{portfolio.OwnerID, portfolio.PortfolioID}
	if _, ok := s.portfolios[key]; ok {
		return model.Portfolio{}, repository.ErrAlreadyExists
	}
	portfolio.CreatedAt = s.now()
	portfolio.UpdatedAt = portfolio.CreatedAt
	s.portfolios[key] = portfolio
	return portfolio, nil
}

func (s *Store) GetPortfolio(_ context.Context, ownerID, portfolioID string) (model.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.portfolios[portfolioKey{ownerID, portfolioID}]
	if !ok {
		return model.Portfolio{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPortfolios(_ context.Context, ownerID string) ([]model.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]model.Portfolio, 0)
	for key, p := range s.portfolios {
		if key.ownerID == ownerID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return res[i].PortfolioID < res[j].PortfolioID
	})
	return res, nil
}

func (s *Store) UpdatePortfolio(_ context.Context, ownerID, portfolioID string, name, description *string) (model.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := portfolioKey{ownerID, portfolioID}
	p, ok := s.portfolios[key]
	if !ok {
		return model.Portfolio{}, repository.ErrNotFound
	}
	if name != nil {
		p.Name = *name
	}
	if description != nil {
		p.Description = *description
	}
	p.UpdatedAt = s.now()
	s.portfolios[key] = p
	return p, nil
}

func (s *Store) DeletePortfolio(_ context.Context, ownerID, portfolioID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := portfolioKey{ownerID, portfolioID}
	if _, ok := s.portfolios[key]; !ok {
		return repository.ErrNotFound
	}
	delete(s.portfolios, key)
	for pk := range s.positions {
		if pk.portfolioKey == key {
			delete(s.positions, pk)
		}
	}
	return nil
}

func (s *Store) GetPositions(_ context.Context, ownerID, portfolioID string) ([]model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := portfolioKey{ownerID, portfolioID}
	res := make([]model.Position, 0)
	for pk, p := range s.positions {
		if pk.portfolioKey == key {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Ticker < res[j].Ticker })
	return res, nil
}

func (s *Store) GetPosition(_ context.Context, ownerID, portfolioID, ticker string) (model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[positionKey{portfolioKey{ownerID, portfolioID}, ticker}]
	if !ok {
		return model.Position{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *Store) InsertPositionIfAbsent(_ context.Context, position model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.FailInsert[position.Ticker]; ok {
		return err
	}

	key := positionKey{portfolioKey{position.OwnerID, position.PortfolioID}, position.Ticker}
	if _, ok := s.positions[key]; ok {
		return repository.ErrAlreadyExists
	}
	position.CreatedAt = s.now()
	position.UpdatedAt = position.CreatedAt
	s.positions[key] = position
	return nil
}

func (s *Store) UpdatePosition(_ context.Context, ownerID, portfolioID, ticker string, changes model.PositionChanges) (model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := positionKey{portfolioKey{ownerID, portfolioID}, ticker}
	p, ok := s.positions[key]
	if !ok {
		return model.Position{}, repository.ErrNotFound
	}
	if changes.Shares != nil {
		p.Shares = *changes.Shares
	}
	if changes.PurchasePrice != nil {
		p.PurchasePrice = *changes.PurchasePrice
	}
	if changes.PurchaseDate != nil {
		p.PurchaseDate = *changes.PurchaseDate
	}
	if changes.Notes != nil {
		p.Notes = *changes.Notes
	}
	p.UpdatedAt = s.now()
	s.positions[key] = p
	return p, nil
}

func (s *Store) DeletePosition(_ context.Context, ownerID, portfolioID, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := positionKey{portfolioKey{ownerID, portfolioID}, ticker}
	if _, ok := s.positions[key]; !ok {
		return repository.ErrNotFound
	}
	delete(s.positions, key)
	return nil
}

func (s *Store) GetHeldTickers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	res := make([]string, 0)
	for _, p := range s.positions {
		if _, ok := seen[p.Ticker]; !ok {
			seen[p.Ticker] = struct{}{}
			res = append(res, p.Ticker)
		}
	}
	sort.Strings(res)
	return res, nil
}

func (s *Store) UpdateCurrentPrices(_ context.Context, prices map[string]decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, p := range s.positions {
		if price, ok := prices[p.Ticker]; ok {
			p.CurrentPrice = &price
			s.positions[key] = p
		}
	}
	return nil
}
