// Package catalog holds the tradable securities and their current prices.
//
// Reads return copies, so a caller always sees one consistent price for a
// security. Prices change only through UpdatePrice, which writes through to
// the store and publishes a PriceUpdatedTopic event.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"investpulse/internal/models"
)

const PriceUpdatedTopic = "catalog:price-updated"

var (
	ErrNotFound     = errors.New("security not found")
	ErrInvalidPrice = errors.New("price must be positive")
)

// Store is the persistence the catalog needs.
type Store interface {
	ListSecurities(ctx context.Context) ([]models.Security, error)
	CreateSecurity(ctx context.Context, s models.Security) (models.Security, error)
	UpdateSecurityPrice(ctx context.Context, id int64, price decimal.Decimal) error
}

type Catalog struct {
	store Store
	bus   EventBus.Bus

	mu         sync.RWMutex
	securities map[int64]models.Security
}

// DefaultSecurities is the seed used when the store holds no securities.
func DefaultSecurities() []models.Security {
	return []models.Security{
		{ID: 1, Ticker: "AAPL", Name: "Apple Inc.", CurrentPrice: decimal.RequireFromString("170.0")},
		{ID: 2, Ticker: "GAZP", Name: "Газпром", CurrentPrice: decimal.RequireFromString("160.0")},
	}
}

// Load reads every security from st, seeding it with seed first when it is
// empty. bus may be nil, in which case price updates are not published.
func Load(ctx context.Context, st Store, bus EventBus.Bus, seed []models.Security) (*Catalog, error) {
	securities, err := st.ListSecurities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load securities: %w", err)
	}

	if len(securities) == 0 {
		for _, sec := range seed {
			if !sec.CurrentPrice.IsPositive() {
				return nil, fmt.Errorf("seed security %s: %w", sec.Ticker, ErrInvalidPrice)
			}
			created, err := st.CreateSecurity(ctx, sec)
			if err != nil {
				return nil, fmt.Errorf("seed security %s: %w", sec.Ticker, err)
			}
			securities = append(securities, created)
		}
		log.WithField("count", len(securities)).Info("seeded security catalog")
	}

	c := &Catalog{
		store:      st,
		bus:        bus,
		securities: make(map[int64]models.Security, len(securities)),
	}
	for _, sec := range securities {
		if !sec.CurrentPrice.IsPositive() {
			return nil, fmt.Errorf("load security %s: %w", sec.Ticker, ErrInvalidPrice)
		}
		c.securities[sec.ID] = sec
	}
	return c, nil
}

func (c *Catalog) Find(id int64) (models.Security, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sec, ok := c.securities[id]
	return sec, ok
}

func (c *Catalog) FindByTicker(ticker string) (models.Security, bool) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, sec := range c.securities {
		if sec.Ticker == ticker {
			return sec, true
		}
	}
	return models.Security{}, false
}

// List returns all securities ordered by id.
func (c *Catalog) List() []models.Security {
	c.mu.RLock()
	out := make([]models.Security, 0, len(c.securities))
	for _, sec := range c.securities {
		out = append(out, sec)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdatePrice sets the current price of a security. This is the entry point
// for the price feed and for manual corrections.
func (c *Catalog) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (models.Security, error) {
	if !price.IsPositive() {
		return models.Security{}, ErrInvalidPrice
	}

	c.mu.Lock()
	sec, ok := c.securities[id]
	if !ok {
		c.mu.Unlock()
		return models.Security{}, ErrNotFound
	}
	if err := c.store.UpdateSecurityPrice(ctx, id, price); err != nil {
		c.mu.Unlock()
		return models.Security{}, fmt.Errorf("persist price of %s: %w", sec.Ticker, err)
	}
	update := models.PriceUpdate{
		SecurityID: id,
		Ticker:     sec.Ticker,
		OldPrice:   sec.CurrentPrice,
		NewPrice:   price,
		UpdatedAt:  time.Now().UTC(),
	}
	sec.CurrentPrice = price
	c.securities[id] = sec
	c.mu.Unlock()

	log.WithFields(log.Fields{
		"security_id": id,
		"ticker":      sec.Ticker,
		"old_price":   update.OldPrice.String(),
		"new_price":   price.String(),
	}).Debug("security price updated")

	if c.bus != nil {
		c.bus.Publish(PriceUpdatedTopic, update)
	}
	return sec, nil
}
