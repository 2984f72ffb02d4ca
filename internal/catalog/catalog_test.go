package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investpulse/internal/models"
	"investpulse/internal/store"
)

func TestLoadSeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	c, err := Load(ctx, st, nil, DefaultSecurities())
	require.NoError(t, err)

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "AAPL", list[0].Ticker)
	assert.Equal(t, "GAZP", list[1].Ticker)

	persisted, err := st.ListSecurities(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)

	// A second load must not seed again.
	again, err := Load(ctx, st, nil, DefaultSecurities())
	require.NoError(t, err)
	assert.Len(t, again.List(), 2)
}

func TestLoadKeepsExistingSecurities(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_, err := st.CreateSecurity(ctx, models.Security{ID: 7, Ticker: "MSFT", Name: "Microsoft", CurrentPrice: decimal.NewFromInt(400)})
	require.NoError(t, err)

	c, err := Load(ctx, st, nil, DefaultSecurities())
	require.NoError(t, err)

	_, ok := c.Find(1)
	assert.False(t, ok)
	sec, ok := c.Find(7)
	require.True(t, ok)
	assert.Equal(t, "MSFT", sec.Ticker)

	byTicker, ok := c.FindByTicker(" msft")
	require.True(t, ok)
	assert.Equal(t, int64(7), byTicker.ID)
}

func TestUpdatePrice(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	bus := EventBus.New()

	var (
		mu      sync.Mutex
		updates []models.PriceUpdate
	)
	require.NoError(t, bus.Subscribe(PriceUpdatedTopic, func(u models.PriceUpdate) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	}))

	c, err := Load(ctx, st, bus, DefaultSecurities())
	require.NoError(t, err)

	sec, err := c.UpdatePrice(ctx, 1, decimal.RequireFromString("145.0"))
	require.NoError(t, err)
	assert.True(t, sec.CurrentPrice.Equal(decimal.NewFromInt(145)))

	found, _ := c.Find(1)
	assert.True(t, found.CurrentPrice.Equal(decimal.NewFromInt(145)))

	persisted, err := st.ListSecurities(ctx)
	require.NoError(t, err)
	assert.True(t, persisted[0].CurrentPrice.Equal(decimal.NewFromInt(145)))

	mu.Lock()
	require.Len(t, updates, 1)
	assert.Equal(t, "AAPL", updates[0].Ticker)
	assert.True(t, updates[0].OldPrice.Equal(decimal.NewFromInt(170)))
	assert.True(t, updates[0].NewPrice.Equal(decimal.NewFromInt(145)))
	mu.Unlock()
}

func TestUpdatePriceRejects(t *testing.T) {
	ctx := context.Background()
	c, err := Load(ctx, store.NewMemoryStore(), nil, DefaultSecurities())
	require.NoError(t, err)

	_, err = c.UpdatePrice(ctx, 1, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = c.UpdatePrice(ctx, 1, decimal.NewFromInt(-3))
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = c.UpdatePrice(ctx, 42, decimal.NewFromInt(3))
	assert.ErrorIs(t, err, ErrNotFound)

	sec, _ := c.Find(1)
	assert.True(t, sec.CurrentPrice.Equal(decimal.NewFromInt(170)), "price must be unchanged")
}

type failingStore struct {
	*store.MemoryStore
}

func (failingStore) UpdateSecurityPrice(context.Context, int64, decimal.Decimal) error {
	return errors.New("disk full")
}

func TestUpdatePriceStoreFailureLeavesPrice(t *testing.T) {
	ctx := context.Background()
	c, err := Load(ctx, failingStore{store.NewMemoryStore()}, nil, DefaultSecurities())
	require.NoError(t, err)

	_, err = c.UpdatePrice(ctx, 1, decimal.NewFromInt(1))
	require.Error(t, err)

	sec, _ := c.Find(1)
	assert.True(t, sec.CurrentPrice.Equal(decimal.NewFromInt(170)))
}

func TestLoadRejectsNonPositiveStoredPrice(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_, err := st.CreateSecurity(ctx, models.Security{ID: 3, Ticker: "ZERO", Name: "Zero Corp", CurrentPrice: decimal.Zero})
	require.NoError(t, err)

	_, err = Load(ctx, st, nil, DefaultSecurities())
	require.ErrorIs(t, err, ErrInvalidPrice)
	assert.Contains(t, err.Error(), "ZERO")
}
