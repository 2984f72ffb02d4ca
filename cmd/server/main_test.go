package main

import (
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investpulse/internal/catalog"
	"investpulse/internal/models"
)

func TestPriceUpdatesHandledInPublishOrder(t *testing.T) {
	bus := EventBus.New()
	var seen []int64
	require.NoError(t, subscribePriceUpdates(bus, func(u models.PriceUpdate) {
		if u.NewPrice.Equal(decimal.NewFromInt(1)) {
			time.Sleep(20 * time.Millisecond)
		}
		seen = append(seen, u.NewPrice.IntPart())
	}))

	for i := int64(1); i <= 10; i++ {
		bus.Publish(catalog.PriceUpdatedTopic, models.PriceUpdate{SecurityID: 1, NewPrice: decimal.NewFromInt(i)})
	}
	bus.WaitAsync()

	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, seen)
}
