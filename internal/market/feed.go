package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"investpulse/internal/models"
)

type Quoter interface {
	Quote(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// PriceSink is the catalog side of the feed.
type PriceSink interface {
	List() []models.Security
	UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (models.Security, error)
}

// Feed keeps catalog prices current by polling a Quoter.
type Feed struct {
	quotes  Quoter
	catalog PriceSink
}

func NewFeed(quotes Quoter, catalog PriceSink) *Feed {
	return &Feed{quotes: quotes, catalog: catalog}
}

// Refresh quotes every security once and returns how many prices changed.
// Failures for single tickers do not stop the others; they are returned
// joined.
func (f *Feed) Refresh(ctx context.Context) (int, error) {
	var (
		changed int
		errs    []error
	)
	for _, sec := range f.catalog.List() {
		price, err := f.quotes.Quote(ctx, sec.Ticker)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if price.Equal(sec.CurrentPrice) {
			continue
		}
		if _, err := f.catalog.UpdatePrice(ctx, sec.ID, price); err != nil {
			errs = append(errs, fmt.Errorf("update %s: %w", sec.Ticker, err))
			continue
		}
		changed++
	}
	return changed, errors.Join(errs...)
}

// Run refreshes immediately and then on every tick until ctx is done.
func (f *Feed) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	f.refreshAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.refreshAndLog(ctx)
		}
	}
}

func (f *Feed) refreshAndLog(ctx context.Context) {
	changed, err := f.Refresh(ctx)
	entry := log.WithField("changed", changed)
	if err != nil {
		entry.WithError(err).Warn("price refresh incomplete")
		return
	}
	entry.Debug("price refresh done")
}
