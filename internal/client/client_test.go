package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investpulse/internal/api"
	"investpulse/internal/catalog"
	"investpulse/internal/ledger"
	"investpulse/internal/models"
	"investpulse/internal/realtime"
	"investpulse/internal/store"
	"investpulse/internal/triggers"
)

func setup(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	cat, err := catalog.Load(ctx, st, nil, catalog.DefaultSecurities())
	require.NoError(t, err)
	l, err := ledger.Load(ctx, cat, st)
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewServer(cat, l, triggers.NewService(l, cat), realtime.NewHub()).Handler())
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func draft(target string) models.OperationDraft {
	d := models.OperationDraft{
		SecurityID:            1,
		Quantity:              10,
		PurchasePricePerShare: decimal.RequireFromString("165"),
		Commission:            decimal.RequireFromString("5"),
	}
	if target != "" {
		d.TargetBuyPrice = decimal.NewNullDecimal(decimal.RequireFromString(target))
	}
	return d
}

func TestRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	securities, err := c.Securities(ctx)
	require.NoError(t, err)
	assert.Len(t, securities, 2)

	calc, err := c.Calculate(ctx, draft("150"))
	require.NoError(t, err)
	assert.True(t, calc.TotalCost.Equal(decimal.NewFromInt(1655)))

	added, err := c.AddOperation(ctx, draft("150"))
	require.NoError(t, err)
	assert.False(t, added.TriggerActivated)

	pending, err := c.PendingTriggers(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = c.SetPrice(ctx, "AAPL", decimal.RequireFromString("149.99"))
	require.NoError(t, err)

	activated, err := c.ActivatedTriggers(ctx)
	require.NoError(t, err)
	require.Len(t, activated, 1)
	assert.Equal(t, added.Operation.ID, activated[0].OperationID)

	ops, err := c.Operations(ctx)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestAPIError(t *testing.T) {
	c := setup(t)

	d := draft("")
	d.SecurityID = 77
	_, err := c.AddOperation(context.Background(), d)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "err %v", err)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, ledger.ReasonSecurityNotFound, apiErr.Reason)
	assert.Equal(t, "securityId", apiErr.Field)
}
