package client_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/critterchain/critterchain/internal/config"
	"github.com/critterchain/critterchain/internal/core/chain"
	"github.com/critterchain/critterchain/internal/core/engine"
	"github.com/critterchain/critterchain/internal/core/events/bus"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/server"
	"github.com/critterchain/critterchain/sdk/go/client"
)

const (
	addrAlice = "a1ice"
	addrBob   = "bob2"
)

func newTestClient(t *testing.T) *client.Client {
	t.Helper()

	cfg := config.Default()
	sim := chain.NewSim("sdk-test", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	b := bus.New()
	eng := engine.New(engine.DefaultConfig(), sim, b, log.NewNop())

	srv := server.New(cfg, eng, sim, b, nil, log.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})

	c := client.DefaultConfig()
	c.BaseURL = ts.URL
	return client.New(c)
}

func TestClientLifecycle(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	id, err := c.CreateCritter(ctx, addrAlice, "Zeus")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)

	rec, err := c.GetCritter(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Zeus", rec.Name)
	assert.Equal(t, uint32(1), rec.Level)

	owner, err := c.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, addrAlice, owner)

	require.NoError(t, c.Transfer(ctx, addrAlice, addrAlice, addrBob, id))
	balance, err := c.BalanceOf(ctx, addrBob)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), balance)
}

func TestClientErrorMapping(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateCritter(ctx, addrAlice, "Zeus")
	require.NoError(t, err)

	_, err = c.CreateCritter(ctx, addrAlice, "Hera")
	require.ErrorIs(t, err, client.ErrStarterClaimed)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "E_STARTER_CLAIMED", apiErr.Code)
	assert.NotEmpty(t, apiErr.RequestID)

	_, err = c.GetCritter(ctx, 42)
	assert.ErrorIs(t, err, client.ErrUnknownCritter)

	err = c.Transfer(ctx, addrBob, addrAlice, addrBob, 0)
	assert.ErrorIs(t, err, client.ErrNotOwnerOrOperator)
}

func TestClientEventStream(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := c.Events(ctx)
	require.NoError(t, err)

	_, err = c.CreateCritter(ctx, addrAlice, "Zeus")
	require.NoError(t, err)

	types := map[string]bool{}
	for len(types) < 2 {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed early")
			types[ev.Type] = true
		case <-ctx.Done():
			t.Fatal("timed out waiting for events")
		}
	}
	assert.True(t, types["critter.created"])
	assert.True(t, types["asset.transfer"])
}
