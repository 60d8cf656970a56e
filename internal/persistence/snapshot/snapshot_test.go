package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/critterchain/critterchain/internal/core/chain"
	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/internal/core/engine"
	"github.com/critterchain/critterchain/internal/core/events/bus"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/core/registry"
)

func populatedEngine(t *testing.T) *engine.Engine {
	t.Helper()
	sim := chain.NewSim("snapshot-test", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	e := engine.New(engine.DefaultConfig(), sim, bus.New(), log.NewNop())

	id, err := e.CreateRandomCritter("acc-a", "Zeus")
	require.NoError(t, err)
	_, err = e.CreateRandomCritter("acc-b", "Hera")
	require.NoError(t, err)
	require.NoError(t, e.LevelUp("acc-a", id, e.Config().LevelUpFee))
	require.NoError(t, e.Approve("acc-a", id, "acc-c"))
	return e
}

func TestWriteReadRoundTrip(t *testing.T) {
	e := populatedEngine(t)
	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	path, err := Write(dir, e.Export(), now)
	require.NoError(t, err)
	assert.Contains(t, path, "state-20240501T093000Z.json.zst")

	st, err := Read(path)
	require.NoError(t, err)

	sim := chain.NewSim("snapshot-test", now)
	restored := engine.New(engine.DefaultConfig(), sim, bus.New(), log.NewNop())
	restored.Restore(st)

	assert.Equal(t, e.CritterCount(), restored.CritterCount())
	assert.Equal(t, e.FeeBalance(), restored.FeeBalance())

	owner, err := restored.OwnerOf(critter.ID(0))
	require.NoError(t, err)
	assert.Equal(t, registry.Account("acc-a"), owner)

	orig, err := e.GetCritter(0)
	require.NoError(t, err)
	got, err := restored.GetCritter(0)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestLatestPicksNewest(t *testing.T) {
	e := populatedEngine(t)
	dir := t.TempDir()

	_, err := Write(dir, e.Export(), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	newest, err := Write(dir, e.Export(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	got, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, newest, got)
}

func TestLatestEmptyOrMissingDir(t *testing.T) {
	got, err := Latest(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Latest(t.TempDir() + "/does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadRejectsGarbage(t *testing.T) {
	e := populatedEngine(t)
	dir := t.TempDir()
	path, err := Write(dir, e.Export(), time.Now())
	require.NoError(t, err)

	_, err = Read(path + ".missing")
	require.Error(t, err)
}
