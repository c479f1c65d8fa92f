package internal

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"hotel-ops-backend/config"
	"hotel-ops-backend/internal/api"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/sim"
	"hotel-ops-backend/internal/store"
)

// syncPersister forwards engine writes straight into the store. The
// simulation runs on a manual clock on the test goroutine, so synchronous
// writes are safe here.
type syncPersister struct {
	t     *testing.T
	store store.Store
}

func (p *syncPersister) Persist(snap sim.Snapshot) {
	assert.NoError(p.t, p.store.SaveSnapshot(context.Background(), snap))
}

func (p *syncPersister) RecordStay(rec sim.StayRecord) {
	assert.NoError(p.t, p.store.AppendStay(context.Background(), rec))
}

func testSimConfig() config.SimConfig {
	cfg := config.SimConfig{StartingBalance: 500}
	config.ApplySimDefaults(&cfg)
	// Deterministic stays: guests never order anything.
	cfg.RequestCountWeights = []int{100, 0, 0, 0}
	return cfg
}

// TestHotelLifecycle runs a stay end to end against a real SQLite store and
// verifies that a restarted simulation resumes from the persisted state.
func TestHotelLifecycle(t *testing.T) {
	// 1. Setup an in-memory SQLite database for testing.
	testDB, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to the in-memory database: %v", err)
	}
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	err = testDB.AutoMigrate(&model.SimState{}, &model.RoomSnapshot{}, &model.StayRecord{}, &model.PushSubscription{})
	require.NoError(t, err)

	appStore := store.NewGormStore(testDB)
	cfg := testSimConfig()

	// 2. First simulation run: one guest checks in, stays, and checks out.
	clock := sim.NewManualClock(time.Unix(0, 0))
	engine := sim.New(cfg, clock,
		sim.WithRNG(rand.New(rand.NewSource(1))),
		sim.WithPersister(&syncPersister{t: t, store: appStore}))
	engine.Start()

	var checkoutBalance int64
	t.Run("stay is persisted as it happens", func(t *testing.T) {
		guest, err := engine.SpawnGuest(sim.ClassVIP)
		require.NoError(t, err)
		assert.Equal(t, 1, guest.RoomID)

		clock.Advance(cfg.Stay + cfg.Exit + time.Second)
		snap := engine.Snapshot()
		assert.Empty(t, snap.Guests)
		assert.Equal(t, sim.RoomDirty, snap.Rooms[0].Status)
		// Check-in reward 2, VIP payout 20.
		assert.Equal(t, int64(522), snap.Balance)
		checkoutBalance = snap.Balance

		var state model.SimState
		require.NoError(t, testDB.First(&state, model.SimStateID).Error)
		assert.Equal(t, checkoutBalance, state.Balance)
		assert.Equal(t, int64(1), state.GuestsServed)

		var stays []model.StayRecord
		require.NoError(t, testDB.Find(&stays).Error)
		require.Len(t, stays, 1)
		assert.Equal(t, guest.ID, stays[0].GuestID)
		assert.Equal(t, "vip", stays[0].Class)
		assert.Equal(t, int64(20), stays[0].Payout)
	})

	engine.Stop()

	// 3. Second run: a fresh engine restores from the saved snapshot.
	var engine2 *sim.Engine
	defer func() {
		if engine2 != nil {
			engine2.Stop()
		}
	}()
	t.Run("restart resumes from the saved snapshot", func(t *testing.T) {
		snap, ok, err := appStore.LoadSnapshot(context.Background())
		require.NoError(t, err)
		require.True(t, ok)

		clock2 := sim.NewManualClock(time.Unix(100, 0))
		engine2 = sim.New(cfg, clock2,
			sim.WithRNG(rand.New(rand.NewSource(1))),
			sim.WithPersister(&syncPersister{t: t, store: appStore}),
			sim.WithSnapshot(snap))
		engine2.Start()

		restored := engine2.Snapshot()
		assert.Equal(t, checkoutBalance, restored.Balance)
		assert.Equal(t, sim.RoomDirty, restored.Rooms[0].Status, "the dirty room survives the restart")
		assert.Equal(t, int64(1), restored.GuestsServed)
	})

	// 4. The HTTP API serves live state and history from the same parts.
	serverCfg := config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 1}
	router := api.NewRouter(&serverCfg, engine2, appStore, nil)

	t.Run("status and history over HTTP", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/status", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var snap sim.Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		assert.Equal(t, checkoutBalance, snap.Balance)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest("GET", "/api/history", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var stays []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stays))
		require.Len(t, stays, 1)
		assert.Equal(t, "vip", stays[0]["class"])
	})

	t.Run("reset wipes both live and persisted state", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/reset", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusNoContent, w.Code)

		snap := engine2.Snapshot()
		assert.Equal(t, int64(500), snap.Balance)
		assert.Empty(t, snap.Guests)

		_, ok, err := appStore.LoadSnapshot(context.Background())
		require.NoError(t, err)
		assert.False(t, ok, "persisted snapshot is gone after reset")

		var stayCount int64
		testDB.Model(&model.StayRecord{}).Count(&stayCount)
		assert.Zero(t, stayCount)
	})
}
