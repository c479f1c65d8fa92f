package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/sim"
)

// Store defines the durable persistence operations of the simulation.
type Store interface {
	DB() *gorm.DB
	LoadSnapshot(ctx context.Context) (sim.Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, snap sim.Snapshot) error
	AppendStay(ctx context.Context, rec sim.StayRecord) error
	RecentStays(ctx context.Context, limit int) ([]model.StayRecord, error)
	Reset(ctx context.Context) error
}

// gormStore implements Store using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for handlers that read directly.
func (s *gormStore) DB() *gorm.DB { return s.db }

// LoadSnapshot reads the persisted snapshot. The second return is false when
// nothing has been saved yet (a fresh install).
func (s *gormStore) LoadSnapshot(ctx context.Context) (sim.Snapshot, bool, error) {
	var state model.SimState
	err := s.db.WithContext(ctx).First(&state, model.SimStateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sim.Snapshot{}, false, nil
	}
	if err != nil {
		return sim.Snapshot{}, false, fmt.Errorf("failed to load sim state: %w", err)
	}

	var roomRows []model.RoomSnapshot
	if err := s.db.WithContext(ctx).Order("id").Find(&roomRows).Error; err != nil {
		return sim.Snapshot{}, false, fmt.Errorf("failed to load room snapshots: %w", err)
	}

	snap := sim.Snapshot{
		Balance:      state.Balance,
		QueueLen:     state.QueueLen,
		Cleaners:     state.Cleaners,
		GuestsServed: state.GuestsServed,
		NextGuestID:  state.NextGuestID,
	}
	snap.Bellboy.Hired = state.BellboyHired
	for _, r := range roomRows {
		snap.Rooms = append(snap.Rooms, sim.RoomView{
			ID:         r.ID,
			Status:     sim.RoomStatus(r.Status),
			OccupantID: r.OccupantID,
		})
	}
	// The engine repairs whatever is malformed (unknown statuses, negative
	// counters, missing rooms) on restore; the store hands rows back as-is.
	return snap, true, nil
}

// SaveSnapshot writes the snapshot transactionally: the scalar row is
// upserted, room rows are upserted, and rows for rooms that no longer exist
// are deleted.
func (s *gormStore) SaveSnapshot(ctx context.Context, snap sim.Snapshot) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state := model.SimState{
			ID:           model.SimStateID,
			Balance:      snap.Balance,
			RoomCount:    len(snap.Rooms),
			QueueLen:     snap.QueueLen,
			BellboyHired: snap.Bellboy.Hired,
			Cleaners:     snap.Cleaners,
			GuestsServed: snap.GuestsServed,
			NextGuestID:  snap.NextGuestID,
			UpdatedAt:    now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&state).Error; err != nil {
			return fmt.Errorf("failed to save sim state: %w", err)
		}

		for _, room := range snap.Rooms {
			row := model.RoomSnapshot{
				ID:         room.ID,
				Status:     string(room.Status),
				OccupantID: room.OccupantID,
				UpdatedAt:  now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to save room %d snapshot: %w", room.ID, err)
			}
		}

		if err := tx.Where("id > ?", len(snap.Rooms)).Delete(&model.RoomSnapshot{}).Error; err != nil {
			return fmt.Errorf("failed to prune room snapshots: %w", err)
		}
		return nil
	})
}

// AppendStay archives one completed stay.
func (s *gormStore) AppendStay(ctx context.Context, rec sim.StayRecord) error {
	row := model.StayRecord{
		GuestID:        rec.GuestID,
		RoomID:         rec.RoomID,
		Class:          string(rec.Class),
		CheckIn:        rec.CheckIn,
		CheckOut:       rec.CheckOut,
		Payout:         rec.Payout,
		Angry:          rec.Angry,
		RequestsServed: rec.RequestsServed,
		RequestsMissed: rec.RequestsMissed,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append stay record for guest %d: %w", rec.GuestID, err)
	}
	return nil
}

// RecentStays returns the most recently completed stays, newest first.
func (s *gormStore) RecentStays(ctx context.Context, limit int) ([]model.StayRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []model.StayRecord
	if err := s.db.WithContext(ctx).Order("check_out DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load stay records: %w", err)
	}
	return rows, nil
}

// Reset wipes every persisted table. Subscriptions survive a reset: the
// operator's browser registration has nothing to do with the hotel's state.
func (s *gormStore) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.SimState{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.RoomSnapshot{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&model.StayRecord{}).Error
	})
}
