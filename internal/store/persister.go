package store

import (
	"context"
	"log"

	"hotel-ops-backend/internal/sim"
)

// Persister is the asynchronous bridge between the engine and the store. The
// engine hands over snapshots from inside its lock, so writes must never
// block: snapshots go through a one-slot latest-wins channel (an overwritten
// intermediate snapshot is harmless, the next one supersedes it), while stay
// records are queued individually since every one must land.
type Persister struct {
	store Store
	snaps chan sim.Snapshot
	stays chan sim.StayRecord
}

// NewPersister creates a persister around the given store.
func NewPersister(s Store) *Persister {
	return &Persister{
		store: s,
		snaps: make(chan sim.Snapshot, 1),
		stays: make(chan sim.StayRecord, 64),
	}
}

// Start launches the writer goroutine.
func (p *Persister) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *Persister) run(ctx context.Context) {
	for {
		select {
		case snap := <-p.snaps:
			if err := p.store.SaveSnapshot(ctx, snap); err != nil {
				log.Printf("Error persisting snapshot: %v", err)
			}
		case rec := <-p.stays:
			if err := p.store.AppendStay(ctx, rec); err != nil {
				log.Printf("Error persisting stay record for guest %d: %v", rec.GuestID, err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Persist implements sim.Persister. Latest wins: a pending unsaved snapshot
// is replaced rather than queued behind.
func (p *Persister) Persist(snap sim.Snapshot) {
	for {
		select {
		case p.snaps <- snap:
			return
		default:
		}
		select {
		case <-p.snaps:
		default:
		}
	}
}

// RecordStay implements sim.Persister. Drops with a log line when the buffer
// is full rather than blocking the engine.
func (p *Persister) RecordStay(rec sim.StayRecord) {
	select {
	case p.stays <- rec:
	default:
		log.Printf("Stay record buffer full, dropping record for guest %d", rec.GuestID)
	}
}
