// workers/ledger_archive.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"wellness-progression/models"
	"wellness-progression/utils"

	"gorm.io/gorm"
)

// LedgerArchiver copies one day of points transactions to object storage as
// newline-delimited JSON. The ledger itself is never modified.
type LedgerArchiver struct {
	db       *gorm.DB
	store    utils.ObjectStore
	location *time.Location
	prefix   string
}

func NewLedgerArchiver(db *gorm.DB, store utils.ObjectStore, loc *time.Location) *LedgerArchiver {
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerArchiver{db: db, store: store, location: loc, prefix: "ledger"}
}

// ArchiveKey is the object key for the given day, e.g. "ledger/2025/03/14.ndjson".
func (a *LedgerArchiver) ArchiveKey(day time.Time) string {
	return fmt.Sprintf("%s/%s.ndjson", a.prefix, day.In(a.location).Format("2006/01/02"))
}

// ArchiveDay uploads every transaction created on day and returns how many were written.
func (a *LedgerArchiver) ArchiveDay(ctx context.Context, day time.Time) (int, error) {
	local := day.In(a.location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, a.location)
	end := start.AddDate(0, 0, 1)

	var txs []models.PointsTransaction
	if err := a.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()).
		Order("created_at ASC").
		Find(&txs).Error; err != nil {
		return 0, fmt.Errorf("failed to read ledger for %s: %w", start.Format("2006-01-02"), err)
	}
	if len(txs) == 0 {
		log.Printf("[ARCHIVE] ✅ No ledger entries for %s", start.Format("2006-01-02"))
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, tx := range txs {
		if err := enc.Encode(tx); err != nil {
			return 0, fmt.Errorf("failed to encode transaction %s: %w", tx.ID, err)
		}
	}

	key := a.ArchiveKey(start)
	if err := a.store.PutObject(ctx, key, buf.Bytes(), "application/x-ndjson"); err != nil {
		return 0, err
	}
	log.Printf("[ARCHIVE] 📦 Archived %d ledger entries to %s", len(txs), key)
	return len(txs), nil
}

// ArchivePreviousDay is the scheduled entry point: it archives yesterday.
func (a *LedgerArchiver) ArchivePreviousDay(ctx context.Context) error {
	_, err := a.ArchiveDay(ctx, time.Now().In(a.location).AddDate(0, 0, -1))
	return err
}
