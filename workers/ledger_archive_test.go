package workers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wellness-progression/models"
	"wellness-progression/services"
	"wellness-progression/store"
	"wellness-progression/store/storetest"
	"wellness-progression/workers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putCall struct {
	key         string
	body        []byte
	contentType string
}

type memoryStore struct {
	puts []putCall
	err  error
}

func (m *memoryStore) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	if m.err != nil {
		return m.err
	}
	m.puts = append(m.puts, putCall{key: key, body: append([]byte(nil), body...), contentType: contentType})
	return nil
}

func TestArchiveKey(t *testing.T) {
	a := workers.NewLedgerArchiver(nil, &memoryStore{}, time.UTC)
	assert.Equal(t, "ledger/2025/03/14.ndjson", a.ArchiveKey(time.Date(2025, 3, 14, 23, 59, 0, 0, time.UTC)))
}

func TestArchiveDayWritesNDJSON(t *testing.T) {
	db := storetest.Open(t)
	ctx := context.Background()
	levels := models.DefaultLevelTable()
	points := services.NewPointsService(db, levels, store.NewTxProcedures(levels, time.UTC))

	for _, p := range []int64{40, 75} {
		_, err := points.AwardPoints(ctx, services.AwardRequest{UserID: "ivy", Points: p, Reason: "archive test"})
		require.NoError(t, err)
	}

	objects := &memoryStore{}
	archiver := workers.NewLedgerArchiver(db, objects, time.UTC)
	n, err := archiver.ArchiveDay(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, objects.puts, 1)
	put := objects.puts[0]
	assert.Equal(t, archiver.ArchiveKey(time.Now()), put.key)
	assert.Equal(t, "application/x-ndjson", put.contentType)

	var got []int64
	scanner := bufio.NewScanner(bytes.NewReader(put.body))
	for scanner.Scan() {
		var tx models.PointsTransaction
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &tx))
		assert.Equal(t, "ivy", tx.UserID)
		got = append(got, tx.Points)
	}
	assert.ElementsMatch(t, []int64{40, 75}, got)

	// yesterday has nothing, so nothing is uploaded
	require.NoError(t, archiver.ArchivePreviousDay(ctx))
	assert.Len(t, objects.puts, 1)
}

func TestArchiveDayPropagatesUploadErrors(t *testing.T) {
	db := storetest.Open(t)
	ctx := context.Background()
	levels := models.DefaultLevelTable()
	points := services.NewPointsService(db, levels, store.NewTxProcedures(levels, time.UTC))
	_, err := points.AwardPoints(ctx, services.AwardRequest{UserID: "jon", Points: 5, Reason: "archive test"})
	require.NoError(t, err)

	archiver := workers.NewLedgerArchiver(db, &memoryStore{err: errors.New("bucket unavailable")}, time.UTC)
	_, err = archiver.ArchiveDay(ctx, time.Now())
	assert.ErrorContains(t, err, "bucket unavailable")
}
