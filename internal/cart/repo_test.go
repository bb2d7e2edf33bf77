package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupGuestCartDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS guest_carts (
  session_id VARCHAR(64) PRIMARY KEY,
  items TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL,
  expires_at TIMESTAMP
)`).Error)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestRepositorySaveLoadUpsert(t *testing.T) {
	db := setupGuestCartDB(t)
	repo := NewRepository(db, time.Hour)
	ctx := context.Background()

	items, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, repo.Save(ctx, "s1", GuestItems{"1_a": 2, "2_b": 0}))
	require.NoError(t, repo.Save(ctx, "s1", GuestItems{"1_a": 3, "3_c": 1}))

	items, err = repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, GuestItems{"1_a": 3, "3_c": 1}, items)

	var count int64
	require.NoError(t, db.Model(&GuestCartRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	require.NoError(t, repo.Clear(ctx, "s1"))
	items, err = repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepositoryExpiry(t *testing.T) {
	db := setupGuestCartDB(t)
	repo := NewRepository(db, time.Hour)
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "old", GuestItems{"1_a": 1}))
	now = now.Add(30 * time.Minute)
	require.NoError(t, repo.Save(ctx, "new", GuestItems{"2_b": 1}))
	now = now.Add(45 * time.Minute)

	items, err := repo.Load(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, items, "expired cart must not load")

	purged, err := repo.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	items, err = repo.Load(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, GuestItems{"2_b": 1}, items)
}

func TestRepositoryCorruptRow(t *testing.T) {
	db := setupGuestCartDB(t)
	repo := NewRepository(db, 0)
	ctx := context.Background()

	require.NoError(t, db.Create(&GuestCartRecord{SessionID: "s1", Items: "{not json", UpdatedAt: time.Now()}).Error)

	_, err := repo.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrCorruptGuestCart)
}
