package sequence

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&DocumentNumber{}))
	return db
}

func TestNext_FormatsAndIncrements(t *testing.T) {
	db := newTestDB(t)
	gen := NewGenerator()
	day := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	first, err := gen.Next(context.Background(), db, PrefixOrder, day)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20250314-0001", first)

	second, err := gen.Next(context.Background(), db, PrefixOrder, day)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20250314-0002", second)
}

func TestNext_CountersAreIndependentPerPrefixAndDay(t *testing.T) {
	db := newTestDB(t)
	gen := NewGenerator()
	day := time.Date(2025, 3, 14, 23, 59, 0, 0, time.UTC)
	nextDay := day.Add(time.Minute)

	orderNum, err := gen.Next(context.Background(), db, PrefixOrder, day)
	require.NoError(t, err)
	payNum, err := gen.Next(context.Background(), db, PrefixPayment, day)
	require.NoError(t, err)
	rolled, err := gen.Next(context.Background(), db, PrefixOrder, nextDay)
	require.NoError(t, err)

	assert.Equal(t, "ORD-20250314-0001", orderNum)
	assert.Equal(t, "PAY-20250314-0001", payNum)
	assert.Equal(t, "ORD-20250315-0001", rolled)
}
