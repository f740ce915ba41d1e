package flags

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test connection
	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	// Clear test DB
	err = client.FlushDB(ctx).Err()
	require.NoError(t, err)

	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = client.FlushDB(ctx).Err()
	_ = client.Close()
}

func TestStore_Upsert(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	// Test setting a new flag
	flag, err := store.Upsert(ctx, KeyFeedEnabled, true)
	assert.NoError(t, err)
	assert.NotNil(t, flag)
	assert.Equal(t, KeyFeedEnabled, flag.Key)
	assert.True(t, flag.Value)
	assert.NotZero(t, flag.UpdatedAt)

	// Verify flag was set
	retrievedFlag, err := store.Get(ctx, KeyFeedEnabled)
	assert.NoError(t, err)
	assert.Equal(t, flag.Key, retrievedFlag.Key)
	assert.Equal(t, flag.Value, retrievedFlag.Value)
	assert.Equal(t, flag.UpdatedAt, retrievedFlag.UpdatedAt)

	// Test updating existing flag
	time.Sleep(time.Millisecond) // Ensure different timestamp
	flag2, err := store.Upsert(ctx, KeyFeedEnabled, false)
	assert.NoError(t, err)
	assert.True(t, flag2.UpdatedAt.After(flag.UpdatedAt))

	// Verify flag was updated
	retrievedFlag, err = store.Get(ctx, KeyFeedEnabled)
	assert.NoError(t, err)
	assert.False(t, retrievedFlag.Value)
	assert.Equal(t, flag2.UpdatedAt, retrievedFlag.UpdatedAt)
}

func TestStore_Get(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	// Test getting non-existent flag
	flag, err := store.Get(ctx, "nonexistent.flag")
	assert.Error(t, err)
	assert.Equal(t, ErrNotFound, err)
	assert.Nil(t, flag)

	// Set a flag first
	_, err = store.Upsert(ctx, KeySignalsPersist, true)
	require.NoError(t, err)

	// Test getting existing flag
	flag, err = store.Get(ctx, KeySignalsPersist)
	assert.NoError(t, err)
	assert.NotNil(t, flag)
	assert.Equal(t, KeySignalsPersist, flag.Key)
	assert.True(t, flag.Value)
	assert.NotZero(t, flag.UpdatedAt)
}

func TestStore_Enabled(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	// Unset flag resolves to the fallback
	assert.True(t, store.Enabled(ctx, KeyFeedEnabled, true))
	assert.False(t, store.Enabled(ctx, KeyFallbackForced, false))

	// Set values win over the fallback
	_, err = store.Upsert(ctx, KeyFeedEnabled, false)
	require.NoError(t, err)
	assert.False(t, store.Enabled(ctx, KeyFeedEnabled, true))

	_, err = store.Upsert(ctx, KeyFallbackForced, true)
	require.NoError(t, err)
	assert.True(t, store.Enabled(ctx, KeyFallbackForced, false))
}

func TestStore_EnsureDefaults(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	// Flip one flag away from its default before seeding
	_, err = store.Upsert(ctx, KeyFeedEnabled, false)
	require.NoError(t, err)

	require.NoError(t, store.EnsureDefaults(ctx))

	// Pre-existing value survives
	flag, err := store.Get(ctx, KeyFeedEnabled)
	require.NoError(t, err)
	assert.False(t, flag.Value)

	// Missing flags are seeded with their defaults
	for key, want := range Defaults() {
		if key == KeyFeedEnabled {
			continue
		}
		flag, err := store.Get(ctx, key)
		require.NoError(t, err, "flag %s should be seeded", key)
		assert.Equal(t, want, flag.Value, "flag %s should have default value", key)
	}

	// Seeding twice is a no-op
	require.NoError(t, store.EnsureDefaults(ctx))
	flags, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, flags, len(Defaults()))
}

func TestStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	// Set a flag first
	_, err = store.Upsert(ctx, KeyFallbackForced, true)
	require.NoError(t, err)

	// Verify flag exists
	_, err = store.Get(ctx, KeyFallbackForced)
	assert.NoError(t, err)

	// Delete the flag
	err = store.Delete(ctx, KeyFallbackForced)
	assert.NoError(t, err)

	// Verify flag is deleted
	_, err = store.Get(ctx, KeyFallbackForced)
	assert.Error(t, err)
	assert.Equal(t, ErrNotFound, err)

	// Test deleting non-existent flag
	err = store.Delete(ctx, "nonexistent.flag")
	assert.NoError(t, err) // Should not error
}

func TestStore_List(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	// Test empty list
	flags, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, flags)

	// Add some flags
	flagUpdates := map[string]bool{
		KeyFeedEnabled:    true,
		KeyFallbackForced: false,
		KeySignalsPersist: true,
	}

	for key, value := range flagUpdates {
		_, err := store.Upsert(ctx, key, value)
		require.NoError(t, err)
	}

	// List flags
	flags, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, flags, 3)

	// Create a map for easier verification
	flagMap := make(map[string]bool)
	for _, flag := range flags {
		flagMap[flag.Key] = flag.Value
	}

	for key, expectedValue := range flagUpdates {
		actualValue, exists := flagMap[key]
		assert.True(t, exists, "Flag %s should exist", key)
		assert.Equal(t, expectedValue, actualValue, "Flag %s should have correct value", key)
	}
}

func TestStore_ConcurrentOperations(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	// Test concurrent sets
	const numGoroutines = 10
	const numOps = 50

	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer func() { done <- true }()
			for j := 0; j < numOps; j++ {
				key := fmt.Sprintf("flag.%d.%d", id, j)
				value := (id+j)%2 == 0

				_, err := store.Upsert(ctx, key, value)
				assert.NoError(t, err)

				retrievedFlag, err := store.Get(ctx, key)
				assert.NoError(t, err)
				assert.Equal(t, value, retrievedFlag.Value)
			}
		}(i)
	}

	// Wait for all goroutines to complete
	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	// Verify all flags exist
	flags, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, flags, numGoroutines*numOps)
}

func TestStore_KeyValidation(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	// Valid keys
	validKeys := []string{
		"simple.flag",
		"flag.with.dots",
		"flag123",
		"a",
		"very.long.flag.name.with.many.parts",
	}

	for _, key := range validKeys {
		_, err := store.Upsert(ctx, key, true)
		assert.NoError(t, err, "Key %s should be valid", key)
	}

	// Invalid keys
	invalidKeys := []string{
		"",
		" ",
		"flag with spaces",
		"flag:with:colons",
		"flag\twith\ttabs",
		"flag\nwith\nnewlines",
	}

	for _, key := range invalidKeys {
		_, err := store.Upsert(ctx, key, true)
		assert.Error(t, err, "Key %s should be invalid", key)
	}
}
