package location_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldline/ops-backend/internal/geo"
	"github.com/fieldline/ops-backend/internal/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_ReturnsFix(t *testing.T) {
	want := geo.Point{Lat: 39.1, Lng: -86.5, AccuracyMeters: 12}

	fix := location.Acquire(context.Background(), location.Static(&want), time.Second)

	got, ok := fix.Get()
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestAcquire_DeniedIsAbsent(t *testing.T) {
	fix := location.Acquire(context.Background(), location.Static(nil), time.Second)

	assert.False(t, fix.Present())
}

func TestAcquire_ErrorIsAbsent(t *testing.T) {
	l := location.LocatorFunc(func(context.Context) (geo.Point, error) {
		return geo.Point{}, errors.New("gps hardware fault")
	})

	assert.False(t, location.Acquire(context.Background(), l, time.Second).Present())
}

func TestAcquire_NilLocator(t *testing.T) {
	assert.False(t, location.Acquire(context.Background(), nil, time.Second).Present())
}

func TestAcquire_TimeoutDiscardsLateFix(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	l := location.LocatorFunc(func(context.Context) (geo.Point, error) {
		defer close(done)
		<-release
		return geo.Point{Lat: 1, Lng: 1}, nil
	})

	start := time.Now()
	fix := location.Acquire(context.Background(), l, 20*time.Millisecond)

	assert.False(t, fix.Present())
	assert.Less(t, time.Since(start), time.Second)

	// The late sample must still be able to complete without a reader.
	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locator goroutine did not finish")
	}
}

func TestAcquire_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := location.LocatorFunc(func(ctx context.Context) (geo.Point, error) {
		<-ctx.Done()
		return geo.Point{}, ctx.Err()
	})

	assert.False(t, location.Acquire(ctx, l, time.Second).Present())
}
