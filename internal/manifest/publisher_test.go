package manifest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moz-infra/toppicks-crawler/internal/domain"
	"github.com/moz-infra/toppicks-crawler/internal/storage"
)

func testManifest(icon string) Manifest {
	return Build([]domain.Result{
		{Domain: "a.com", Rank: 1, Title: "A", URL: "https://a.com", Icon: icon, Source: "top-picks"},
	})
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("first publish writes timestamped object", func(t *testing.T) {
		store := storage.NewMemoryStore("cdn.test")
		pub := NewPublisher(store, zap.NewNop())
		pub.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }

		name, published, err := pub.Publish(ctx, testManifest("https://cdn.test/a.png"))
		require.NoError(t, err)
		require.True(t, published)
		require.Equal(t, "top_picks_20260830120000.json", name)
		require.Equal(t, 1, store.Len())
	})

	t.Run("identical content skips publish", func(t *testing.T) {
		store := storage.NewMemoryStore("cdn.test")
		pub := NewPublisher(store, zap.NewNop())

		first, published, err := pub.Publish(ctx, testManifest("https://cdn.test/a.png"))
		require.NoError(t, err)
		require.True(t, published)

		pub.now = func() time.Time { return time.Now().Add(time.Hour) }
		second, published, err := pub.Publish(ctx, testManifest("https://cdn.test/a.png"))
		require.NoError(t, err)
		require.False(t, published)
		require.Equal(t, first, second)
		require.Equal(t, 1, store.Len())
	})

	t.Run("changed content publishes new version", func(t *testing.T) {
		store := storage.NewMemoryStore("cdn.test")
		pub := NewPublisher(store, zap.NewNop())
		pub.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }

		_, _, err := pub.Publish(ctx, testManifest("https://cdn.test/a.png"))
		require.NoError(t, err)

		pub.now = func() time.Time { return time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC) }
		name, published, err := pub.Publish(ctx, testManifest("https://cdn.test/a-v2.png"))
		require.NoError(t, err)
		require.True(t, published)
		require.Equal(t, "top_picks_20260830130000.json", name)
		require.Equal(t, 2, store.Len())
	})

	t.Run("latest round trips", func(t *testing.T) {
		store := storage.NewMemoryStore("cdn.test")
		pub := NewPublisher(store, zap.NewNop())

		_, _, err := pub.Latest(ctx)
		require.ErrorIs(t, err, ErrNoManifest)

		want := testManifest("https://cdn.test/a.png")
		name, _, err := pub.Publish(ctx, want)
		require.NoError(t, err)

		gotName, got, err := pub.Latest(ctx)
		require.NoError(t, err)
		require.Equal(t, name, gotName)
		require.Equal(t, want, got)
	})
}
