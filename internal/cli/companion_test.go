package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Oluwatunmise116/caremini/internal/link"
)

// testBandName matches the device name written by companionConfig.
const testBandName = "test-band"

// companionConfig starts a fake radio backend and writes a config pointing
// at it. Returns the config path and the backend.
func companionConfig(t *testing.T) (string, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	body := fmt.Sprintf("device:\n  name: %s\nlink:\n  redis_addr: %s\n", testBandName, mr.Addr())
	path := filepath.Join(t.TempDir(), "caremini.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	return path, mr
}

// commandReceiver subscribes to the band's command channel and waits for
// the subscribe confirmation, so a later publish cannot outrun it.
func commandReceiver(t *testing.T, mr *miniredis.Miniredis) *redis.PubSub {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	pubsub := rdb.Subscribe(context.Background(), link.CommandsChannel(testBandName))
	t.Cleanup(func() { pubsub.Close() })

	_, err := pubsub.Receive(context.Background())
	require.NoError(t, err)

	return pubsub
}
