package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	twofaredis "github.com/aussiebroadwan/twofa/internal/twofa/store/drivers/redis"
	"github.com/aussiebroadwan/twofa/internal/twofa/store/storetest"
	"github.com/aussiebroadwan/twofa/pkg/clock"
	"github.com/aussiebroadwan/twofa/pkg/cryptox"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedis runs a throwaway redis:7-alpine container and returns its URL.
func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("redis driver tests need docker; skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestRedisStore(t *testing.T) {
	t.Setenv(cryptox.MasterKeyEnv, "redis-driver-test-key")
	cryptox.SetMasterKeyPath("")

	url := startRedis(t)
	ctx := context.Background()

	storetest.Run(t, func(t *testing.T) store.Store {
		client, err := twofaredis.Connect(ctx, twofaredis.Config{ConnectionURL: url})
		require.NoError(t, err)
		require.NoError(t, client.FlushDB(ctx).Err())

		s := twofaredis.NewStore(client, clock.New())
		t.Cleanup(func() { _ = s.Close() })
		return s
	})

	t.Run("KeysDoNotExposeIdentifiers", func(t *testing.T) {
		client, err := twofaredis.Connect(ctx, twofaredis.Config{ConnectionURL: url})
		require.NoError(t, err)
		require.NoError(t, client.FlushDB(ctx).Err())
		s := twofaredis.NewStore(client, clock.New())
		t.Cleanup(func() { _ = s.Close() })

		require.NoError(t, s.Users().CreateUser(ctx, domain.User{
			Credential: domain.Credential{Identifier: "a@example.com", PasswordHash: "h"},
			TwoFactor:  domain.Enabled("JBSWY3DPEHPK3PXP"),
		}))

		keys, err := client.Keys(ctx, "*").Result()
		require.NoError(t, err)
		require.Len(t, keys, 1)
		require.NotContains(t, keys[0], "a@example.com")

		secret, err := client.HGet(ctx, keys[0], "twofa_secret").Result()
		require.NoError(t, err)
		require.NotContains(t, secret, "JBSWY3DPEHPK3PXP")
	})
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := twofaredis.Connect(context.Background(), twofaredis.Config{ConnectionURL: "not a url"})
	require.ErrorIs(t, err, twofaredis.ErrFailedToParseRedisConnString)
}

func TestUnreachableRedisIsUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := twofaredis.NewStore(client, clock.New())
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	_, err := s.Users().GetUser(ctx, "a@example.com")
	require.ErrorIs(t, err, store.ErrUnavailable)

	_, err = s.Users().UpdateTwoFactorState(ctx, "a@example.com", func(cur domain.TwoFactorState) (domain.TwoFactorState, error) {
		return cur, nil
	})
	require.ErrorIs(t, err, store.ErrUnavailable)
	require.ErrorIs(t, s.Ping(ctx), store.ErrUnavailable)
}
