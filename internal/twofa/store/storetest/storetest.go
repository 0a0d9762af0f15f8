// Package storetest is the conformance suite every store driver runs from its
// own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, migrated, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

const (
	testIdentifier = "andrewthian@gmail.com"
	testHash       = "$argon2id$v=19$m=19456,t=2,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"
	testSecret     = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	testURI        = "otpauth://totp/proto-google-auth:andrewthian@gmail.com?issuer=proto-google-auth&secret=JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
)

// Run executes the whole suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("CreateDuplicate", func(t *testing.T) { testCreateDuplicate(t, newStore(t)) })
	t.Run("GetUnknown", func(t *testing.T) { testGetUnknown(t, newStore(t)) })
	t.Run("ReplaceRoundTrip", func(t *testing.T) { testReplaceRoundTrip(t, newStore(t)) })
	t.Run("UpdateAppliesFn", func(t *testing.T) { testUpdateAppliesFn(t, newStore(t)) })
	t.Run("UpdateAbortsOnError", func(t *testing.T) { testUpdateAbortsOnError(t, newStore(t)) })
	t.Run("UpdateUnknown", func(t *testing.T) { testUpdateUnknown(t, newStore(t)) })
	t.Run("UsersAreIsolated", func(t *testing.T) { testUsersAreIsolated(t, newStore(t)) })
	t.Run("NoLostUpdates", func(t *testing.T) { testNoLostUpdates(t, newStore(t)) })
	t.Run("ConfirmRacingDisable", func(t *testing.T) { testConfirmRacingDisable(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

func seed(t *testing.T, s store.Store, identifier string, state domain.TwoFactorState) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	err := s.Users().CreateUser(context.Background(), domain.User{
		Credential: domain.Credential{Identifier: identifier, PasswordHash: testHash},
		TwoFactor:  state,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
}

func testCreateAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s, testIdentifier, domain.Disabled())

	u, err := s.Users().GetUser(ctx, testIdentifier)
	require.NoError(t, err)
	require.Equal(t, testIdentifier, u.Identifier)
	require.Equal(t, testHash, u.PasswordHash)
	require.Equal(t, domain.Disabled(), u.TwoFactor)
	require.False(t, u.CreatedAt.IsZero())
}

func testCreateDuplicate(t *testing.T, s store.Store) {
	seed(t, s, testIdentifier, domain.Disabled())

	err := s.Users().CreateUser(context.Background(), domain.User{
		Credential: domain.Credential{Identifier: testIdentifier, PasswordHash: testHash},
		TwoFactor:  domain.Disabled(),
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func testGetUnknown(t *testing.T, s store.Store) {
	_, err := s.Users().GetUser(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testReplaceRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s, testIdentifier, domain.Disabled())

	for _, state := range []domain.TwoFactorState{
		domain.Pending(testSecret, testURI),
		domain.Enabled(testSecret),
		domain.Pending("KRUGS4ZANFZSAYJAORSXG5BAONSWG4TF", "otpauth://totp/x"),
		domain.Disabled(),
	} {
		require.NoError(t, s.Users().ReplaceTwoFactorState(ctx, testIdentifier, state))

		u, err := s.Users().GetUser(ctx, testIdentifier)
		require.NoError(t, err)
		require.Equal(t, state, u.TwoFactor, "round trip of %s", state)
	}

	err := s.Users().ReplaceTwoFactorState(ctx, "nobody@example.com", domain.Disabled())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testUpdateAppliesFn(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s, testIdentifier, domain.Pending(testSecret, testURI))

	got, err := s.Users().UpdateTwoFactorState(ctx, testIdentifier, func(cur domain.TwoFactorState) (domain.TwoFactorState, error) {
		require.Equal(t, domain.Pending(testSecret, testURI), cur)
		return cur.Promote(), nil
	})
	require.NoError(t, err)
	require.Equal(t, domain.Enabled(testSecret), got)

	u, err := s.Users().GetUser(ctx, testIdentifier)
	require.NoError(t, err)
	require.Equal(t, domain.Enabled(testSecret), u.TwoFactor)
}

func testUpdateAbortsOnError(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s, testIdentifier, domain.Pending(testSecret, testURI))

	boom := errors.New("boom")
	_, err := s.Users().UpdateTwoFactorState(ctx, testIdentifier, func(domain.TwoFactorState) (domain.TwoFactorState, error) {
		return domain.Disabled(), boom
	})
	require.ErrorIs(t, err, boom)

	u, err := s.Users().GetUser(ctx, testIdentifier)
	require.NoError(t, err)
	require.Equal(t, domain.Pending(testSecret, testURI), u.TwoFactor, "state unchanged after abort")
}

func testUpdateUnknown(t *testing.T, s store.Store) {
	called := false
	_, err := s.Users().UpdateTwoFactorState(context.Background(), "nobody@example.com", func(cur domain.TwoFactorState) (domain.TwoFactorState, error) {
		called = true
		return cur, nil
	})
	require.ErrorIs(t, err, store.ErrNotFound)
	require.False(t, called)
}

func testUsersAreIsolated(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s, "a@example.com", domain.Disabled())
	seed(t, s, "b@example.com", domain.Disabled())

	require.NoError(t, s.Users().ReplaceTwoFactorState(ctx, "a@example.com", domain.Enabled(testSecret)))

	b, err := s.Users().GetUser(ctx, "b@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.Disabled(), b.TwoFactor)
}

// testNoLostUpdates drives concurrent read-modify-write cycles through a
// counter kept in the temp secret. A lost update shows up as a short count.
func testNoLostUpdates(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s, testIdentifier, domain.Pending("N0", testURI))

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Users().UpdateTwoFactorState(ctx, testIdentifier, func(cur domain.TwoFactorState) (domain.TwoFactorState, error) {
				n, err := strconv.Atoi(strings.TrimPrefix(cur.TempSecret(), "N"))
				if err != nil {
					return cur, err
				}
				return domain.Pending(fmt.Sprintf("N%d", n+1), testURI), nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	u, err := s.Users().GetUser(ctx, testIdentifier)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("N%d", workers), u.TwoFactor.TempSecret())
}

// testConfirmRacingDisable races promotions against blind disables and checks
// that every observed state is one of the legal shapes.
func testConfirmRacingDisable(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s, testIdentifier, domain.Pending(testSecret, testURI))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_ = s.Users().ReplaceTwoFactorState(ctx, testIdentifier, domain.Disabled())
			case 1:
				_, _ = s.Users().UpdateTwoFactorState(ctx, testIdentifier, func(cur domain.TwoFactorState) (domain.TwoFactorState, error) {
					return cur.Promote(), nil
				})
			default:
				_, _ = s.Users().UpdateTwoFactorState(ctx, testIdentifier, func(domain.TwoFactorState) (domain.TwoFactorState, error) {
					return domain.Pending(testSecret, testURI), nil
				})
			}
		}()
	}
	wg.Wait()

	u, err := s.Users().GetUser(ctx, testIdentifier)
	require.NoError(t, err)
	require.NoError(t, u.TwoFactor.Validate())
	if u.TwoFactor.IsEnabled() {
		require.Equal(t, testSecret, u.TwoFactor.Secret())
	}
}
