package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
)

// runStoreContract checks the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T, clock *testClock) Store) {
	ctx := context.Background()

	t.Run("records are returned oldest first", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		base := clock.Now()

		for i := 0; i < 3; i++ {
			rec := authDomain.AttemptRecord{At: base.Add(time.Duration(i) * time.Second), Outcome: authDomain.OutcomeFailure}
			require.NoError(t, store.Record(ctx, "k", rec, time.Minute))
		}
		clock.Advance(3 * time.Second)

		records, err := store.Attempts(ctx, "k", base.Add(-time.Second))
		require.NoError(t, err)
		require.Len(t, records, 3)
		for i, rec := range records {
			assert.True(t, base.Add(time.Duration(i)*time.Second).Equal(rec.At))
			assert.Equal(t, authDomain.OutcomeFailure, rec.Outcome)
		}
	})

	t.Run("since is exclusive", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		at := clock.Now()

		require.NoError(t, store.Record(ctx, "k", authDomain.AttemptRecord{At: at, Outcome: authDomain.OutcomeSuccess}, time.Minute))

		records, err := store.Attempts(ctx, "k", at)
		require.NoError(t, err)
		assert.Empty(t, records)

		records, err = store.Attempts(ctx, "k", at.Add(-time.Microsecond))
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("outcome is preserved", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		at := clock.Now()

		require.NoError(t, store.Record(ctx, "k", authDomain.AttemptRecord{At: at, Outcome: authDomain.OutcomeSuccess}, time.Minute))
		require.NoError(t, store.Record(ctx, "k", authDomain.AttemptRecord{At: at.Add(time.Second), Outcome: authDomain.OutcomeFailure}, time.Minute))

		records, err := store.Attempts(ctx, "k", at.Add(-time.Second))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, authDomain.OutcomeSuccess, records[0].Outcome)
		assert.Equal(t, authDomain.OutcomeFailure, records[1].Outcome)
	})

	t.Run("reset forgets key only", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		at := clock.Now()

		require.NoError(t, store.Record(ctx, "a", authDomain.AttemptRecord{At: at, Outcome: authDomain.OutcomeFailure}, time.Minute))
		require.NoError(t, store.Record(ctx, "b", authDomain.AttemptRecord{At: at, Outcome: authDomain.OutcomeFailure}, time.Minute))
		require.NoError(t, store.Reset(ctx, "a"))
		require.NoError(t, store.Reset(ctx, "missing"))

		records, err := store.Attempts(ctx, "a", at.Add(-time.Second))
		require.NoError(t, err)
		assert.Empty(t, records)

		records, err = store.Attempts(ctx, "b", at.Add(-time.Second))
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("unknown key is empty", func(t *testing.T) {
		store := newStore(t, newTestClock())
		records, err := store.Attempts(ctx, "nobody", time.Time{})
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("simultaneous attempts are kept apart", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		at := clock.Now()

		for i := 0; i < 5; i++ {
			require.NoError(t, store.Record(ctx, "k", authDomain.AttemptRecord{At: at, Outcome: authDomain.OutcomeFailure}, time.Minute))
		}

		records, err := store.Attempts(ctx, "k", at.Add(-time.Second))
		require.NoError(t, err)
		assert.Len(t, records, 5)
	})

	t.Run("window bounds resolve in microseconds", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		since := clock.Now()

		rec := authDomain.AttemptRecord{At: since.Add(500 * time.Nanosecond), Outcome: authDomain.OutcomeFailure}
		require.NoError(t, store.Record(ctx, "k", rec, time.Minute))

		records, err := store.Attempts(ctx, "k", since)
		require.NoError(t, err)
		assert.Empty(t, records, "same microsecond as since")

		res, err := store.Reserve(ctx, "k", pending(since), since, 1, false, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Admitted)
		assert.Empty(t, res.Counted)

		records, err = store.Attempts(ctx, "k", since.Add(-time.Nanosecond))
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("reserve admits up to limit", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		now := clock.Now()
		since := now.Add(-time.Minute)

		for i := 0; i < 3; i++ {
			res, err := store.Reserve(ctx, "k", pending(now), since, 3, false, time.Minute)
			require.NoError(t, err)
			require.True(t, res.Admitted)
			assert.Len(t, res.Counted, i)
		}

		res, err := store.Reserve(ctx, "k", pending(now), since, 3, false, time.Minute)
		require.NoError(t, err)
		assert.False(t, res.Admitted)
		require.Len(t, res.Counted, 3)
		for _, rec := range res.Counted {
			assert.Equal(t, authDomain.OutcomePending, rec.Outcome)
			assert.True(t, now.Equal(rec.At))
		}
	})

	t.Run("reserve skips successes when counting failures only", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		now := clock.Now()
		since := now.Add(-time.Minute)

		require.NoError(t, store.Record(ctx, "k", authDomain.AttemptRecord{At: now, Outcome: authDomain.OutcomeSuccess}, time.Minute))
		require.NoError(t, store.Record(ctx, "k", authDomain.AttemptRecord{At: now, Outcome: authDomain.OutcomeFailure}, time.Minute))

		res, err := store.Reserve(ctx, "k", pending(now), since, 2, true, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Admitted)
		assert.Len(t, res.Counted, 1)

		res, err = store.Reserve(ctx, "k", pending(now), since, 2, true, time.Minute)
		require.NoError(t, err)
		assert.False(t, res.Admitted, "pending reservations are counted")
		assert.Len(t, res.Counted, 2)

		res, err = store.Reserve(ctx, "k", pending(now), since, 4, false, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Admitted)
		assert.Len(t, res.Counted, 3)
	})

	t.Run("record settles the oldest pending reservation", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		first := clock.Now()
		since := first.Add(-time.Minute)

		_, err := store.Reserve(ctx, "k", pending(first), since, 5, false, time.Minute)
		require.NoError(t, err)
		_, err = store.Reserve(ctx, "k", pending(first.Add(time.Second)), since, 5, false, time.Minute)
		require.NoError(t, err)

		require.NoError(t, store.Record(ctx, "k", authDomain.AttemptRecord{At: first.Add(2 * time.Second), Outcome: authDomain.OutcomeFailure}, time.Minute))

		records, err := store.Attempts(ctx, "k", since)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, authDomain.OutcomeFailure, records[0].Outcome)
		assert.True(t, first.Equal(records[0].At), "settling keeps the admission time")
		assert.Equal(t, authDomain.OutcomePending, records[1].Outcome)
	})

	t.Run("release drops one pending reservation", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		now := clock.Now()
		since := now.Add(-time.Minute)

		require.NoError(t, store.Record(ctx, "k", authDomain.AttemptRecord{At: now, Outcome: authDomain.OutcomeFailure}, time.Minute))
		for i := 0; i < 2; i++ {
			_, err := store.Reserve(ctx, "k", pending(now), since, 5, false, time.Minute)
			require.NoError(t, err)
		}

		require.NoError(t, store.Release(ctx, "k"))
		require.NoError(t, store.Release(ctx, "missing"))

		records, err := store.Attempts(ctx, "k", since)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, authDomain.OutcomeFailure, records[0].Outcome)
		assert.Equal(t, authDomain.OutcomePending, records[1].Outcome)

		require.NoError(t, store.Release(ctx, "k"))
		require.NoError(t, store.Release(ctx, "k"))

		records, err = store.Attempts(ctx, "k", since)
		require.NoError(t, err)
		require.Len(t, records, 1, "settled records are never released")
	})
}

func pending(at time.Time) authDomain.AttemptRecord {
	return authDomain.AttemptRecord{At: at, Outcome: authDomain.OutcomePending}
}
