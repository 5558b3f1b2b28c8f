package guard

import (
	"context"
	"time"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
)

// Store persists attempt records per key.
//
// Window bounds resolve at microsecond granularity in every implementation:
// a record is inside a window starting at since when its microsecond
// timestamp is strictly greater than that of since.
type Store interface {
	// Reserve counts the records of key inside the window starting at since and,
	// when fewer than limit are counted, appends rec in the same atomic step.
	// Successes are not counted when failuresOnly is set; pending records always are.
	Reserve(ctx context.Context, key string, rec authDomain.AttemptRecord, since time.Time, limit int, failuresOnly bool, ttl time.Duration) (Reservation, error)

	// Record settles the oldest pending record of key with rec.Outcome. When
	// nothing is pending, rec is appended. Records older than ttl may be discarded.
	Record(ctx context.Context, key string, rec authDomain.AttemptRecord, ttl time.Duration) error

	// Release drops the oldest pending record of key, if any.
	Release(ctx context.Context, key string) error

	// Attempts returns the records of key strictly after since, oldest first.
	Attempts(ctx context.Context, key string, since time.Time) ([]authDomain.AttemptRecord, error)

	// Reset forgets every record of key.
	Reset(ctx context.Context, key string) error
}

// Reservation is the result of Store.Reserve.
type Reservation struct {
	// Admitted reports whether the record was appended.
	Admitted bool
	// Counted holds the counted records seen before the reservation, oldest first.
	Counted []authDomain.AttemptRecord
}

func inWindow(at, since time.Time) bool {
	return at.UnixMicro() > since.UnixMicro()
}

func isCounted(rec authDomain.AttemptRecord, failuresOnly bool) bool {
	return !failuresOnly || rec.Outcome != authDomain.OutcomeSuccess
}
