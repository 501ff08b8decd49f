// Package sequencer provides collision-free sequential document codes.
//
// Codes are per-family per-day: PO-20260827-0001, SO-20260827-0012, ...
// Concurrent writers sharing a prefix are serialized by a transaction-scoped
// named lock keyed by a stable hash of the prefix; the highest existing
// suffix is then read and incremented. A uniqueness violation is defensive
// only and retried a bounded number of times.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ritel/internal/core/apperror"
)

// Families of sequenced documents. Each family gets its own prefix per day.
const (
	FamilyPurchase = "PO"
	FamilySale     = "SO"
	FamilyTrip     = "TR"
	FamilyPayment  = "PAY"
)

const (
	// PadWidth is the minimum numeric suffix width.
	PadWidth = 4

	// MaxAttempts bounds the defensive retry on unique violations.
	MaxAttempts = 3
)

// Querier is the database surface the sequencer needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// QuerierFunc resolves the querier for the current context. Inside a
// transaction it must return the transaction, so issued codes commit or roll
// back together with the document they number.
type QuerierFunc func(ctx context.Context) Querier

// Locker is the storage layer's named-mutex capability.
type Locker interface {
	// AcquireTxLock blocks until the transaction-scoped lock is held.
	AcquireTxLock(ctx context.Context, name string) error
}

// Service generates document codes.
type Service struct {
	querier QuerierFunc
	locker  Locker
	backoff time.Duration
	now     func() time.Time
}

// New creates a sequencer service.
func New(querier QuerierFunc, locker Locker) *Service {
	return &Service{
		querier: querier,
		locker:  locker,
		backoff: 25 * time.Millisecond,
		now:     time.Now,
	}
}

// BuildPrefix returns the per-day prefix for a document family.
func BuildPrefix(family string, day time.Time) string {
	return fmt.Sprintf("%s-%s", family, day.UTC().Format("20060102"))
}

// NextCode generates the next code for the family in today's day bucket.
// Must be called inside the caller's transaction.
func (s *Service) NextCode(ctx context.Context, family string) (string, error) {
	return s.NextCodeForPrefix(ctx, BuildPrefix(family, s.now()))
}

// NextCodeForPrefix generates the next code for an explicit prefix.
// The prefix already encodes the date; all callers sharing it are serialized.
func (s *Service) NextCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("sequencer service is not initialized")
	}

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		code, err := s.tryNext(ctx, prefix)
		if err == nil {
			return code, nil
		}
		if !isUniqueViolation(err) {
			return "", err
		}
		lastErr = err
		// Defensive path only: the advisory lock should prevent this.
		if attempt < MaxAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.backoff * time.Duration(attempt)):
			}
		}
	}

	return "", apperror.NewSequenceCollision(prefix, MaxAttempts).WithCause(lastErr)
}

func (s *Service) tryNext(ctx context.Context, prefix string) (string, error) {
	if err := s.locker.AcquireTxLock(ctx, "seq:"+prefix); err != nil {
		return "", err
	}

	q := s.querier(ctx)

	var lastCode *string
	err := q.QueryRow(ctx, `
		SELECT code FROM sys_document_codes
		WHERE prefix = $1
		ORDER BY suffix DESC
		LIMIT 1
	`, prefix).Scan(&lastCode)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("read last code: %w", err)
	}

	next := int64(1)
	if lastCode != nil {
		suffix, perr := ParseSuffix(*lastCode)
		if perr != nil {
			return "", fmt.Errorf("parse last code %q: %w", *lastCode, perr)
		}
		next = suffix + 1
	}

	code := FormatCode(prefix, next)
	if _, err := q.Exec(ctx, `
		INSERT INTO sys_document_codes (prefix, suffix, code)
		VALUES ($1, $2, $3)
	`, prefix, next, code); err != nil {
		return "", fmt.Errorf("register code: %w", err)
	}

	return code, nil
}

// FormatCode builds the full code string from prefix and numeric suffix.
func FormatCode(prefix string, suffix int64) string {
	return fmt.Sprintf("%s-%0*d", prefix, PadWidth, suffix)
}

// ParseSuffix extracts the numeric suffix from a formatted code.
func ParseSuffix(code string) (int64, error) {
	idx := strings.LastIndex(code, "-")
	if idx < 0 || idx == len(code)-1 {
		return 0, fmt.Errorf("malformed code %q", code)
	}
	return strconv.ParseInt(code[idx+1:], 10, 64)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
