// internal/quota/store.go
//
// Daily generation allowance, persisted in SQLite.
// Responsibilities:
//   - Reserve a slot before a generation call and settle it afterwards.
//   - Count a caller by both its token subject and its hashed remote address,
//     so a fresh anonymous token or a dropped header does not reset the count.
//   - Report today's usage.
//
// Row states (ok column): -1 reserved, 1 succeeded, 0 failed. Failures never count.

package quota

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// ErrQuotaExceeded is returned by Reserve when a caller has used its daily allowance.
var ErrQuotaExceeded = errors.New("daily generation limit reached")

const (
	stateReserved = -1
	stateFailed   = 0
	stateOK       = 1
)

// Keys identifies a caller. Client is the token subject key (or the address key
// for guests); Addr is always the hashed remote address.
type Keys struct {
	Client string
	Addr   string
}

// Summary is a caller's usage for one day.
type Summary struct {
	Day   string `json:"day"`
	Used  int    `json:"used"`
	Limit int    `json:"limit"` // 0 = unlimited
}

// Store counts generations per caller per UTC day.
type Store struct {
	db    *sql.DB
	limit int
	now   func() time.Time
}

// NewStore wraps an open, migrated database. limit <= 0 disables the quota.
func NewStore(db *sql.DB, limit int) *Store {
	if limit < 0 {
		limit = 0
	}
	return &Store{db: db, limit: limit, now: time.Now}
}

// DayKey returns YYYY-MM-DD in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// AddrKey is a keyed hash of the remote host so raw addresses never reach the database.
func AddrKey(remoteAddr string) string {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	sum := blake2b.Sum256([]byte("imagematch-ip:" + host))
	return "ip:" + hex.EncodeToString(sum[:16])
}

// ClientKey returns the keys for a request: the token subject when the caller
// is authenticated, otherwise the address key, plus the address key itself.
func ClientKey(subject, remoteAddr string) Keys {
	addr := AddrKey(remoteAddr)
	if subject == "" {
		return Keys{Client: addr, Addr: addr}
	}
	return Keys{Client: "client:" + subject, Addr: addr}
}

// Reserve claims one of today's generations for k. It fails with
// ErrQuotaExceeded when either key has no allowance left. The check and the
// claim are one statement, so concurrent callers cannot overrun the limit.
func (s *Store) Reserve(ctx context.Context, k Keys, provider string) (string, error) {
	id := uuid.NewString()
	now := s.now()
	day := DayKey(now)
	created := now.UTC().Format(time.RFC3339Nano)

	if s.limit == 0 {
		_, err := s.db.ExecContext(ctx, `
            INSERT INTO generations (id, client_key, addr_key, day, provider, ok, duration_ms, created_at)
            VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
			id, k.Client, k.Addr, day, provider, stateReserved, created,
		)
		return id, err
	}

	res, err := s.db.ExecContext(ctx, `
        INSERT INTO generations (id, client_key, addr_key, day, provider, ok, duration_ms, created_at)
        SELECT ?, ?, ?, ?, ?, ?, 0, ?
        WHERE (SELECT COUNT(1) FROM generations WHERE client_key=? AND day=? AND ok IN (1,-1)) < ?
          AND (SELECT COUNT(1) FROM generations WHERE addr_key=? AND day=? AND ok IN (1,-1)) < ?`,
		id, k.Client, k.Addr, day, provider, stateReserved, created,
		k.Client, day, s.limit,
		k.Addr, day, s.limit,
	)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrQuotaExceeded
	}
	return id, nil
}

// Settle records the outcome of a reserved generation. A failed one stops
// counting against the allowance.
func (s *Store) Settle(ctx context.Context, id string, ok bool, elapsed time.Duration) error {
	state := stateFailed
	if ok {
		state = stateOK
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE generations SET ok=?, duration_ms=? WHERE id=? AND ok=?`,
		state, int(elapsed.Milliseconds()), id, stateReserved,
	)
	return err
}

// used counts succeeded and in-flight generations for column=key on day.
func (s *Store) used(ctx context.Context, column, key, day string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM generations WHERE `+column+`=? AND day=? AND ok IN (1,-1)`,
		key, day,
	).Scan(&n)
	return n, err
}

// Usage reports today's usage for k: the larger of its two counts, since that
// is the one that runs out first.
func (s *Store) Usage(ctx context.Context, k Keys) (Summary, error) {
	day := DayKey(s.now())
	byClient, err := s.used(ctx, "client_key", k.Client, day)
	if err != nil {
		return Summary{}, err
	}
	byAddr, err := s.used(ctx, "addr_key", k.Addr, day)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Day: day, Used: max(byClient, byAddr), Limit: s.limit}, nil
}
