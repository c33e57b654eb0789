// Package state tracks pending login attempts by their anti-forgery state
// token. Each attempt gets its own row, so concurrent logins from different
// browsers never clobber each other's token.
package state

import (
	"context"
	"crypto/hmac"
	"database/sql"
	"errors"
	"time"

	"github.com/tokopintar/gatehouse/engine"
)

// TTL is how long a minted state token remains redeemable.
const TTL = 5 * time.Minute

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) AttachWorkers(mgr *engine.ProcMgr) {
	mgr.Add(engine.Poll(time.Minute, s.cleanup()))
}

func (s *Store) cleanup() engine.PollingFunc {
	return engine.Cleanup(s.db, "login states",
		"DELETE FROM login_states WHERE created <= unixepoch() - ?", int64(TTL.Seconds()))
}

// Put stores a freshly minted state token.
func (s *Store) Put(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO login_states (token) VALUES (?)", token)
	return err
}

// Take redeems a state token. The row is removed no matter what, so a token
// can only ever be redeemed once. Absent, expired and mismatched tokens are
// indistinguishable to the caller.
func (s *Store) Take(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	var stored string
	var created int64
	err := s.db.QueryRowContext(ctx,
		"DELETE FROM login_states WHERE token = ? RETURNING token, created", token).
		Scan(&stored, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if time.Now().Unix()-created > int64(TTL.Seconds()) {
		return false, nil
	}
	return hmac.Equal([]byte(stored), []byte(token)), nil
}
