package repository

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/loan-ledger/internal/utils"
)

// stateTTL bounds how long an issued OAuth state nonce stays valid.
const stateTTL = 10 * time.Minute

// OAuthStateRepo issues and verifies the state parameter for the
// Discord sign-in flow. With a Redis client the state is a stored
// one-time nonce; without one it is an HMAC-signed value that carries
// its own expiry. Stored nonces are deleted on first use, while a
// signed state verifies any number of times until it expires, so the
// signed form is used only when no Redis client was configured at all.
type OAuthStateRepo struct {
	rdb    *redis.Client // may be nil
	secret []byte
}

// NewOAuthStateRepo builds a state repo. rdb may be nil.
func NewOAuthStateRepo(rdb *redis.Client, secret string) *OAuthStateRepo {
	return &OAuthStateRepo{rdb: rdb, secret: []byte(secret)}
}

// Issue returns a fresh state value to embed in the authorize URL.
// When a Redis client is present a failed write is an error rather
// than a downgrade to the signed form.
func (s *OAuthStateRepo) Issue(ctx context.Context) (string, error) {
	nonce, err := utils.NewID()
	if err != nil {
		return "", err
	}
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, stateKey(nonce), "1", stateTTL).Err(); err != nil {
			return "", err
		}
		return nonce, nil
	}
	exp := time.Now().UTC().Add(stateTTL).Unix()
	payload := nonce + "." + strconv.FormatInt(exp, 10)
	return payload + "." + s.sign(payload), nil
}

// Verify consumes a state value. Stored nonces are deleted on first
// use so each state is single-use; signed states are validated against
// the embedded expiry.
func (s *OAuthStateRepo) Verify(ctx context.Context, state string) bool {
	if state == "" {
		return false
	}
	parts := strings.Split(state, ".")
	if len(parts) == 3 {
		payload := parts[0] + "." + parts[1]
		if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[2])) {
			return false
		}
		exp, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return false
		}
		return time.Now().UTC().Unix() <= exp
	}
	if s.rdb == nil {
		return false
	}
	n, err := s.rdb.Del(ctx, stateKey(state)).Result()
	return err == nil && n == 1
}

func (s *OAuthStateRepo) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func stateKey(nonce string) string { return "oauth:state:" + nonce }
