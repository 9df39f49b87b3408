package repository

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Without Redis the repo issues self-contained signed states.
func TestOAuthStateSignedRoundTrip(t *testing.T) {
	s := NewOAuthStateRepo(nil, "secret")
	ctx := context.Background()

	state, err := s.Issue(ctx)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(strings.Split(state, ".")) != 3 {
		t.Fatalf("signed state has unexpected shape: %q", state)
	}
	if !s.Verify(ctx, state) {
		t.Fatal("freshly issued state does not verify")
	}
}

func TestOAuthStateTamperedSignature(t *testing.T) {
	s := NewOAuthStateRepo(nil, "secret")
	ctx := context.Background()

	state, err := s.Issue(ctx)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(state, ".")
	forged := "ffffffff" + parts[0][8:] + "." + parts[1] + "." + parts[2]
	if s.Verify(ctx, forged) {
		t.Fatal("tampered state verified")
	}
}

func TestOAuthStateWrongSecret(t *testing.T) {
	issuer := NewOAuthStateRepo(nil, "secret-a")
	verifier := NewOAuthStateRepo(nil, "secret-b")
	ctx := context.Background()

	state, err := issuer.Issue(ctx)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if verifier.Verify(ctx, state) {
		t.Fatal("state verified under a different secret")
	}
}

func TestOAuthStateExpired(t *testing.T) {
	s := NewOAuthStateRepo(nil, "secret")
	ctx := context.Background()

	exp := time.Now().UTC().Add(-time.Minute).Unix()
	payload := "deadbeef." + strconv.FormatInt(exp, 10)
	state := payload + "." + s.sign(payload)
	if s.Verify(ctx, state) {
		t.Fatal("expired state verified")
	}
}

func TestOAuthStateEmptyOrOpaqueWithoutRedis(t *testing.T) {
	s := NewOAuthStateRepo(nil, "secret")
	ctx := context.Background()

	if s.Verify(ctx, "") {
		t.Fatal("empty state verified")
	}
	// A bare nonce needs the Redis store; without one it must fail.
	if s.Verify(ctx, "deadbeefdeadbeefdeadbeefdeadbeef") {
		t.Fatal("opaque nonce verified without redis")
	}
}

// A configured Redis client that cannot be written to must surface an
// error instead of quietly issuing a replayable signed state.
func TestOAuthStateNoSignedFallbackWhenRedisFails(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	s := NewOAuthStateRepo(rdb, "secret")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	state, err := s.Issue(ctx)
	if err == nil {
		t.Fatalf("Issue succeeded with unreachable redis, state %q", state)
	}
}
