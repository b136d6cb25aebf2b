package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/prepwise/internal/codec"
)

const accountSchemaVersion uint8 = 1

// Account is a credential record. It is never shown to the presentation layer
// with PasswordHash populated.
type Account struct {
	SchemaVersion    uint8  `cbor:"1,keyasint"`
	UID              string `cbor:"2,keyasint"`
	Email            string `cbor:"3,keyasint"`
	PasswordHash     string `cbor:"4,keyasint"`
	CreatedAt        int64  `cbor:"5,keyasint"`
	TokensValidAfter int64  `cbor:"6,keyasint,omitempty"`
	LastSignInAt     int64  `cbor:"7,keyasint,omitempty"`
}

func (a Account) public() Account {
	a.PasswordHash = ""
	return a
}

var errAccountNotFound = errors.New("account not found")

type accountStore struct {
	redis  redis.UniversalClient
	prefix string
}

func (s *accountStore) key(uid string) string {
	return s.prefix + ":acct:" + uid
}

func (s *accountStore) emailKey(email string) string {
	return s.prefix + ":email:" + normalizeEmail(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// reserveEmail claims email for uid. It reports false when another account
// already holds it.
func (s *accountStore) reserveEmail(ctx context.Context, email, uid string) (bool, error) {
	ok, err := s.redis.SetNX(ctx, s.emailKey(email), uid, 0).Result()
	if err != nil {
		return false, fmt.Errorf("reserve email: %w", err)
	}
	return ok, nil
}

func (s *accountStore) releaseEmail(ctx context.Context, email string) error {
	return s.redis.Del(ctx, s.emailKey(email)).Err()
}

func (s *accountStore) put(ctx context.Context, a *Account) error {
	a.SchemaVersion = accountSchemaVersion
	data, err := codec.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(a.UID), data, 0).Err(); err != nil {
		return fmt.Errorf("store account: %w", err)
	}
	return nil
}

func (s *accountStore) get(ctx context.Context, uid string) (*Account, error) {
	data, err := s.redis.Get(ctx, s.key(uid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	var a Account
	if err := codec.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	if a.SchemaVersion != accountSchemaVersion || a.UID != uid {
		return nil, fmt.Errorf("decode account: unexpected record for %q", uid)
	}
	return &a, nil
}

func (s *accountStore) getByEmail(ctx context.Context, email string) (*Account, error) {
	uid, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errAccountNotFound
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	return s.get(ctx, uid)
}
