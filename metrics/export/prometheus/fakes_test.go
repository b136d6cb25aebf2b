package prometheus

import (
	"context"
	"time"

	"github.com/MrEthical07/prepwise/identity"
	"github.com/MrEthical07/prepwise/profile"
)

type nopVerifier struct{}

func (nopVerifier) GetUserByEmail(context.Context, string) (identity.Account, error) {
	return identity.Account{}, &identity.Error{Code: identity.CodeUserNotFound}
}

func (nopVerifier) CreateSessionCookie(context.Context, string, time.Duration) (string, error) {
	return "", &identity.Error{Code: identity.CodeInvalidIDToken}
}

func (nopVerifier) VerifySessionCookie(context.Context, string, bool) (*identity.Token, error) {
	return nil, &identity.Error{Code: identity.CodeInvalidSessionCookie}
}

func (nopVerifier) RevokeSession(context.Context, string) error { return nil }

type nopStore struct{}

func (nopStore) Get(context.Context, string) (profile.Document, error) {
	return profile.Document{}, profile.ErrNotFound
}

func (nopStore) Set(context.Context, string, profile.Document) error { return nil }
