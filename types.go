package prepwise

import (
	"context"
	"time"

	"github.com/MrEthical07/prepwise/identity"
)

// Result messages. The presentation layer only ever sees these strings.
const (
	MsgUserAlreadyExists = "User already exists"
	MsgUserCreated       = "User created successfully"
	MsgEmailInUse        = "Email already in use"
	MsgCreateUserFailed  = "Error creating a user"
	MsgUserNotFound      = "User not found"
	MsgSignedIn          = "User signed in successfully"
	MsgSignInFailed      = "Error signing in"
	MsgSignedOut         = "User signed out successfully"
	MsgSignOutFailed     = "Error signing out"
)

// User is a signed-in person as seen by the app.
type User struct {
	ID          string
	DisplayName string
	Email       string
}

// Result is the outcome of a registration, sign-in or sign-out.
type Result struct {
	Success bool
	Message string
}

// RegisterRequest describes a profile to store for an identity the
// credential verifier has already created. It never carries a password.
type RegisterRequest struct {
	IdentityID  string
	DisplayName string
	Email       string
}

// SignInRequest pairs the email the user typed with the id token the
// credential verifier issued for it.
type SignInRequest struct {
	Email   string
	IDToken string
}

// CredentialVerifier is the identity platform as the engine uses it.
// *identity.Verifier satisfies it.
type CredentialVerifier interface {
	GetUserByEmail(ctx context.Context, email string) (identity.Account, error)
	CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookie(ctx context.Context, cookie string, checkRevoked bool) (*identity.Token, error)
	RevokeSession(ctx context.Context, cookie string) error
}
