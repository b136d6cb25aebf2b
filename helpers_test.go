package prepwise

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/prepwise/identity"
	"github.com/MrEthical07/prepwise/profile"
)

type memJar struct {
	in  map[string]string
	set []*http.Cookie
}

func newMemJar(cookies map[string]string) *memJar {
	if cookies == nil {
		cookies = map[string]string{}
	}
	return &memJar{in: cookies}
}

func (j *memJar) Cookie(name string) (string, bool) {
	v, ok := j.in[name]
	return v, ok
}

func (j *memJar) SetCookie(c *http.Cookie) {
	j.set = append(j.set, c)
}

func (j *memJar) last(t *testing.T) *http.Cookie {
	t.Helper()
	if len(j.set) == 0 {
		t.Fatal("expected a cookie to be set")
	}
	return j.set[len(j.set)-1]
}

type fakeVerifier struct {
	mu sync.Mutex

	users       map[string]identity.Account // by email
	sessions    map[string]string           // cookie -> uid
	lookupErr   error
	createErr   error
	verifyErr   error
	revokeErr   error
	lastExpires time.Duration

	lookupCalls int
	createCalls int
	verifyCalls int
	revokeCalls int
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{
		users:    map[string]identity.Account{},
		sessions: map[string]string{},
	}
}

func (f *fakeVerifier) GetUserByEmail(_ context.Context, email string) (identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	if f.lookupErr != nil {
		return identity.Account{}, f.lookupErr
	}
	acct, ok := f.users[email]
	if !ok {
		return identity.Account{}, &identity.Error{Code: identity.CodeUserNotFound, Message: "no user"}
	}
	return acct, nil
}

func (f *fakeVerifier) CreateSessionCookie(_ context.Context, idToken string, expiresIn time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastExpires = expiresIn
	if f.createErr != nil {
		return "", f.createErr
	}
	cookie := "cookie-for-" + idToken
	f.sessions[cookie] = idToken
	return cookie, nil
}

func (f *fakeVerifier) VerifySessionCookie(_ context.Context, cookie string, checkRevoked bool) (*identity.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if !checkRevoked {
		return nil, errors.New("revocation check must be requested")
	}
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	uid, ok := f.sessions[cookie]
	if !ok {
		return nil, &identity.Error{Code: identity.CodeInvalidSessionCookie, Message: "unknown cookie"}
	}
	return &identity.Token{UID: uid}, nil
}

func (f *fakeVerifier) RevokeSession(_ context.Context, cookie string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeCalls++
	if f.revokeErr != nil {
		return f.revokeErr
	}
	delete(f.sessions, cookie)
	return nil
}

type countingStore struct {
	mu       sync.Mutex
	docs     map[string]profile.Document
	getErr   error
	setErr   error
	getCalls int
	setCalls int
}

func newCountingStore() *countingStore {
	return &countingStore{docs: map[string]profile.Document{}}
}

func (s *countingStore) Get(_ context.Context, id string) (profile.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.getErr != nil {
		return profile.Document{}, s.getErr
	}
	doc, ok := s.docs[id]
	if !ok {
		return profile.Document{}, profile.ErrNotFound
	}
	return doc, nil
}

func (s *countingStore) Set(_ context.Context, id string, doc profile.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	if s.setErr != nil {
		return s.setErr
	}
	s.docs[id] = doc
	return nil
}

func newTestEngine(t *testing.T, v CredentialVerifier, store profile.Store) *Engine {
	t.Helper()
	e, err := New().WithVerifier(v).WithProfileStore(store).Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}
