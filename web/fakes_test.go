package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/MrEthical07/prepwise"
	"github.com/MrEthical07/prepwise/identity"
)

type fakeAuth struct {
	user *prepwise.User

	registerRes prepwise.Result
	signInRes   prepwise.Result
	signOutRes  prepwise.Result

	registered []prepwise.RegisterRequest
	signIns    []prepwise.SignInRequest
	signOuts   int
}

func (f *fakeAuth) CurrentUser(_ context.Context, jar prepwise.CookieJar) (*prepwise.User, bool) {
	if f.user == nil {
		return nil, false
	}
	if v, ok := jar.Cookie("session"); !ok || v == "" {
		return nil, false
	}
	return f.user, true
}

func (f *fakeAuth) Register(_ context.Context, req prepwise.RegisterRequest) prepwise.Result {
	f.registered = append(f.registered, req)
	return f.registerRes
}

func (f *fakeAuth) SignIn(_ context.Context, jar prepwise.CookieJar, req prepwise.SignInRequest) prepwise.Result {
	f.signIns = append(f.signIns, req)
	if f.signInRes.Success {
		jar.SetCookie(&http.Cookie{Name: "session", Value: "cookie-for-" + req.IDToken, Path: "/"})
	}
	return f.signInRes
}

func (f *fakeAuth) SignOut(_ context.Context, jar prepwise.CookieJar) prepwise.Result {
	f.signOuts++
	jar.SetCookie(&http.Cookie{Name: "session", Path: "/", MaxAge: -1})
	return f.signOutRes
}

type fakeAccounts struct {
	createErr error
	signInErr error
	token     string

	created []string
}

func (f *fakeAccounts) CreateUser(_ context.Context, email, _ string) (identity.Account, error) {
	f.created = append(f.created, email)
	if f.createErr != nil {
		return identity.Account{}, f.createErr
	}
	return identity.Account{UID: "uid-1", Email: email}, nil
}

func (f *fakeAccounts) SignInWithPassword(context.Context, string, string) (string, error) {
	if f.signInErr != nil {
		return "", f.signInErr
	}
	return f.token, nil
}

func newTestServer(t *testing.T, auth *fakeAuth, accounts *fakeAccounts) http.Handler {
	t.Helper()
	s, err := New(Options{Auth: auth, Accounts: accounts})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s.Handler()
}

func postForm(h http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

func flashFrom(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	c := responseCookie(rec, flashCookie)
	if c == nil {
		t.Fatal("expected a flash cookie")
	}
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		t.Fatalf("unescape flash: %v", err)
	}
	return v
}
