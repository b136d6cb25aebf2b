package web

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	minUsernameLen = 3
	minPasswordLen = 3
)

type formMode string

const (
	modeSignIn formMode = "sign-in"
	modeSignUp formMode = "sign-up"
)

// authForm is the submitted sign-in or sign-up form.
type authForm struct {
	Username string
	Email    string
	Password string
}

// formView is what the auth template needs. Password is never echoed back.
type formView struct {
	Mode     formMode
	Username string
	Email    string
	Errors   map[string]string
	Message  string
}

func (v formView) IsSignIn() bool { return v.Mode == modeSignIn }

func parseAuthForm(values url.Values) authForm {
	return authForm{
		Username: strings.TrimSpace(values.Get("username")),
		Email:    strings.TrimSpace(values.Get("email")),
		Password: values.Get("password"),
	}
}

// validate returns field errors keyed by input name. Username is only
// checked on sign-up.
func (f authForm) validate(mode formMode) map[string]string {
	errs := map[string]string{}
	if mode == modeSignUp && utf8.RuneCountInString(f.Username) < minUsernameLen {
		errs["username"] = "String must contain at least 3 character(s)"
	}
	if !validEmail(f.Email) {
		errs["email"] = "Invalid email"
	}
	if utf8.RuneCountInString(f.Password) < minPasswordLen {
		errs["password"] = "String must contain at least 3 character(s)"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func (f authForm) view(mode formMode, errs map[string]string, msg string) formView {
	return formView{
		Mode:     mode,
		Username: f.Username,
		Email:    f.Email,
		Errors:   errs,
		Message:  msg,
	}
}
