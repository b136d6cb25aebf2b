package web

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/prepwise"
	"github.com/MrEthical07/prepwise/identity"
)

// Toasts shown after a redirect or on a failed credential step.
const (
	toastAccountCreated = "Account created successfully. Please sign in."
	toastSignedIn       = "Signed in successfully!"
	toastSignInFailed   = "Sign in failed!"
	toastEmailInUse     = "Email already in use"
	toastSomethingWrong = "Something went wrong!"
)

func (s *Server) signInPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, pageAuth, http.StatusOK, pageData{
		Title: "Sign In",
		Form:  formView{Mode: modeSignIn},
	})
}

func (s *Server) signUpPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, pageAuth, http.StatusOK, pageData{
		Title: "Sign Up",
		Form:  formView{Mode: modeSignUp},
	})
}

func (s *Server) readForm(w http.ResponseWriter, r *http.Request) (authForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return authForm{}, false
	}
	return parseAuthForm(r.PostForm), true
}

func (s *Server) authFailed(w http.ResponseWriter, r *http.Request, status int, form authForm, mode formMode, errs map[string]string, msg string) {
	title := "Sign In"
	if mode == modeSignUp {
		title = "Sign Up"
	}
	var toast *flash
	if msg != "" {
		toast = &flash{Kind: flashError, Message: msg}
	}
	s.render(w, r, pageAuth, status, pageData{
		Title: title,
		Flash: toast,
		Form:  form.view(mode, errs, msg),
	})
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	form, ok := s.readForm(w, r)
	if !ok {
		return
	}
	if errs := form.validate(modeSignUp); errs != nil {
		s.authFailed(w, r, http.StatusUnprocessableEntity, form, modeSignUp, errs, "")
		return
	}

	ctx := r.Context()
	acct, err := s.accounts.CreateUser(ctx, form.Email, form.Password)
	if err != nil {
		status, msg := createUserFailure(err)
		if status >= http.StatusInternalServerError {
			s.log.Error(ctx, "create user failed", "error", err)
		} else {
			s.log.Debug(ctx, "create user rejected", "code", identity.CodeOf(err))
		}
		s.authFailed(w, r, status, form, modeSignUp, nil, msg)
		return
	}

	res := s.auth.Register(ctx, prepwise.RegisterRequest{
		IdentityID:  acct.UID,
		DisplayName: form.Username,
		Email:       acct.Email,
	})
	if !res.Success {
		status := http.StatusInternalServerError
		if res.Message == prepwise.MsgUserAlreadyExists || res.Message == prepwise.MsgEmailInUse {
			status = http.StatusConflict
		}
		s.authFailed(w, r, status, form, modeSignUp, nil, res.Message)
		return
	}

	s.setFlash(w, flashSuccess, toastAccountCreated)
	http.Redirect(w, r, s.signInPath, http.StatusSeeOther)
}

// createUserFailure maps a verifier error to a status and a user-facing
// message. Only codes the user can act on are shown verbatim.
func createUserFailure(err error) (int, string) {
	switch identity.CodeOf(err) {
	case identity.CodeEmailAlreadyExists:
		return http.StatusConflict, toastEmailInUse
	case identity.CodeInvalidEmail, identity.CodeWeakPassword:
		var ie *identity.Error
		if errors.As(err, &ie) {
			return http.StatusUnprocessableEntity, ie.Message
		}
	}
	return http.StatusInternalServerError, toastSomethingWrong
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	form, ok := s.readForm(w, r)
	if !ok {
		return
	}
	if errs := form.validate(modeSignIn); errs != nil {
		s.authFailed(w, r, http.StatusUnprocessableEntity, form, modeSignIn, errs, "")
		return
	}

	ctx := r.Context()
	idToken, err := s.accounts.SignInWithPassword(ctx, form.Email, form.Password)
	if err != nil || idToken == "" {
		status := http.StatusUnauthorized
		switch identity.CodeOf(err) {
		case identity.CodeTooManyRequests:
			status = http.StatusTooManyRequests
		case identity.CodeInternal:
			status = http.StatusInternalServerError
			s.log.Error(ctx, "password sign-in failed", "error", err)
		}
		s.authFailed(w, r, status, form, modeSignIn, nil, toastSignInFailed)
		return
	}

	res := s.auth.SignIn(ctx, prepwise.NewHTTPCookieJar(w, r), prepwise.SignInRequest{
		Email:   form.Email,
		IDToken: idToken,
	})
	if !res.Success {
		status := http.StatusInternalServerError
		if res.Message == prepwise.MsgUserNotFound {
			status = http.StatusUnauthorized
		}
		s.authFailed(w, r, status, form, modeSignIn, nil, res.Message)
		return
	}

	s.setFlash(w, flashSuccess, toastSignedIn)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	res := s.auth.SignOut(r.Context(), prepwise.NewHTTPCookieJar(w, r))
	if res.Success {
		s.setFlash(w, flashSuccess, res.Message)
	} else {
		s.setFlash(w, flashError, res.Message)
	}
	http.Redirect(w, r, s.signInPath, http.StatusSeeOther)
}
