// Package web is the HTML front end: the sign-in and sign-up forms, the home
// page and the interview call screen.
//
// Handlers talk to the session engine and the credential verifier only
// through the Auth and Accounts interfaces. Pages render from templates
// embedded in the binary.
package web
