// Package identity is the credential verifier: it owns email/password
// accounts, mints short-lived id tokens on password sign-in and exchanges
// them for long-lived session cookies.
//
// Accounts and session records live in Redis. Failures are *Error values
// whose Code follows the identity platform vocabulary ("auth/user-not-found",
// "auth/email-already-exists", ...); match them with HasCode.
package identity
