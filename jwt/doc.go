// Package jwt issues and verifies the signed tokens behind id tokens and
// session cookies. Every token carries a Kind claim; Parse rejects a token
// presented as the wrong kind.
package jwt
