// Package session persists session records in Redis.
//
// A record is written when a session cookie is minted and deleted when the
// session is revoked or signed out. Records are cbor-encoded with integer keys
// and carry a schema version; version 1 records (no AuthTime) are upgraded in
// place on read.
//
// The package does not parse tokens or decide who is signed in. The identity
// layer pairs a verified cookie with its record here.
package session
