// Package profile stores one profile document per user identifier.
//
// Three backends implement [Store]: Redis (JSON values), PostgreSQL (a
// profiles table managed by embedded goose migrations) and MongoDB (a users
// collection keyed by _id). Writes are last-write-wins; the caller decides
// whether a record may be created.
package profile
