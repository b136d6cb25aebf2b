package session

// CurrentSchemaVersion is written by Encode. Older records are upgraded on read.
const CurrentSchemaVersion uint8 = 2

// Session is the server-side half of a session cookie. Its existence in Redis
// is the revocation signal: a cookie whose record is gone has been revoked.
type Session struct {
	SchemaVersion uint8  `cbor:"1,keyasint"`
	SessionID     string `cbor:"-"`
	UserID        string `cbor:"2,keyasint"`

	// AuthTime is the unix second of the password sign-in that produced the cookie.
	AuthTime int64 `cbor:"5,keyasint,omitempty"`

	CreatedAt int64 `cbor:"3,keyasint"`
	ExpiresAt int64 `cbor:"4,keyasint"`
}
