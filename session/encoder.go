package session

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/prepwise/internal/codec"
)

// ErrCorrupt is returned by Decode for bytes that are not a session record.
var ErrCorrupt = errors.New("session record corrupt")

// Encode serializes s at CurrentSchemaVersion. SessionID is the Redis key and
// is not part of the payload.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}
	if s.UserID == "" {
		return nil, errors.New("session has no user")
	}
	if len(s.UserID) > 255 {
		return nil, errors.New("userID too long")
	}

	out := *s
	out.SchemaVersion = CurrentSchemaVersion
	return codec.Marshal(&out)
}

// Decode parses a stored record. Version 1 records decode with AuthTime set to
// CreatedAt, which is when the version 1 writer signed the user in.
func Decode(data []byte) (*Session, error) {
	if len(data) == 0 {
		return nil, ErrCorrupt
	}

	var s Session
	if err := codec.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	switch s.SchemaVersion {
	case CurrentSchemaVersion:
	case 1:
		if s.AuthTime == 0 {
			s.AuthTime = s.CreatedAt
		}
	default:
		return nil, fmt.Errorf("%w: unknown schema version %d", ErrCorrupt, s.SchemaVersion)
	}
	if s.UserID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrCorrupt)
	}

	return &s, nil
}
