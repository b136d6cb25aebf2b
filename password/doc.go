// Package password hashes and verifies account passwords with argon2id.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters so the
// identity layer can re-hash on the next successful sign-in.
//
// This package never stores passwords and never logs them.
package password
