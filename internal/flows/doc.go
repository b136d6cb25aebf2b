// Package flows holds the orchestration behind every Engine operation.
//
// Each Run* function takes a typed dependency struct and returns a result;
// stores, the credential verifier, metrics and audit are reached only through
// that struct. The Engine builds the structs once and stays thin.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import prepwise (to avoid import cycles).
//   - Let an error cross to the caller where a closed Result is expected.
package flows
