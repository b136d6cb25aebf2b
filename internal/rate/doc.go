// Package rate throttles password sign-in attempts with Redis fixed-window
// counters: INCR, then EXPIRE on the first hit of a window.
//
// Keys live under the configured prefix:
//   - <prefix>:e:<email> failed attempts per email
//   - <prefix>:i:<ip>    failed attempts per client address
package rate
