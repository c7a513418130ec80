// Package auth provides credential verification and security-token lifecycle
// management for the barbertime platform. It authenticates two principal
// kinds (end users and barbers) and manages the short-lived tokens used for
// email verification, password recovery, and one-time login codes.
//
// Principals:
//   - User and Barber share one capability set (id, email, password hash,
//     active flag, role). The generic Authenticator is parameterized over the
//     Principal interface so both kinds run the same verification algorithm
//     without kind-specific branching.
//
// Token lifecycle:
//   - TokenLifecycle issues, validates, and consumes typed tokens. Expiry is
//     recomputed lazily from ExpiresAt at read time; consumption is a single
//     one-way flag flip. A consumed or expired token never authenticates or
//     verifies anything again.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the authenticator
//     and the use-case handlers to describe login, token, and account events.
//     Sinks run best-effort (errors are logged) so you can forward to a
//     database or queue without blocking authentication.
package auth
