// Package auth is the client side session layer of the gallery marketplace:
// it signs users in against the gallery API, keeps the bearer credential
// issued by the server and derives the Identity that UI and HTTP guards
// read.
//
// Session lifecycle:
//   - SessionService runs Register, Login and Logout against an AuthAPI and
//     persists the credential through a CredentialStore. The credential is
//     the only trusted source of identity: role and subject are decoded from
//     it by a ClaimsDecoder, never taken from the login response body.
//   - Register never starts a session. Callers log in afterwards.
//   - CurrentIdentity purges a malformed or expired credential and reports
//     Unauthenticated instead of failing.
//
// Identity context:
//   - IdentityContext holds the process wide Identity. It starts Loading,
//     resolves once through Load and changes only on Login and Logout.
//     A Login overtaken by a newer transition is discarded before its
//     credential is stored, so store and identity never disagree.
//   - BearerTransport reads the same snapshot to authenticate outgoing API
//     calls, so a signed out session stops sending its credential at once.
//
// Guards:
//   - IsAuthenticated, IsArtist, IsOwner and CanEdit are pure functions of
//     an Identity. The middleware/guard package turns them into fiber
//     handlers, TemplateHelpers exposes them to view templates.
//
// Activity sinks:
//   - ActivitySink receives login, logout, registration and purge events.
//     Sinks run best-effort (errors are logged) so you can forward to a
//     database or queue without blocking the session flow.
package auth
