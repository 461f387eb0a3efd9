// Package user implements the account service: registration and login by
// nickname or email, profile reads with avatar resolution through the file
// service, session-guarded profile writes, and user search.
//
// Profiles are stored twice. The relational row is authoritative; the search
// index carries the same fields for keyword lookup. Writes go index-first,
// row-second, and a failed row write restores the previous index state so
// the two stores never drift silently. Login state lives in the cache: one
// session key per login and one status key per user, which is what makes a
// second concurrent login detectable.
//
// Nicknames and descriptions pass a text moderator before they are stored.
// A moderator outage rejects the write rather than letting unscreened text
// through.
package user
