// Package host is the glue between the platform activity and playbridge's
// services.
//
// The [Looper] plays the role of the platform's main thread: a single FIFO
// of tasks. The [Activity] owns the session manager, leaderboard, ad banner
// and share builder, and every one of its entry points posts onto the
// looper. Nothing in this package is global; the platform adapter holds the
// Activity and passes it wherever a callback needs to reach the session.
package host
