// Package simulator provides scripted stand-ins for everything outside
// playbridge: the identity service client, the resolution UI and error
// dialog, the share target, the leaderboard backend and the ad view.
//
// The stand-ins behave like their platform counterparts where it matters
// to the session: connection callbacks arrive asynchronously on the host
// looper, concurrent connects are merged, and UI outcomes come back as
// activity results.
package simulator
