// Package scenario loads and replays scripted runs of the host.
//
// A scenario is a YAML document naming the simulated client's connect
// results, the resolution UI outcomes and a list of steps:
//
//	name: resolution round trip
//	connect:
//	  - fail:4:resolvable
//	resolutions: [ok]
//	steps:
//	  - start
//	  - action: score
//	    score: 1200
//	    expect_phase: connected
//
// The [Runner] wires a real session manager, leaderboard, banner and share
// builder to the simulator and records every event in a [Transcript].
package scenario
