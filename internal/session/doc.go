// Package session manages the connection to the identity/leaderboard
// service.
//
// A [Manager] owns the session [State] and is driven by three sources, all
// delivered on the host's single sequencing context:
//
//   - host lifecycle signals: [Manager.OnHostStarted], [Manager.OnHostStopped]
//     and [Manager.OnHostActivityResult]
//   - client callbacks through [ConnectionCallbacks]
//   - the blocking dialog's [Manager.OnResolutionDialogDismissed]
//
// Phases move Disconnected -> Connecting -> Connected. A connection failure
// moves the session to ResolvingError and emits exactly one
// [RecoveryAction]: [StartResolutionUI] when the service offers a fix,
// [ShowBlockingDialog] otherwise. Further failures are ignored until that
// flow ends. Suspensions and resolution UIs that cannot be started are
// treated as transient and reconnect immediately.
//
// The Manager is created by the host and injected into the client with
// [Client.Register]; there is no package-level instance.
package session
