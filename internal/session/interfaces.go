package session

// Client is the backing identity/leaderboard service client.
//
// Connect and Disconnect are asynchronous; results arrive through the
// ConnectionCallbacks passed to Register. A client merges Connect calls it
// is already servicing.
type Client interface {
	Register(callbacks ConnectionCallbacks)
	Connect()
	Disconnect()
	IsConnecting() bool
	IsConnected() bool
}

// ConnectionCallbacks receives connection results from a Client.
// Manager implements it.
type ConnectionCallbacks interface {
	OnConnected()
	OnConnectionSuspended(cause int)
	OnConnectionFailed(hasResolution bool, errorCode int)
}

// Launcher starts user-facing recovery UIs on the host.
type Launcher interface {
	// StartResolution starts the service's resolution UI. The outcome is
	// delivered later as an activity result carrying requestCode. An error
	// means the UI could not be started at all.
	StartResolution(errorCode, requestCode int) error

	// ShowErrorDialog shows a blocking dialog for errorCode. Its dismissal
	// must be reported through Manager.OnResolutionDialogDismissed.
	ShowErrorDialog(errorCode, requestCode int)
}
