// Package logging provides structured logging for playbridge.
//
// It wraps log/slog with a JSON handler and adds persistent attributes so
// every component can tag its entries without threading context around:
//
//	logger, err := logging.NewLogger(dir, logging.LevelInfo)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	log := logger.WithSession("a1b2").WithPhase("session")
//	log.Info("connect requested", "attempt", 2)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"connect requested","session_id":"a1b2","phase":"session","attempt":2}
//
// When a directory is configured the file is written through a
// [RotatingWriter], which renames the file to playbridge.log.1 once it would
// exceed the configured size. Components accept a nil *Logger and fall back
// to [NopLogger].
package logging
