package tts

import "errors"

// Error taxonomy for the synthesis core. None of these are fatal to the
// process; see IsRecoverable.
var (
	// ErrOfflineCloudUnavailable is returned when a cloud provider is
	// configured but the device is offline. The user must switch to the
	// on-device engine or wait for connectivity.
	ErrOfflineCloudUnavailable = errors.New("cloud synthesis is not available offline")

	// ErrCloudRequestFailed wraps network or non-2xx failures from the
	// synthesis backend. Retry by re-invoking speak or export.
	ErrCloudRequestFailed = errors.New("cloud synthesis request failed")

	// ErrEngineConfiguration marks a failed voice/language/rate/pitch call
	// on the on-device engine. Callers log and continue with defaults.
	ErrEngineConfiguration = errors.New("engine configuration failed")

	// ErrExportFailed is returned when an audio export cannot be produced
	// or written.
	ErrExportFailed = errors.New("audio export failed")

	// ErrExportUnsupported is returned by engines that cannot synthesize to
	// a file on the current platform.
	ErrExportUnsupported = errors.New("engine does not support file synthesis")

	// ErrNoContent is returned when speak or export is invoked with no
	// document loaded.
	ErrNoContent = errors.New("no content loaded")

	// ErrUnknownProvider is returned for provider identifiers outside the
	// configured set.
	ErrUnknownProvider = errors.New("unknown synthesis provider")
)

// IsRecoverable reports whether the error leaves the session usable. The
// whole taxonomy is recoverable by design; this exists so callers don't
// hard-code that assumption.
func IsRecoverable(err error) bool {
	return err != nil
}
