package tts

// Route is the execution path chosen for a synthesis request.
type Route struct {
	// Cloud is true when synthesis goes through the remote backend.
	Cloud bool
	// Provider is the cloud provider identifier; empty for on-device.
	Provider string
}

// SelectProvider decides which synthesis path to use. The on-device engine
// is always available regardless of connectivity. A cloud provider while
// offline yields ErrOfflineCloudUnavailable, a recoverable condition: the
// caller should switch providers or wait for connectivity.
//
// Pure decision function, no side effects.
func SelectProvider(provider string, offline bool) (Route, error) {
	switch provider {
	case ProviderOnDevice:
		return Route{}, nil
	case ProviderAmazon, ProviderGoogle, ProviderAzure:
		if offline {
			return Route{}, ErrOfflineCloudUnavailable
		}
		return Route{Cloud: true, Provider: provider}, nil
	default:
		return Route{}, ErrUnknownProvider
	}
}
