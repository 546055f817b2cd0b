package domain

import "errors"

var (
	// ErrEndpointsUnavailable means the endpoint configuration could not be obtained for a cycle.
	ErrEndpointsUnavailable = errors.New("endpoint configuration unavailable")

	// ErrChainNotFound means the requested chain was not found in the registry.
	ErrChainNotFound = errors.New("chain not found")

	// ErrUpstreamSourceFailure means an error occurred while fetching data from the upstream registry (e.g., chainid.network).
	ErrUpstreamSourceFailure = errors.New("upstream source failure")

	// ErrRemoteProbeFailed means the remote prober could not be reached or returned an unusable answer.
	ErrRemoteProbeFailed = errors.New("remote probe failed")

	// ErrUnknownCheckMode means a check mode other than local or remote was requested.
	ErrUnknownCheckMode = errors.New("unknown check mode")
)
