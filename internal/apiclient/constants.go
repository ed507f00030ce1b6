package apiclient

import "time"

const (
	// DefaultTimeout bounds every call that does not set its own timeout
	DefaultTimeout = 30 * time.Second

	// HealthTimeout is used by the liveness probe
	HealthTimeout = 5 * time.Second

	// maxErrorBody caps the response text carried by an Error
	maxErrorBody = 512

	// signingService is the SigV4 service name of API Gateway
	signingService = "execute-api"
)
