/*
Package core holds the pieces of authgate that do not depend on a transport:
the error taxonomy, the Identity attached to a request, and Core, which runs a
Validator with logging, metrics and tracing around it.

	┌─────────────────────────────────────────────┐
	│  Transport adapters                         │
	│  (net/http gate, gin, echo, gRPC)           │
	└────────────────┬────────────────────────────┘
	                 │ CheckToken
	                 ▼
	┌─────────────────────────────────────────────┐
	│  Core (THIS PACKAGE)                        │
	└────────────────┬────────────────────────────┘
	                 │ ValidateToken
	                 ▼
	┌─────────────────────────────────────────────┐
	│  validator.Validator  ──►  jwks.Cache       │
	└─────────────────────────────────────────────┘

# Errors

Every rejection is a *ValidationError. It matches ErrUnauthenticated and the
sentinel for its code:

	id, err := c.CheckToken(ctx, token)
	switch {
	case errors.Is(err, core.ErrExpired):
	    // ...
	case errors.Is(err, core.ErrUnauthenticated):
	    // any other rejection
	}

# Identity

Adapters store the verified identity with WithIdentity; handlers read it back
with GetIdentity.
*/
package core
