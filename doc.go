/*
Package authgate provides HTTP middleware that authenticates requests with
bearer credentials issued by an external identity provider.

The provider's public signing keys are fetched once at startup and cached;
requests are verified locally against that cache and never wait on the
provider unless they name a key id the cache has not seen yet.

# Quick Start

	import (
	    "github.com/authify/authgate"
	    "github.com/authify/authgate/jwks"
	    "github.com/authify/authgate/validator"
	)

	func main() {
	    provider, err := jwks.NewProvider()
	    if err != nil {
	        log.Fatal(err)
	    }

	    cache, err := jwks.NewCache(provider)
	    if err != nil {
	        log.Fatal(err)
	    }
	    // Never serve without keys.
	    if err := cache.Prime(context.Background()); err != nil {
	        log.Fatal(err)
	    }

	    v, err := validator.New(
	        validator.WithKeyCache(cache),
	        validator.ForFirebaseProject("my-project"),
	    )
	    if err != nil {
	        log.Fatal(err)
	    }

	    gate, err := authgate.New(authgate.WithValidator(v))
	    if err != nil {
	        log.Fatal(err)
	    }

	    http.Handle("/api/", gate.Handler(apiHandler))
	    http.ListenAndServe(":8081", nil)
	}

Public routes are simply not wrapped by the Gate.

# Accessing the Identity

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    id := authgate.MustGetIdentity(r.Context())
	    fmt.Fprintf(w, "hello %s", id.UID)
	}

# Error Responses

Every credential failure answers 401 with the same body:

	{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing credentials."}}

The precise reason (expired, unknown_key, signature_invalid, ...) is logged
and counted but not disclosed. Use WithErrorHandler to change the response;
errors.Is(err, core.ErrExpired) and friends tell the reasons apart.

# Other Frameworks

framework/gin, framework/echo and framework/grpc run the same check through
Gate.Core for their respective transports.
*/
package authgate
