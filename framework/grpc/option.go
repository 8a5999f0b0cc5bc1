package authgrpc

// Option defines a functional option for configuring the Interceptor.
type Option func(*Interceptor)

// WithExcludedMethods lists full method names (e.g. "/grpc.health.v1.Health/Check")
// that are served without a credential.
func WithExcludedMethods(methods []string) Option {
	methodSet := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		methodSet[m] = struct{}{}
	}
	return func(i *Interceptor) {
		i.exclusionChecker = func(method string) bool {
			_, ok := methodSet[method]
			return ok
		}
	}
}

// WithExclusionChecker sets a custom predicate for methods served without a
// credential.
func WithExclusionChecker(checker func(method string) bool) Option {
	return func(i *Interceptor) {
		i.exclusionChecker = checker
	}
}

// WithTokenExtractor sets how the credential is read from the call.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *Interceptor) {
		if extractor != nil {
			i.tokenExtractor = extractor
		}
	}
}
