package governor

// classification decides what the retry loop does with one failed attempt
type classification struct {
	kind       Kind
	retryable  bool
	notFound   bool
	classified bool
}

func classify(err error) classification {
	switch CategoryOf(err) {
	case CategoryOrderNotFound:
		return classification{notFound: true, classified: true}
	case CategoryInvalidOrder:
		return classification{kind: KindInvalidRequest, classified: true}
	case CategoryAuthentication:
		return classification{kind: KindAuthenticationFailed, classified: true}
	case CategoryPermissionDenied:
		return classification{kind: KindPermissionDenied, classified: true}
	case CategoryInvalidNonce:
		return classification{kind: KindRateLimited, classified: true}
	case CategoryExchangeError:
		return classification{kind: KindExchangeRejected, classified: true}
	case CategoryNetworkError, CategoryRemoteDisconnected, CategoryExchangeNotAvailable, CategoryServiceUnavailable:
		return classification{kind: KindServiceUnavailable, retryable: true, classified: true}
	default:
		return classification{kind: KindServiceUnavailable}
	}
}
