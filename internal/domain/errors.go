package domain

import "errors"

// Catalog error taxonomy. Every error returned by the catalog and the
// product workflow wraps exactly one of these.
var (
	ErrMissingField     = errors.New("please fill in all required fields")
	ErrInvalidPrice     = errors.New("please enter a valid price")
	ErrInvalidImageURL  = errors.New("please enter a valid image URL")
	ErrNotAuthenticated = errors.New("you must be logged in to add a product")
	ErrUnauthorized     = errors.New("you are not allowed to perform this action")
	ErrNotFound         = errors.New("product not found")
	ErrStoreUnavailable = errors.New("product store unavailable")
)

// ErrorKind is the stable, machine-readable name of a catalog error
type ErrorKind string

const (
	KindMissingField     ErrorKind = "MissingField"
	KindInvalidPrice     ErrorKind = "InvalidPrice"
	KindInvalidImageURL  ErrorKind = "InvalidImageUrl"
	KindNotAuthenticated ErrorKind = "NotAuthenticated"
	KindUnauthorized     ErrorKind = "Unauthorized"
	KindNotFound         ErrorKind = "NotFound"
	KindStoreUnavailable ErrorKind = "StoreUnavailable"
	KindUnknown          ErrorKind = "Unknown"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrMissingField, KindMissingField},
	{ErrInvalidPrice, KindInvalidPrice},
	{ErrInvalidImageURL, KindInvalidImageURL},
	{ErrNotAuthenticated, KindNotAuthenticated},
	{ErrUnauthorized, KindUnauthorized},
	{ErrNotFound, KindNotFound},
	{ErrStoreUnavailable, KindStoreUnavailable},
}

// KindOf returns the kind of the first taxonomy error found in err's chain
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// Message returns the user-facing message for err. Wrapped store failures
// are collapsed to the sentinel text so driver details never leak.
func Message(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err.Error()
		}
	}
	return "internal server error"
}
