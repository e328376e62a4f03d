package errors

// One constructor per Kind.

// NewInvalidHeightError reports a block submitted at the wrong height.
func NewInvalidHeightError(message string, args ...interface{}) *Error {
	return New(KindInvalidHeight, message, args...)
}

// InputNotFoundData is the structured payload for KindInputNotFound: the
// UTXO key the block referenced that was absent from the pre-block
// snapshot.
type InputNotFoundData struct {
	Key string
}

func (d InputNotFoundData) Fields() map[string]interface{} {
	return map[string]interface{}{"missing": d.Key}
}

// NewInputNotFoundError reports a block whose input references a UTXO
// absent from the pre-block snapshot.
func NewInputNotFoundError(key string) *Error {
	return New(KindInputNotFound, "input not found: %s", key).WithData(InputNotFoundData{Key: key})
}

// NewValueMismatchError reports a non-coinbase transaction whose input sum
// does not equal its output sum.
func NewValueMismatchError(message string, args ...interface{}) *Error {
	return New(KindValueMismatch, message, args...)
}

// InvalidBlockIDData is the structured payload for KindInvalidBlockID.
type InvalidBlockIDData struct {
	Expected  string
	Received  string
	HashInput string
}

func (d InvalidBlockIDData) Fields() map[string]interface{} {
	return map[string]interface{}{
		"expected":  d.Expected,
		"received":  d.Received,
		"hashInput": d.HashInput,
	}
}

// NewInvalidBlockIDError reports a block whose submitted id does not match
// the computed digest.
func NewInvalidBlockIDError(expected, received, hashInput string) *Error {
	return New(KindInvalidBlockID, "block id mismatch: expected %s, received %s", expected, received).
		WithData(InvalidBlockIDData{Expected: expected, Received: received, HashInput: hashInput})
}

// NewInvalidHeightParamError reports a rollback request whose target height
// is not a finite integer >= 1.
func NewInvalidHeightParamError(message string, args ...interface{}) *Error {
	return New(KindInvalidHeightParam, message, args...)
}

// NewTargetAboveHeadError reports a rollback request whose target height is
// above the current chain head.
func NewTargetAboveHeadError(message string, args ...interface{}) *Error {
	return New(KindTargetAboveHead, message, args...)
}

// NewStoreError reports a persistent-store failure (connection, aborted
// transaction, constraint violation).
func NewStoreError(message string, args ...interface{}) *Error {
	return New(KindStoreError, message, args...)
}

// WrapStoreError wraps an underlying store driver error as a StoreError.
func WrapStoreError(err error, message string, args ...interface{}) *Error {
	return Wrap(KindStoreError, err, message, args...)
}

// NewConfigurationError reports a missing or invalid startup configuration
// value.
func NewConfigurationError(message string, args ...interface{}) *Error {
	return New(KindConfiguration, message, args...)
}

// NewNotFoundError reports a lookup that found nothing, for callers that
// want to distinguish "absent" from "zero" (the ledger itself never
// returns this for balance lookups, but other components may).
func NewNotFoundError(message string, args ...interface{}) *Error {
	return New(KindNotFound, message, args...)
}

// NewServiceError reports a failure in the lifecycle of a managed service
// (init, start, stop, or dependency coordination), raised by
// util/servicemanager rather than by the ledger domain itself.
func NewServiceError(message string, args ...interface{}) *Error {
	return New(KindServiceError, message, args...)
}
