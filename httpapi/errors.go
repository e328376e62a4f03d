package httpapi

import "github.com/bsv-blockchain/utxoledger/errors"

// errorResponse maps err's Kind to an HTTP status and a JSON-serializable
// body. Every validation kind the engine raises, plus ConfigurationError
// and NotFound, is a client mistake (400); StoreError and ServiceError are
// server-side failures (500); anything else (including a bare non-*Error)
// falls back to 500 so a caller never sees a 2xx alongside a failed
// operation.
func errorResponse(err error) (int, map[string]interface{}) {
	body := map[string]interface{}{"error": err.Error()}

	var e *errors.Error
	if errors.As(err, &e) {
		if data := e.Data(); data != nil {
			for k, v := range data.Fields() {
				body[k] = v
			}
		}

		switch e.Kind() {
		case errors.KindInvalidHeight,
			errors.KindInputNotFound,
			errors.KindValueMismatch,
			errors.KindInvalidBlockID,
			errors.KindInvalidHeightParam,
			errors.KindTargetAboveHead,
			errors.KindConfiguration,
			errors.KindNotFound:
			return 400, body
		case errors.KindStoreError, errors.KindServiceError:
			return 500, body
		}
	}

	return 500, body
}
