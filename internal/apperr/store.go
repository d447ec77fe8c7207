package apperr

import (
	"context"
	"errors"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/store"
)

// FromStore maps a document store failure onto the taxonomy. Errors that
// already carry a kind pass through.
func FromStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Wrap(KindNotFound, op, err)
	case errors.Is(err, store.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return Wrap(KindStoreUnavailable, op, err)
	}
	return Wrap(KindUnknown, op, err)
}
