package commands

import (
	"errors"

	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
)

// classify passes domain outcomes through and marks everything else as a
// storage failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		domainerrors.ErrNotFound,
		domainerrors.ErrDuplicate,
		domainerrors.ErrIdentifierTaken,
		domainerrors.ErrStorage,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return domainerrors.Storage(err)
}
