package storage

import (
	"errors"
	"fmt"

	"github.com/ruteri/verichain/interfaces"
)

// errUnavailable is returned by backends whose remote end cannot be reached.
var errUnavailable = fmt.Errorf("%w: %w", interfaces.ErrStorageIO, interfaces.ErrBackendUnavailable)

// ioError classifies err as a storage failure unless it already is one.
func ioError(msg string, err error) error {
	if errors.Is(err, interfaces.ErrStorageIO) || errors.Is(err, interfaces.ErrContentNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", interfaces.ErrStorageIO, msg, err)
}
