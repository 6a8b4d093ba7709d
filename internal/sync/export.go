package sync

import (
	"context"
	"errors"
	"fmt"
)

// WriteAll writes data under name to every destination. A failing
// destination does not stop the others; all failures are joined.
func WriteAll(ctx context.Context, destinations []Destination, name string, data []byte) error {
	var errs []error
	for i, dest := range destinations {
		if err := dest.Write(ctx, name, data); err != nil {
			errs = append(errs, fmt.Errorf("destination %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
