package drive

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/docdrive/internal/common"
)

// Wrap tags a backend error with common.ErrRemoteProvider. Context
// cancellation and deadline errors pass through so callers can map them.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, common.ErrRemoteProvider, err)
}
