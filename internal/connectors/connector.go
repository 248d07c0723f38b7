package connectors

import (
	"context"
	"errors"
	"time"

	"github.com/savegress/ledgerlens/pkg/models"
)

// ErrUpstreamUnavailable marks a fetch failure that the caller may retry.
// It is distinct from validation failures: a connector either returns a
// complete set for the period or this error, never a silent partial set.
var ErrUpstreamUnavailable = errors.New("upstream source unavailable")

// Source supplies normalized transactions for one side of a reconciliation
// run, restricted to [start, end).
type Source interface {
	Name() string
	FetchTransactions(ctx context.Context, start, end time.Time) ([]models.Transaction, error)
}
