package stripe

import (
	"context"
	"fmt"
	"strings"
	"time"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/savegress/ledgerlens/internal/connectors"
	"github.com/savegress/ledgerlens/pkg/models"
)

// Connector fetches Stripe balance transactions as the external side of a
// reconciliation run. Stripe amounts are already signed minor units.
type Connector struct {
	api *client.API
}

// New creates a Stripe connector from a secret key.
func New(secretKey string) *Connector {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Connector{api: api}
}

func (c *Connector) Name() string { return "stripe" }

// FetchTransactions lists balance transactions created within [start, end)
// and normalizes them to the shared record shape. Any listing failure is
// reported as a retryable upstream error; a partial page is never returned
// as a complete set.
func (c *Connector) FetchTransactions(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	params := &stripeapi.BalanceTransactionListParams{
		CreatedRange: &stripeapi.RangeQueryParams{
			GreaterThanOrEqual: start.Unix(),
			LesserThan:         end.Unix(),
		},
	}
	params.Context = ctx
	params.Limit = stripeapi.Int64(100)

	var transactions []models.Transaction
	iter := c.api.BalanceTransactions.List(params)
	for iter.Next() {
		transactions = append(transactions, normalize(iter.BalanceTransaction()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing stripe balance transactions: %v", connectors.ErrUpstreamUnavailable, err)
	}

	return transactions, nil
}

func normalize(bt *stripeapi.BalanceTransaction) models.Transaction {
	metadata := map[string]string{
		"currency":           strings.ToUpper(string(bt.Currency)),
		"reporting_category": string(bt.ReportingCategory),
	}
	if bt.Source != nil && bt.Source.ID != "" {
		metadata["reference"] = bt.Source.ID
	}

	return models.Transaction{
		ID:          bt.ID,
		AmountCents: bt.Amount,
		Timestamp:   time.Unix(bt.Created, 0).UTC(),
		Status:      normalizeStatus(bt),
		Description: bt.Description,
		Metadata:    metadata,
	}
}

// normalizeStatus maps Stripe's balance transaction vocabulary onto the
// shared status enum. Refund-like types win over settlement status so that
// a settled refund still reads as refunded.
func normalizeStatus(bt *stripeapi.BalanceTransaction) models.TransactionStatus {
	switch bt.Type {
	case stripeapi.BalanceTransactionTypeRefund,
		stripeapi.BalanceTransactionTypePaymentRefund,
		stripeapi.BalanceTransactionTypePaymentFailureRefund:
		return models.TransactionStatusRefunded
	}

	switch bt.Status {
	case stripeapi.BalanceTransactionStatusAvailable:
		return models.TransactionStatusCompleted
	case stripeapi.BalanceTransactionStatusPending:
		return models.TransactionStatusPending
	default:
		return models.TransactionStatusFailed
	}
}
