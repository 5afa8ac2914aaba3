// Package trigger consumes upstream change events from RabbitMQ and hands them
// to the aggregation core.
package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/freshtally/freshtally/internal/aggregation"
	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/ingestion"
)

// Routing keys the consumer binds its queue to.
const (
	RoutingKeyProductChanged     = "catalog.product.changed"
	RoutingKeyBatchChanged       = "inventory.batch.changed"
	RoutingKeyTransactionChanged = "sales.transaction.changed"
)

// RoutingKeys lists every key the consumer understands.
var RoutingKeys = []string{
	RoutingKeyProductChanged,
	RoutingKeyBatchChanged,
	RoutingKeyTransactionChanged,
}

// ErrUndecodable marks a message that can never be processed.
var ErrUndecodable = errors.New("undecodable change message")

// change is a decoded message ready for dispatch.
type change struct {
	routingKey string
	productID  string
	apply      func(ctx context.Context, d ingestion.Dispatcher) (*aggregation.Report, error)
}

// decode turns a message body into a change for the given routing key.
func decode(routingKey string, body []byte) (*change, error) {
	switch routingKey {
	case RoutingKeyProductChanged:
		var ch v1.MasterChange
		if err := unmarshal(body, &ch); err != nil {
			return nil, err
		}
		if err := ch.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		return &change{
			routingKey: routingKey,
			productID:  ch.ProductID,
			apply: func(ctx context.Context, d ingestion.Dispatcher) (*aggregation.Report, error) {
				return d.OnMasterChange(ctx, &ch)
			},
		}, nil

	case RoutingKeyBatchChanged:
		var ch v1.BatchChange
		if err := unmarshal(body, &ch); err != nil {
			return nil, err
		}
		if err := ch.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		_, productID := ch.Subject()
		return &change{
			routingKey: routingKey,
			productID:  productID,
			apply: func(ctx context.Context, d ingestion.Dispatcher) (*aggregation.Report, error) {
				return d.OnBatchChange(ctx, &ch)
			},
		}, nil

	case RoutingKeyTransactionChanged:
		var ch v1.TransactionChange
		if err := unmarshal(body, &ch); err != nil {
			return nil, err
		}
		if err := ch.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		_, productID := ch.Subject()
		return &change{
			routingKey: routingKey,
			productID:  productID,
			apply: func(ctx context.Context, d ingestion.Dispatcher) (*aggregation.Report, error) {
				return d.OnTransactionChange(ctx, &ch)
			},
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown routing key %q", ErrUndecodable, routingKey)
	}
}

func unmarshal(body []byte, dst interface{}) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return nil
}
