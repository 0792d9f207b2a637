package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey      string `env:"PADDLE_API_KEY,required"`
	Environment string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements Provider for Paddle. Both orders and
// subscription sign-ups go through Paddle transactions; the recurring or
// one-time nature is a property of the catalog price being checked out.
type PaddleProvider struct {
	client *paddle.SDK
	config PaddleConfig
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, errors.Join(ErrInvalidEnvironment, fmt.Errorf("environment %q", config.Environment))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{client: client, config: config}, nil
}

// CreateOrder creates a Paddle transaction for a one-time catalog price.
func (p *PaddleProvider) CreateOrder(ctx context.Context, req OrderRequest) (string, error) {
	customData := paddle.CustomData{
		"customer_id": req.CustomerID,
	}
	if req.Description != "" {
		customData["description"] = req.Description
	}
	if req.Amount > 0 {
		// The catalog price is authoritative for what Paddle charges;
		// the requested amount travels along for reconciliation.
		customData["quoted_amount"] = fmt.Sprintf("%d %s", req.Amount, req.Currency)
	}
	return p.createTransaction(ctx, req.PriceID, req.CustomerID, req.Email, customData)
}

// CreateSubscription creates a Paddle transaction for a recurring catalog
// price. Paddle materializes the subscription once checkout completes.
func (p *PaddleProvider) CreateSubscription(ctx context.Context, req SubscriptionRequest) (string, error) {
	customData := paddle.CustomData{
		"customer_id": req.CustomerID,
	}
	return p.createTransaction(ctx, req.PriceID, req.CustomerID, req.Email, customData)
}

func (p *PaddleProvider) createTransaction(ctx context.Context, priceID, customerID, email string, customData paddle.CustomData) (string, error) {
	if priceID == "" {
		return "", ErrMissingPriceID
	}
	if customerID == "" {
		return "", ErrMissingCustomerID
	}

	if email != "" {
		customData["email"] = email
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomData: customData,
	})
	if err != nil {
		return "", errors.Join(ErrRequestFailed, err)
	}
	if transaction.ID == "" {
		return "", ErrNoTransactionID
	}

	return transaction.ID, nil
}

// TransactionStatus queries Paddle for the current state of a transaction.
// The lookup is read-only and safe to repeat.
func (p *PaddleProvider) TransactionStatus(ctx context.Context, id string, kind Kind) (Status, error) {
	transaction, err := p.client.TransactionsClient.GetTransaction(ctx, &paddle.GetTransactionRequest{
		TransactionID: id,
	})
	if err != nil {
		return "", errors.Join(ErrRequestFailed, err)
	}

	return mapPaddleTransactionStatus(string(transaction.Status), kind), nil
}

// mapPaddleTransactionStatus normalizes Paddle transaction states into the
// provider-agnostic status domain. Anything before payment collection maps
// to pending rather than failed so callers keep polling instead of
// misreading an unfinished checkout as a declined payment.
func mapPaddleTransactionStatus(paddleStatus string, kind Kind) Status {
	switch strings.ToLower(paddleStatus) {
	case "completed", "paid":
		if kind == KindSubscription {
			return StatusActive
		}
		return StatusCaptured
	case "canceled", "cancelled":
		return StatusCancelled
	case "past_due":
		return StatusFailed
	default:
		// draft, ready, billed: checkout still in flight
		return StatusPending
	}
}
