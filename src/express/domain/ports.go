package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ExpressAPIProvider is the adapter for one exchange integration. Amounts cross
// this boundary in minor units.
type ExpressAPIProvider interface {
	FetchQuote(ctx context.Context, pair Pair, amount decimal.Decimal, referrer *ReferrerAccount) (Quote, error)

	FetchExchangeData(
		ctx context.Context,
		pair Pair,
		walletAddress string,
		amount decimal.Decimal,
		referrer *ReferrerAccount,
	) (ExchangeData, error)

	// FetchSpenderAddress returns the router contract that executes the swap
	// and is granted allowance.
	FetchSpenderAddress(ctx context.Context, blockchain string) (string, error)
}

// WalletDataProvider exposes the hosting wallet's accounts to the express core.
type WalletDataProvider interface {
	// GetWalletAddress returns the user's address for the currency's chain, or
	// false when the wallet has no account there.
	GetWalletAddress(currency Currency) (string, bool)

	// GetBalance returns the currency balance in major units.
	GetBalance(ctx context.Context, currency Currency) (decimal.Decimal, error)

	// GetCoinBalance returns the native-coin balance of a chain in major units.
	GetCoinBalance(ctx context.Context, blockchain string) (decimal.Decimal, error)

	GetAllowance(ctx context.Context, currency Currency, spender string) (decimal.Decimal, error)

	// GetApproveData builds the calldata of an allowance-granting transaction.
	GetApproveData(currency Currency, spender string, policy ApprovePolicy) []byte

	GetGasOptions(
		ctx context.Context,
		blockchain string,
		value decimal.Decimal,
		data []byte,
		destinationAddress string,
	) ([]GasOption, error)
}

// Fee is a chain fee estimate in major units of the native coin, one value per
// escalation tier.
type Fee struct {
	Normal   decimal.Decimal
	Priority decimal.Decimal
}

// Fastest returns the most conservative estimate, used when checking whether a
// transaction stays affordable.
func (f Fee) Fastest() decimal.Decimal {
	if f.Priority.GreaterThan(f.Normal) {
		return f.Priority
	}
	return f.Normal
}

// FeeProvider estimates the chain fee of moving the given amount.
type FeeProvider interface {
	EstimatedFee(ctx context.Context, blockchain string, amount decimal.Decimal) (Fee, error)
}

// PendingTransactionRepository records submitted approval transactions.
// Observability only; the core never reads it back.
type PendingTransactionRepository interface {
	RecordApprove(ctx context.Context, data TransactionData) error
}

// ProviderManager is the per-provider state machine. Implementations serialize
// their own state transitions; GetState always observes a complete snapshot.
type ProviderManager interface {
	Provider() Provider
	GetState() ProviderState
	Update(ctx context.Context, request Request, approvePolicy ApprovePolicy)
}

// ExpressManager aggregates provider managers for one swap session.
type ExpressManager interface {
	GetAmount() *decimal.Decimal
	GetPair() Pair
	GetReferrer() *ReferrerAccount
	GetApprovePolicy() ApprovePolicy
	GetGasPricePolicy() GasPricePolicy
	GetSelectedProvider() Provider
	GetProviderStates() map[string]ProviderState
	GetAllQuotes() []ExpectedQuote
	IsEnoughAllowance() bool

	UpdatePair(pair Pair)
	UpdateAmount(amount *decimal.Decimal)
	UpdateApprovePolicy(policy ApprovePolicy)
	UpdateGasPricePolicy(policy GasPricePolicy)
	UpdateSelectedProvider(providerID string) error

	RefreshBalances(ctx context.Context) (Pair, error)
	Refresh(ctx context.Context, refreshType RefreshType) AvailabilityState

	// DidSendApproveTransaction marks the source currency's approval as
	// in flight and invalidates its cached allowance.
	DidSendApproveTransaction(ctx context.Context, data TransactionData)
}
