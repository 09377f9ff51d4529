package domain

import (
	"github.com/shopspring/decimal"
)

// Currency identifies a swappable asset: the chain it lives on plus, for tokens,
// the contract address. Decimals and symbol are metadata and take no part in
// equality or cache keys.
type Currency struct {
	Blockchain      string `json:"blockchain"`
	ContractAddress string `json:"contract_address,omitempty"`
	Decimals        int    `json:"decimals"`
	Symbol          string `json:"symbol"`
}

// CurrencyKey is the identity of a Currency: (blockchain, contract address).
// Used as the key of every per-currency cache so all caches agree on identity.
type CurrencyKey struct {
	Blockchain      string
	ContractAddress string
}

func (c Currency) Key() CurrencyKey {
	return CurrencyKey{Blockchain: c.Blockchain, ContractAddress: c.ContractAddress}
}

// Equal compares identity fields only, never hashes.
func (c Currency) Equal(other Currency) bool {
	return c.Key() == other.Key()
}

// IsToken reports whether the asset is a contract token rather than the
// chain's native coin.
func (c Currency) IsToken() bool {
	return c.ContractAddress != ""
}

// ConvertToMinorUnits scales a major-unit amount to minor units ("WEI"),
// value * 10^decimals. Decimal arithmetic, exact for any representable input.
func (c Currency) ConvertToMinorUnits(value decimal.Decimal) decimal.Decimal {
	return value.Shift(int32(c.Decimals))
}

// ConvertFromMinorUnits is the exact inverse of ConvertToMinorUnits.
func (c Currency) ConvertFromMinorUnits(value decimal.Decimal) decimal.Decimal {
	return value.Shift(-int32(c.Decimals))
}

// Pair is the source/destination of a swap session. Destination stays nil until
// the user picks one. Balances are refreshed from the wallet collaborator;
// destination balance is nil until first fetched.
type Pair struct {
	Source      Currency
	Destination *Currency

	SourceBalance      decimal.Decimal
	DestinationBalance *decimal.Decimal
}

// Quote is an immutable snapshot of one provider's pricing. Amounts are in
// minor units. A newer quote replaces the whole object, never mutates it.
type Quote struct {
	FromAmount   decimal.Decimal `json:"from_amount"`
	ToAmount     decimal.Decimal `json:"to_amount"`
	EstimatedGas int             `json:"estimated_gas"`
}

// Rate returns destination per source in major units. Zero if the quote is empty.
func (q Quote) Rate(source, destination Currency) decimal.Decimal {
	from := source.ConvertFromMinorUnits(q.FromAmount)
	if from.IsZero() {
		return decimal.Zero
	}
	return destination.ConvertFromMinorUnits(q.ToAmount).Div(from)
}

// Request is the unit of work of one refresh cycle. Amount is in major units.
// A new Request is built whenever pair or amount changes; in-flight cycles keep
// working on their own copy.
type Request struct {
	Pair   Pair
	Amount decimal.Decimal
}

// ExchangeData is the provider's assembled transaction payload, ready for fee
// estimation and signing. Amounts and value are in minor units.
type ExchangeData struct {
	SourceAddress      string
	DestinationAddress string
	Value              decimal.Decimal
	TxData             []byte
	SourceAmount       decimal.Decimal
	DestinationAmount  decimal.Decimal
}

// ApproveData is an allowance-granting transaction payload.
type ApproveData struct {
	Data         []byte
	TokenAddress string
	// Value sent along with the approve call, in minor units. Always zero for
	// ERC20-style approvals.
	Value decimal.Decimal
}

// GasOption is one fee tier returned by the wallet collaborator.
type GasOption struct {
	Policy   GasPricePolicy
	Fee      decimal.Decimal
	GasLimit int
	GasPrice decimal.Decimal
}

// TransactionData is the final signable swap (or approve) transaction.
type TransactionData struct {
	SourceCurrency      Currency
	DestinationCurrency Currency

	SourceAddress      string
	DestinationAddress string
	TxData             []byte

	// Minor units
	SourceAmount      decimal.Decimal
	DestinationAmount decimal.Decimal

	// Value to send with the transaction, major units of the native coin
	Value decimal.Decimal

	Gas GasOption
}

func (t TransactionData) Fee() decimal.Decimal {
	return t.Gas.Fee
}

// Restrictions carries the two independent sufficiency checks per gas policy.
// For a native-coin source both fee and amount draw from the same balance; for
// a token the fee draws from the coin balance and the amount from the token
// balance. They must not be conflated.
type Restrictions struct {
	IsEnoughAmountForExpress map[GasPricePolicy]bool
	IsEnoughAmountForFee     map[GasPricePolicy]bool
	IsPermissionRequired     bool
}

// AvailabilityModel is the fully-assembled "can swap now" result.
type AvailabilityModel struct {
	TransactionData TransactionData
	GasOptions      []GasOption
	Restrictions    Restrictions
}

func (m AvailabilityModel) DestinationAmount() decimal.Decimal {
	return m.TransactionData.DestinationCurrency.ConvertFromMinorUnits(m.TransactionData.DestinationAmount)
}

func (m AvailabilityModel) IsEnoughAmountForExpress(policy GasPricePolicy) bool {
	return m.Restrictions.IsEnoughAmountForExpress[policy]
}

func (m AvailabilityModel) IsEnoughAmountForFee(policy GasPricePolicy) bool {
	return m.Restrictions.IsEnoughAmountForFee[policy]
}

// PreviewData is the indicative result shown when the swap cannot be executed
// yet (no amount, insufficient balance, approval still settling).
type PreviewData struct {
	ExpectedAmount decimal.Decimal

	IsPermissionRequired     bool
	HasPendingTransaction    bool
	IsEnoughAmountForExpress bool
	SubtractedFee            decimal.Decimal
}

// Provider describes one exchange integration.
type Provider struct {
	ID   string
	Name string
	Type ProviderType
}

// ProviderType splits custody-taking integrations from on-chain ones. CEX
// providers stop at a preview (funds move off-chain later); DEX providers
// assemble a signable on-chain transaction.
type ProviderType string

const (
	ProviderTypeCEX ProviderType = "cex"
	ProviderTypeDEX ProviderType = "dex"
)

// ReferrerAccount is the affiliate account forwarded to providers.
type ReferrerAccount struct {
	Address string
	FeeBps  int
}

// ExpectedQuote is a per-provider quote-or-failure snapshot used for ranking
// providers in the picker UI.
type ExpectedQuote struct {
	Provider Provider
	Quote    *Quote
	Err      error
}
