package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/MMN3003/express/src/express/domain"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func coin(blockchain string, decimals int, symbol string) domain.Currency {
	return domain.Currency{Blockchain: blockchain, Decimals: decimals, Symbol: symbol}
}

func token(blockchain, contract string, decimals int, symbol string) domain.Currency {
	return domain.Currency{Blockchain: blockchain, ContractAddress: contract, Decimals: decimals, Symbol: symbol}
}

type fakeWallet struct {
	mu           sync.Mutex
	address      string
	balances     map[domain.CurrencyKey]decimal.Decimal
	coinBalances map[string]decimal.Decimal
	allowances   map[domain.CurrencyKey]decimal.Decimal
	allowanceErr error
	approveData  []byte
	gasOptions   []domain.GasOption
	gasErr       error

	balanceCalls int
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{
		address:      "0xwallet",
		balances:     make(map[domain.CurrencyKey]decimal.Decimal),
		coinBalances: make(map[string]decimal.Decimal),
		allowances:   make(map[domain.CurrencyKey]decimal.Decimal),
		approveData:  []byte{0x09, 0x5e, 0xa7, 0xb3},
	}
}

func (w *fakeWallet) setBalance(c domain.Currency, balance decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[c.Key()] = balance
}

func (w *fakeWallet) setAllowance(c domain.Currency, allowance decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.allowances[c.Key()] = allowance
}

func (w *fakeWallet) GetWalletAddress(domain.Currency) (string, bool) {
	return w.address, w.address != ""
}

func (w *fakeWallet) GetBalance(_ context.Context, currency domain.Currency) (decimal.Decimal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balanceCalls++
	return w.balances[currency.Key()], nil
}

func (w *fakeWallet) GetCoinBalance(_ context.Context, blockchain string) (decimal.Decimal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.coinBalances[blockchain], nil
}

func (w *fakeWallet) GetAllowance(_ context.Context, currency domain.Currency, _ string) (decimal.Decimal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.allowanceErr != nil {
		return decimal.Zero, w.allowanceErr
	}
	return w.allowances[currency.Key()], nil
}

func (w *fakeWallet) GetApproveData(domain.Currency, string, domain.ApprovePolicy) []byte {
	return w.approveData
}

func (w *fakeWallet) GetGasOptions(context.Context, string, decimal.Decimal, []byte, string) ([]domain.GasOption, error) {
	if w.gasErr != nil {
		return nil, w.gasErr
	}
	return w.gasOptions, nil
}

type fakeAPI struct {
	quote       domain.Quote
	quoteErr    error
	quoteFn     func(ctx context.Context, amount decimal.Decimal) (domain.Quote, error)
	exchange    domain.ExchangeData
	exchangeErr error
	spender     string
	spenderErr  error

	quoteCalls   atomic.Int32
	spenderCalls atomic.Int32
	lastQuoted   atomic.Value // decimal.Decimal
}

func (a *fakeAPI) FetchQuote(ctx context.Context, _ domain.Pair, amount decimal.Decimal, _ *domain.ReferrerAccount) (domain.Quote, error) {
	a.quoteCalls.Add(1)
	a.lastQuoted.Store(amount)
	if a.quoteFn != nil {
		return a.quoteFn(ctx, amount)
	}
	if a.quoteErr != nil {
		return domain.Quote{}, a.quoteErr
	}
	if a.quote.FromAmount.IsZero() {
		return domain.Quote{FromAmount: amount, ToAmount: amount.Mul(dec("2")), EstimatedGas: 21000}, nil
	}
	return a.quote, nil
}

func (a *fakeAPI) FetchExchangeData(_ context.Context, _ domain.Pair, wallet string, amount decimal.Decimal, _ *domain.ReferrerAccount) (domain.ExchangeData, error) {
	if a.exchangeErr != nil {
		return domain.ExchangeData{}, a.exchangeErr
	}
	if a.exchange.DestinationAddress != "" {
		return a.exchange, nil
	}
	return domain.ExchangeData{
		SourceAddress:      wallet,
		DestinationAddress: "0xrouter",
		Value:              decimal.Zero,
		TxData:             []byte{0x01},
		SourceAmount:       amount,
		DestinationAmount:  amount.Mul(dec("2")),
	}, nil
}

func (a *fakeAPI) FetchSpenderAddress(context.Context, string) (string, error) {
	a.spenderCalls.Add(1)
	if a.spenderErr != nil {
		return "", a.spenderErr
	}
	if a.spender == "" {
		return "0xspender", nil
	}
	return a.spender, nil
}

func (a *fakeAPI) lastQuotedAmount() decimal.Decimal {
	v := a.lastQuoted.Load()
	if v == nil {
		return decimal.Zero
	}
	return v.(decimal.Decimal)
}

type fakeFee struct {
	fee domain.Fee
	err error
}

func (f *fakeFee) EstimatedFee(context.Context, string, decimal.Decimal) (domain.Fee, error) {
	if f.err != nil {
		return domain.Fee{}, f.err
	}
	return f.fee, nil
}

type fakePendingRepo struct {
	mu       sync.Mutex
	recorded []domain.TransactionData
}

func (r *fakePendingRepo) RecordApprove(_ context.Context, data domain.TransactionData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded = append(r.recorded, data)
	return nil
}

func normalGasOptions() []domain.GasOption {
	return []domain.GasOption{
		{Policy: domain.GasPricePolicyNormal, Fee: dec("0.01"), GasLimit: 21000},
		{Policy: domain.GasPricePolicyPriority, Fee: dec("0.015"), GasLimit: 21000},
	}
}
