package usecase

import (
	"sync"

	"github.com/MMN3003/express/src/express/domain"
	"github.com/shopspring/decimal"
)

// approvalTracker owns the three per-session caches shared by concurrent
// refresh cycles: spender addresses per chain, allowance per currency and the
// pending-approval set. All mutation goes through read-modify-write methods
// behind one mutex; at most one pending entry exists per source currency.
type approvalTracker struct {
	mu         sync.Mutex
	spenders   map[string]string
	allowances map[domain.CurrencyKey]decimal.Decimal
	pending    map[domain.CurrencyKey]string
}

func newApprovalTracker() *approvalTracker {
	return &approvalTracker{
		spenders:   make(map[string]string),
		allowances: make(map[domain.CurrencyKey]decimal.Decimal),
		pending:    make(map[domain.CurrencyKey]string),
	}
}

func (t *approvalTracker) SpenderAddress(blockchain string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	spender, ok := t.spenders[blockchain]
	return spender, ok
}

func (t *approvalTracker) SetSpenderAddress(blockchain, spender string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spenders[blockchain] = spender
}

func (t *approvalTracker) Allowance(currency domain.Currency) (decimal.Decimal, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	allowance, ok := t.allowances[currency.Key()]
	return allowance, ok
}

func (t *approvalTracker) SetAllowance(currency domain.Currency, allowance decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allowances[currency.Key()] = allowance
}

// DropAllowance forces a re-fetch on the next cycle. Called when an approval
// transaction is submitted for the currency.
func (t *approvalTracker) DropAllowance(currency domain.Currency) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.allowances, currency.Key())
}

func (t *approvalTracker) HasPending(currency domain.Currency) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[currency.Key()]
	return ok
}

func (t *approvalTracker) SetPending(currency domain.Currency, destination string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[currency.Key()] = destination
}

// ClearPending removes the entry once allowance is observed sufficient.
func (t *approvalTracker) ClearPending(currency domain.Currency) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, currency.Key())
}
