package usecase

import (
	"context"
	"sync"

	"github.com/MMN3003/express/src/express/domain"
	"github.com/MMN3003/express/src/logger"
	"github.com/shopspring/decimal"
)

var _ domain.ProviderManager = (*ProviderManager)(nil)

// ProviderManager runs the refresh state machine for a single exchange
// integration. One instance per provider; its failures never reach another
// provider's state. All mutable fields are confined behind mu, so GetState
// always returns a complete snapshot and concurrent updates cannot tear it.
type ProviderManager struct {
	provider domain.Provider
	api      domain.ExpressAPIProvider
	fee      domain.FeeProvider
	wallet   domain.WalletDataProvider
	tracker  *approvalTracker
	referrer *domain.ReferrerAccount
	// gasPolicy reads the session's current gas tier at assembly time.
	gasPolicy func() domain.GasPricePolicy
	logger    *logger.Logger

	mu         sync.Mutex
	state      domain.ProviderState
	generation uint64
}

func NewProviderManager(
	provider domain.Provider,
	api domain.ExpressAPIProvider,
	fee domain.FeeProvider,
	wallet domain.WalletDataProvider,
	tracker *approvalTracker,
	referrer *domain.ReferrerAccount,
	gasPolicy func() domain.GasPricePolicy,
	logg *logger.Logger,
) *ProviderManager {
	return &ProviderManager{
		provider:  provider,
		api:       api,
		fee:       fee,
		wallet:    wallet,
		tracker:   tracker,
		referrer:  referrer,
		gasPolicy: gasPolicy,
		logger:    logg.WithField("provider", provider.ID),
		state:     domain.IdleProviderState(),
	}
}

func (m *ProviderManager) Provider() domain.Provider {
	return m.provider
}

func (m *ProviderManager) GetState() domain.ProviderState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Update runs one refresh cycle against a snapshot of the request. A newer
// Update supersedes an in-flight one: results are applied only if the cycle's
// generation is still current, so stale cycles are discarded, not merged.
func (m *ProviderManager) Update(ctx context.Context, request domain.Request, approvePolicy domain.ApprovePolicy) {
	gen := m.beginCycle()

	state := m.computeState(ctx, request, approvePolicy)

	if ctx.Err() != nil {
		// Cancelled cycles settle as idle, never as an error state.
		m.applyState(gen, domain.IdleProviderState())
		return
	}

	m.logger.Debugf("update finished with state %s", state.Kind)
	m.applyState(gen, state)
}

func (m *ProviderManager) beginCycle() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.state = domain.LoadingProviderState(domain.RefreshTypeFull)
	return m.generation
}

func (m *ProviderManager) applyState(gen uint64, state domain.ProviderState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		m.logger.Debugf("discarding stale result %s (generation %d, current %d)", state.Kind, gen, m.generation)
		return
	}
	m.state = state
}

func (m *ProviderManager) computeState(ctx context.Context, request domain.Request, approvePolicy domain.ApprovePolicy) domain.ProviderState {
	if request.Pair.Destination == nil {
		return domain.ErrorProviderState(domain.ErrDestinationNotFound, nil)
	}

	// Balance check runs before any network call. A quote is still fetched so
	// the caller can show an indicative rate next to the restriction.
	if request.Amount.GreaterThan(request.Pair.SourceBalance) {
		quote := m.tryQuote(ctx, request)
		return domain.RestrictionProviderState(domain.RestrictionInsufficientBalance, request.Amount, quote)
	}

	estimatedFee, subtracted, request, err := m.subtractedFeeRequest(ctx, request)
	if err != nil {
		return m.mapError(err, nil)
	}

	quote, err := m.fetchQuote(ctx, request)
	if err != nil {
		return m.mapError(err, nil)
	}

	if m.provider.Type == domain.ProviderTypeCEX {
		return domain.PreviewProviderState(quote, estimatedFee.Fastest(), subtracted)
	}

	return m.assembleSwap(ctx, request, approvePolicy, quote)
}

// mapError translates provider-reported errors into actionable restriction
// states; everything else becomes an error state for this cycle.
func (m *ProviderManager) mapError(err error, quote *domain.Quote) domain.ProviderState {
	if apiErr, ok := domain.AsAPIError(err); ok && apiErr.Code == domain.APIErrorCodeTooSmallAmount {
		return domain.RestrictionProviderState(domain.RestrictionTooSmallAmount, apiErr.MinAmount, nil)
	}
	return domain.ErrorProviderState(err, quote)
}

// subtractedFeeRequest reduces a native-coin amount by exactly the excess over
// the balance once the estimated fee is added, so the transaction stays
// affordable. Token amounts are never adjusted: their fee is paid from the
// coin balance. Recomputed every cycle, never cached.
func (m *ProviderManager) subtractedFeeRequest(ctx context.Context, request domain.Request) (domain.Fee, decimal.Decimal, domain.Request, error) {
	estimatedFee, err := m.fee.EstimatedFee(ctx, request.Pair.Source.Blockchain, request.Amount)
	if err != nil {
		return domain.Fee{}, decimal.Zero, request, err
	}

	if request.Pair.Source.IsToken() {
		return estimatedFee, decimal.Zero, request, nil
	}

	fullAmount := request.Amount.Add(estimatedFee.Fastest())
	if fullAmount.LessThanOrEqual(request.Pair.SourceBalance) {
		return estimatedFee, decimal.Zero, request, nil
	}

	subtracted := fullAmount.Sub(request.Pair.SourceBalance)
	m.logger.Debugf("subtracting fee %s from amount %s", subtracted, request.Amount)

	request = domain.Request{Pair: request.Pair, Amount: request.Amount.Sub(subtracted)}
	return estimatedFee, subtracted, request, nil
}

func (m *ProviderManager) fetchQuote(ctx context.Context, request domain.Request) (domain.Quote, error) {
	amount := request.Pair.Source.ConvertToMinorUnits(request.Amount)
	return m.api.FetchQuote(ctx, request.Pair, amount, m.referrer)
}

// tryQuote fetches a quote for display only; failures leave it unset.
func (m *ProviderManager) tryQuote(ctx context.Context, request domain.Request) *domain.Quote {
	quote, err := m.fetchQuote(ctx, request)
	if err != nil {
		m.logger.Debugf("display quote unavailable: %v", err)
		return nil
	}
	return &quote
}

// assembleSwap runs the on-chain path: allowance gating for tokens, then
// exchange data and gas options.
func (m *ProviderManager) assembleSwap(
	ctx context.Context,
	request domain.Request,
	approvePolicy domain.ApprovePolicy,
	quote domain.Quote,
) domain.ProviderState {
	source := request.Pair.Source

	if source.IsToken() {
		spender, err := m.spenderAddress(ctx, source.Blockchain)
		if err != nil {
			return domain.ErrorProviderState(err, &quote)
		}

		allowance, err := m.wallet.GetAllowance(ctx, source, spender)
		if err != nil {
			return domain.ErrorProviderState(err, &quote)
		}
		m.tracker.SetAllowance(source, allowance)
		m.logger.Debugf("token %s allowance %s", source.Symbol, allowance)

		if request.Amount.GreaterThan(allowance) {
			if m.tracker.HasPending(source) {
				// An approval is already settling on-chain; do not request
				// another one.
				return domain.RestrictionProviderState(domain.RestrictionApprovalPending, request.Amount, &quote)
			}

			data := m.wallet.GetApproveData(source, spender, approvePolicy)
			approve := domain.ApproveData{
				Data:         data,
				TokenAddress: source.ContractAddress,
				Value:        decimal.Zero,
			}
			return domain.PermissionRequiredProviderState(quote, approve)
		}

		// Allowance took effect; the pending entry, if any, is done.
		m.tracker.ClearPending(source)
	}

	return m.loadAvailable(ctx, request, quote)
}

// spenderAddress is a read-through cache keyed by blockchain.
func (m *ProviderManager) spenderAddress(ctx context.Context, blockchain string) (string, error) {
	if spender, ok := m.tracker.SpenderAddress(blockchain); ok {
		return spender, nil
	}

	spender, err := m.api.FetchSpenderAddress(ctx, blockchain)
	if err != nil {
		return "", err
	}

	m.tracker.SetSpenderAddress(blockchain, spender)
	return spender, nil
}

func (m *ProviderManager) loadAvailable(ctx context.Context, request domain.Request, quote domain.Quote) domain.ProviderState {
	source := request.Pair.Source

	walletAddress, ok := m.wallet.GetWalletAddress(source)
	if !ok {
		return domain.ErrorProviderState(domain.ErrWalletAddressNotFound, &quote)
	}

	amount := source.ConvertToMinorUnits(request.Amount)
	data, err := m.api.FetchExchangeData(ctx, request.Pair, walletAddress, amount, m.referrer)
	if err != nil {
		return m.mapError(err, &quote)
	}

	if ctx.Err() != nil {
		return domain.IdleProviderState()
	}

	value := source.ConvertFromMinorUnits(data.Value)
	gasOptions, err := m.wallet.GetGasOptions(ctx, source.Blockchain, value, data.TxData, data.DestinationAddress)
	if err != nil {
		return domain.ErrorProviderState(err, &quote)
	}

	gas, ok := findGasOption(gasOptions, m.gasPolicy())
	if !ok {
		return domain.ErrorProviderState(domain.ErrGasModelNotFound, &quote)
	}

	txData := domain.TransactionData{
		SourceCurrency:      source,
		DestinationCurrency: *request.Pair.Destination,
		SourceAddress:       data.SourceAddress,
		DestinationAddress:  data.DestinationAddress,
		TxData:              data.TxData,
		SourceAmount:        data.SourceAmount,
		DestinationAmount:   data.DestinationAmount,
		Value:               value,
		Gas:                 gas,
	}

	model, err := m.availabilityModel(ctx, request, txData, gasOptions)
	if err != nil {
		return domain.ErrorProviderState(err, &quote)
	}

	return domain.AvailableProviderState(model)
}

func (m *ProviderManager) availabilityModel(
	ctx context.Context,
	request domain.Request,
	txData domain.TransactionData,
	gasOptions []domain.GasOption,
) (domain.AvailabilityModel, error) {
	source := request.Pair.Source
	sourceBalance := request.Pair.SourceBalance
	amount := source.ConvertFromMinorUnits(txData.SourceAmount)

	coinBalance := sourceBalance
	if source.IsToken() {
		var err error
		coinBalance, err = m.wallet.GetCoinBalance(ctx, source.Blockchain)
		if err != nil {
			return domain.AvailabilityModel{}, err
		}
	}

	isEnoughForFee := make(map[domain.GasPricePolicy]bool, len(gasOptions))
	isEnoughForExpress := make(map[domain.GasPricePolicy]bool, len(gasOptions))

	for _, option := range gasOptions {
		if source.IsToken() {
			isEnoughForFee[option.Policy] = coinBalance.GreaterThanOrEqual(option.Fee)
			isEnoughForExpress[option.Policy] = sourceBalance.GreaterThanOrEqual(amount)
		} else {
			isEnoughForFee[option.Policy] = sourceBalance.GreaterThanOrEqual(option.Fee)
			isEnoughForExpress[option.Policy] = sourceBalance.GreaterThanOrEqual(amount.Add(option.Fee))
		}
	}

	return domain.AvailabilityModel{
		TransactionData: txData,
		GasOptions:      gasOptions,
		Restrictions: domain.Restrictions{
			IsEnoughAmountForExpress: isEnoughForExpress,
			IsEnoughAmountForFee:     isEnoughForFee,
			IsPermissionRequired:     false,
		},
	}, nil
}

func findGasOption(options []domain.GasOption, policy domain.GasPricePolicy) (domain.GasOption, bool) {
	for _, option := range options {
		if option.Policy == policy {
			return option, true
		}
	}
	return domain.GasOption{}, false
}
