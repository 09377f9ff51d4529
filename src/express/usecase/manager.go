package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/MMN3003/express/src/express/domain"
	"github.com/MMN3003/express/src/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var _ domain.ExpressManager = (*Service)(nil)

// ProviderConfig binds a provider descriptor to its API adapter.
type ProviderConfig struct {
	Provider domain.Provider
	API      domain.ExpressAPIProvider
}

// Service aggregates one swap session: the set of provider managers, the
// selected provider, the current pair/amount/policies and the approval caches.
// Setters are lazy; network activity happens only in RefreshBalances/Refresh.
type Service struct {
	wallet      domain.WalletDataProvider
	fee         domain.FeeProvider
	pendingRepo domain.PendingTransactionRepository
	referrer    *domain.ReferrerAccount
	logger      *logger.Logger

	managers []domain.ProviderManager
	apis     map[string]domain.ExpressAPIProvider
	tracker  *approvalTracker

	mu             sync.Mutex
	pair           domain.Pair
	amount         *decimal.Decimal
	approvePolicy  domain.ApprovePolicy
	gasPricePolicy domain.GasPricePolicy
	selectedID     string
	// refreshCycle identifies the newest refresh; results of older cycles are
	// discarded at the point of applying them, not at the start.
	refreshCycle uuid.UUID
}

func NewService(
	pair domain.Pair,
	providers []ProviderConfig,
	wallet domain.WalletDataProvider,
	fee domain.FeeProvider,
	pendingRepo domain.PendingTransactionRepository,
	referrer *domain.ReferrerAccount,
	logg *logger.Logger,
) *Service {
	s := &Service{
		wallet:         wallet,
		fee:            fee,
		pendingRepo:    pendingRepo,
		referrer:       referrer,
		logger:         logg,
		apis:           make(map[string]domain.ExpressAPIProvider, len(providers)),
		tracker:        newApprovalTracker(),
		pair:           pair,
		approvePolicy:  domain.ApprovePolicyUnlimited(),
		gasPricePolicy: domain.GasPricePolicyNormal,
		refreshCycle:   uuid.New(),
	}

	for _, p := range providers {
		s.apis[p.Provider.ID] = p.API
		s.managers = append(s.managers, NewProviderManager(
			p.Provider,
			p.API,
			fee,
			wallet,
			s.tracker,
			referrer,
			s.GetGasPricePolicy,
			logg,
		))
	}

	if len(s.managers) > 0 {
		s.selectedID = s.managers[0].Provider().ID
	}

	return s
}

// --- Getters ---

func (s *Service) GetAmount() *decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.amount
}

func (s *Service) GetPair() domain.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair
}

func (s *Service) GetReferrer() *domain.ReferrerAccount {
	return s.referrer
}

func (s *Service) GetApprovePolicy() domain.ApprovePolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.approvePolicy
}

func (s *Service) GetGasPricePolicy() domain.GasPricePolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gasPricePolicy
}

func (s *Service) GetSelectedProvider() domain.Provider {
	s.mu.Lock()
	id := s.selectedID
	s.mu.Unlock()

	for _, m := range s.managers {
		if m.Provider().ID == id {
			return m.Provider()
		}
	}
	return domain.Provider{}
}

func (s *Service) GetProviderStates() map[string]domain.ProviderState {
	states := make(map[string]domain.ProviderState, len(s.managers))
	for _, m := range s.managers {
		states[m.Provider().ID] = m.GetState()
	}
	return states
}

// GetAllQuotes returns one quote-or-failure snapshot per provider, best
// expected output first, failed providers last.
func (s *Service) GetAllQuotes() []domain.ExpectedQuote {
	quotes := make([]domain.ExpectedQuote, 0, len(s.managers))
	for _, m := range s.managers {
		state := m.GetState()
		quotes = append(quotes, domain.ExpectedQuote{
			Provider: m.Provider(),
			Quote:    state.Quote,
			Err:      state.Err,
		})
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		qi, qj := quotes[i].Quote, quotes[j].Quote
		if qi == nil || qj == nil {
			return qi != nil
		}
		return qi.ToAmount.GreaterThan(qj.ToAmount)
	})

	return quotes
}

// IsEnoughAllowance reports whether the cached allowance covers the current
// amount. Native-coin sources and unset amounts never need allowance.
func (s *Service) IsEnoughAllowance() bool {
	s.mu.Lock()
	source := s.pair.Source
	amount := s.amount
	s.mu.Unlock()

	if !source.IsToken() || amount == nil || !amount.IsPositive() {
		return true
	}

	allowance, ok := s.tracker.Allowance(source)
	if !ok {
		return false
	}

	return amount.LessThanOrEqual(allowance)
}

// --- Setters ---

func (s *Service) UpdatePair(pair domain.Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	// Invalidate in-flight refreshes: their request no longer matches.
	s.refreshCycle = uuid.New()
}

func (s *Service) UpdateAmount(amount *decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amount = amount
	s.refreshCycle = uuid.New()
}

func (s *Service) UpdateApprovePolicy(policy domain.ApprovePolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvePolicy = policy
}

func (s *Service) UpdateGasPricePolicy(policy domain.GasPricePolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gasPricePolicy = policy
}

func (s *Service) UpdateSelectedProvider(providerID string) error {
	if _, ok := s.apis[providerID]; !ok {
		return domain.ErrProviderNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = providerID
	return nil
}

// --- Refresh cycle ---

// RefreshBalances fetches source (and destination, if set) balances and writes
// them back only when changed, so downstream publishers don't churn.
func (s *Service) RefreshBalances(ctx context.Context) (domain.Pair, error) {
	s.mu.Lock()
	pair := s.pair
	s.mu.Unlock()

	sourceBalance, err := s.wallet.GetBalance(ctx, pair.Source)
	if err != nil {
		return pair, err
	}

	var destinationBalance *decimal.Decimal
	if pair.Destination != nil {
		balance, err := s.wallet.GetBalance(ctx, *pair.Destination)
		if err != nil {
			return pair, err
		}
		destinationBalance = &balance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pair.SourceBalance.Equal(sourceBalance) {
		s.pair.SourceBalance = sourceBalance
	}
	if destinationBalance != nil &&
		(s.pair.DestinationBalance == nil || !s.pair.DestinationBalance.Equal(*destinationBalance)) {
		s.pair.DestinationBalance = destinationBalance
	}

	return s.pair, nil
}

// Refresh runs one full cycle. Safe to call repeatedly; each call supersedes
// any earlier in-flight call, whose result is discarded rather than merged.
func (s *Service) Refresh(ctx context.Context, refreshType domain.RefreshType) domain.AvailabilityState {
	s.mu.Lock()
	s.refreshCycle = uuid.New()
	cycle := s.refreshCycle
	s.mu.Unlock()

	log := s.logger.WithField("cycle", cycle.String())
	log.Debugf("refresh started (%s)", refreshType)

	state := s.refreshValues(ctx, refreshType, cycle, log)

	if ctx.Err() != nil {
		return domain.IdleState()
	}
	if !s.isCurrentCycle(cycle) {
		log.Debugf("refresh superseded, discarding %s", state.Kind)
		return domain.IdleState()
	}

	log.Debugf("refresh finished with %s", state.Kind)
	return state
}

func (s *Service) DidSendApproveTransaction(ctx context.Context, data domain.TransactionData) {
	s.tracker.SetPending(data.SourceCurrency, data.DestinationAddress)
	s.tracker.DropAllowance(data.SourceCurrency)

	if s.pendingRepo != nil {
		if err := s.pendingRepo.RecordApprove(ctx, data); err != nil {
			s.logger.Errorf("record approve tx failed: %v", err)
		}
	}
}

func (s *Service) isCurrentCycle(cycle uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCycle == cycle
}

func (s *Service) refreshValues(
	ctx context.Context,
	refreshType domain.RefreshType,
	cycle uuid.UUID,
	log *logger.Logger,
) domain.AvailabilityState {
	var pair domain.Pair
	if refreshType == domain.RefreshTypeRatesOnly {
		// Rates-only refreshes run on a timer; re-polling balances there is
		// wasted wallet traffic.
		s.mu.Lock()
		pair = s.pair
		s.mu.Unlock()
	} else {
		var err error
		pair, err = s.RefreshBalances(ctx)
		if err != nil {
			return domain.RequiredRefreshState(err)
		}
	}

	s.mu.Lock()
	amount := s.amount
	approvePolicy := s.approvePolicy
	s.mu.Unlock()

	// Without an executable amount, or without balance for the amount alone
	// (fee ignored), only an indicative quote is worth fetching.
	if amount == nil || !amount.IsPositive() || pair.SourceBalance.LessThan(*amount) {
		return s.loadPreview(ctx, pair, amount)
	}

	request := domain.Request{Pair: pair, Amount: *amount}

	if !s.isCurrentCycle(cycle) {
		return domain.IdleState()
	}

	// Fan out to every provider manager. Failures stay inside each manager's
	// own state; one integration being down must not block the others.
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range s.managers {
		m := m
		g.Go(func() error {
			m.Update(gctx, request, approvePolicy)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return domain.IdleState()
	}

	return s.selectedState(pair, log)
}

// selectedState synthesizes the caller-facing state from the selected
// provider's manager. Other providers' failures stay out of this decision.
func (s *Service) selectedState(pair domain.Pair, log *logger.Logger) domain.AvailabilityState {
	manager := s.selectedManager()
	if manager == nil {
		return domain.RequiredRefreshState(domain.ErrProviderNotFound)
	}

	state := manager.GetState()

	switch state.Kind {
	case domain.ProviderStateAvailable:
		return domain.AvailableState(*state.Availability)

	case domain.ProviderStatePreview:
		preview, err := s.previewData(pair, *state.Quote, state.SubtractedFee)
		if err != nil {
			return domain.RequiredRefreshState(err)
		}
		return domain.PreviewState(preview)

	case domain.ProviderStatePermissionRequired:
		return domain.PermissionRequiredState(*state.Quote, *state.ApproveData)

	case domain.ProviderStateRestriction:
		return domain.RestrictionState(state.Restriction, state.RestrictionAmount, state.Quote)

	case domain.ProviderStateError:
		log.Warnf("selected provider %s failed: %v", manager.Provider().ID, state.Err)
		return domain.RequiredRefreshState(state.Err)

	case domain.ProviderStateLoading:
		return domain.LoadingState(state.RefreshType)

	default:
		return domain.IdleState()
	}
}

func (s *Service) selectedManager() domain.ProviderManager {
	s.mu.Lock()
	id := s.selectedID
	s.mu.Unlock()

	for _, m := range s.managers {
		if m.Provider().ID == id {
			return m
		}
	}
	return nil
}

// loadPreview fetches a quote from the selected provider without building any
// transaction, so the UI can show a rate even when the swap cannot run yet.
func (s *Service) loadPreview(ctx context.Context, pair domain.Pair, amount *decimal.Decimal) domain.AvailabilityState {
	if pair.Destination == nil {
		return domain.RequiredRefreshState(domain.ErrDestinationNotFound)
	}
	if amount == nil || !amount.IsPositive() {
		return domain.RequiredRefreshState(domain.ErrAmountNotFound)
	}

	api, ok := s.apis[s.GetSelectedProvider().ID]
	if !ok {
		return domain.RequiredRefreshState(domain.ErrProviderNotFound)
	}

	minorAmount := pair.Source.ConvertToMinorUnits(*amount)
	quote, err := api.FetchQuote(ctx, pair, minorAmount, s.referrer)
	if err != nil {
		if ctx.Err() != nil {
			return domain.IdleState()
		}
		return domain.RequiredRefreshState(err)
	}

	preview, err := s.previewData(pair, quote, decimal.Zero)
	if err != nil {
		return domain.RequiredRefreshState(err)
	}
	preview.IsEnoughAmountForExpress = pair.SourceBalance.GreaterThanOrEqual(*amount)

	return domain.PreviewState(preview)
}

func (s *Service) previewData(pair domain.Pair, quote domain.Quote, subtractedFee decimal.Decimal) (domain.PreviewData, error) {
	if pair.Destination == nil {
		return domain.PreviewData{}, domain.ErrDestinationNotFound
	}

	return domain.PreviewData{
		ExpectedAmount:           pair.Destination.ConvertFromMinorUnits(quote.ToAmount),
		IsPermissionRequired:     !s.IsEnoughAllowance(),
		HasPendingTransaction:    s.tracker.HasPending(pair.Source),
		IsEnoughAmountForExpress: true,
		SubtractedFee:            subtractedFee,
	}, nil
}
