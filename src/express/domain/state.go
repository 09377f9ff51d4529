package domain

import "github.com/shopspring/decimal"

// ProviderStateKind discriminates ProviderState.
type ProviderStateKind string

const (
	ProviderStateIdle               ProviderStateKind = "idle"
	ProviderStateLoading            ProviderStateKind = "loading"
	ProviderStatePreview            ProviderStateKind = "preview"
	ProviderStateAvailable          ProviderStateKind = "available"
	ProviderStateRestriction        ProviderStateKind = "restriction"
	ProviderStatePermissionRequired ProviderStateKind = "permission_required"
	ProviderStateError              ProviderStateKind = "error"
)

// RestrictionKind tells the caller which actionable condition blocked the swap.
type RestrictionKind string

const (
	RestrictionInsufficientBalance RestrictionKind = "insufficient_balance"
	RestrictionTooSmallAmount      RestrictionKind = "too_small_amount"
	RestrictionApprovalPending     RestrictionKind = "approval_pending"
)

// ProviderState is the tagged union a provider manager owns. Exactly one field
// group is meaningful per Kind; everything else is zero. States are terminal
// for their cycle: a new update always restarts from loading.
type ProviderState struct {
	Kind ProviderStateKind

	// loading
	RefreshType RefreshType

	// preview / restriction / permission_required / error may carry a quote
	// fetched for display purposes
	Quote *Quote

	// preview
	SubtractedFee decimal.Decimal
	EstimatedFee  decimal.Decimal

	// available
	Availability *AvailabilityModel

	// restriction
	Restriction RestrictionKind
	// insufficient_balance: the requested amount; too_small_amount: the
	// provider's minimum. Major units.
	RestrictionAmount decimal.Decimal

	// permission_required
	ApproveData *ApproveData

	// error
	Err error
}

func IdleProviderState() ProviderState {
	return ProviderState{Kind: ProviderStateIdle}
}

func LoadingProviderState(refreshType RefreshType) ProviderState {
	return ProviderState{Kind: ProviderStateLoading, RefreshType: refreshType}
}

func PreviewProviderState(quote Quote, estimatedFee, subtractedFee decimal.Decimal) ProviderState {
	return ProviderState{
		Kind:          ProviderStatePreview,
		Quote:         &quote,
		EstimatedFee:  estimatedFee,
		SubtractedFee: subtractedFee,
	}
}

func AvailableProviderState(model AvailabilityModel) ProviderState {
	return ProviderState{Kind: ProviderStateAvailable, Availability: &model}
}

func RestrictionProviderState(kind RestrictionKind, amount decimal.Decimal, quote *Quote) ProviderState {
	return ProviderState{
		Kind:              ProviderStateRestriction,
		Restriction:       kind,
		RestrictionAmount: amount,
		Quote:             quote,
	}
}

func PermissionRequiredProviderState(quote Quote, approveData ApproveData) ProviderState {
	return ProviderState{
		Kind:        ProviderStatePermissionRequired,
		Quote:       &quote,
		ApproveData: &approveData,
	}
}

func ErrorProviderState(err error, quote *Quote) ProviderState {
	return ProviderState{Kind: ProviderStateError, Err: err, Quote: quote}
}

// AvailabilityStateKind discriminates AvailabilityState.
type AvailabilityStateKind string

const (
	AvailabilityIdle               AvailabilityStateKind = "idle"
	AvailabilityLoading            AvailabilityStateKind = "loading"
	AvailabilityPreview            AvailabilityStateKind = "preview"
	AvailabilityAvailable          AvailabilityStateKind = "available"
	AvailabilityPermissionRequired AvailabilityStateKind = "permission_required"
	AvailabilityRestriction        AvailabilityStateKind = "restriction"
	AvailabilityRequiredRefresh    AvailabilityStateKind = "required_refresh"
)

// AvailabilityState is the aggregated, caller-facing result of a refresh cycle
// for the selected provider.
type AvailabilityState struct {
	Kind AvailabilityStateKind

	RefreshType RefreshType

	Preview      *PreviewData
	Availability *AvailabilityModel

	Quote       *Quote
	ApproveData *ApproveData

	Restriction       RestrictionKind
	RestrictionAmount decimal.Decimal

	// required_refresh: the error that aborted the cycle. The whole cycle must
	// be retried, never partially trusted.
	OccurredError error
}

func IdleState() AvailabilityState {
	return AvailabilityState{Kind: AvailabilityIdle}
}

func LoadingState(refreshType RefreshType) AvailabilityState {
	return AvailabilityState{Kind: AvailabilityLoading, RefreshType: refreshType}
}

func PreviewState(preview PreviewData) AvailabilityState {
	return AvailabilityState{Kind: AvailabilityPreview, Preview: &preview}
}

func AvailableState(model AvailabilityModel) AvailabilityState {
	return AvailabilityState{Kind: AvailabilityAvailable, Availability: &model}
}

func PermissionRequiredState(quote Quote, approveData ApproveData) AvailabilityState {
	return AvailabilityState{
		Kind:        AvailabilityPermissionRequired,
		Quote:       &quote,
		ApproveData: &approveData,
	}
}

func RestrictionState(kind RestrictionKind, amount decimal.Decimal, quote *Quote) AvailabilityState {
	return AvailabilityState{
		Kind:              AvailabilityRestriction,
		Restriction:       kind,
		RestrictionAmount: amount,
		Quote:             quote,
	}
}

func RequiredRefreshState(err error) AvailabilityState {
	return AvailabilityState{Kind: AvailabilityRequiredRefresh, OccurredError: err}
}
