package domain

import "github.com/shopspring/decimal"

// ApprovePolicy determines how much allowance an approve transaction requests.
type ApprovePolicy struct {
	kind   approvePolicyKind
	amount decimal.Decimal
}

type approvePolicyKind int

const (
	approveSpecified approvePolicyKind = iota
	approveUnlimited
)

// maxAllowance is 2^256-1, the conventional "unlimited" ERC20 allowance.
var maxAllowance = decimal.NewFromInt(2).Pow(decimal.NewFromInt(256)).Sub(decimal.NewFromInt(1))

func ApprovePolicySpecified(amount decimal.Decimal) ApprovePolicy {
	return ApprovePolicy{kind: approveSpecified, amount: amount}
}

func ApprovePolicyUnlimited() ApprovePolicy {
	return ApprovePolicy{kind: approveUnlimited}
}

func (p ApprovePolicy) IsUnlimited() bool {
	return p.kind == approveUnlimited
}

// Amount returns the allowance to request, in minor units for specified
// policies and the maximum representable value for unlimited ones.
func (p ApprovePolicy) Amount() decimal.Decimal {
	if p.kind == approveUnlimited {
		return maxAllowance
	}
	return p.amount
}

// GasPricePolicy is the fee tier for a transaction.
type GasPricePolicy string

const (
	GasPricePolicyNormal   GasPricePolicy = "normal"
	GasPricePolicyPriority GasPricePolicy = "priority"
)

// GasPricePolicies lists all tiers, in escalation order.
var GasPricePolicies = []GasPricePolicy{GasPricePolicyNormal, GasPricePolicyPriority}

// Increased bumps a base gas value for the policy. Priority inflates by 50%
// with integer truncation (value * 150 / 100); kept integer for bit-for-bit
// compatibility with the fee backends.
func (p GasPricePolicy) Increased(value int) int {
	switch p {
	case GasPricePolicyPriority:
		return value * 150 / 100
	default:
		return value
	}
}

// RefreshType selects how much of the cycle to run.
type RefreshType string

const (
	RefreshTypeFull      RefreshType = "full"
	RefreshTypeRatesOnly RefreshType = "rates_only"
)
