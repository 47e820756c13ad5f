package model

import (
	"math"
	"time"
)

// Tier is a member's privilege level. It controls the point-earning rate.
type Tier string

const (
	TierGold      Tier = "Gold"
	TierPlatinum  Tier = "Platinum"
	TierDiamond   Tier = "Diamond"
	TierPrivilege Tier = "Privilege"
)

// Yearly spend thresholds for the spend-based tiers.
const (
	platinumThreshold = 100000
	diamondThreshold  = 150000
)

// PointRate returns how many currency units earn one point at this tier.
// Unrecognized tiers fall back to the Gold rate.
func (t Tier) PointRate() int {
	switch t {
	case TierPrivilege:
		return 120
	case TierDiamond:
		return 160
	case TierPlatinum:
		return 180
	default:
		return 200
	}
}

// TierForSpend maps a cumulative yearly spend onto a spend-based tier.
func TierForSpend(totalAmountPerYear float64) Tier {
	switch {
	case totalAmountPerYear < platinumThreshold:
		return TierGold
	case totalAmountPerYear < diamondThreshold:
		return TierPlatinum
	default:
		return TierDiamond
	}
}

// Privilege is the per-user bookkeeping record: tier, point balance,
// yearly spend and the running sub-rate remainder carried between expenses.
type Privilege struct {
	ID                 int64     `db:"id" json:"id"`
	UserID             int64     `db:"user_id" json:"user_id"`
	Tier               Tier      `db:"prv_type" json:"prv_type"`
	ExpiresAt          time.Time `db:"expires_at" json:"expires_at"`
	CurrentAmount      float64   `db:"current_amount" json:"current_amount"`
	TotalAmountPerYear float64   `db:"total_amount_per_year" json:"total_amount_per_year"`
	CurrentPoint       int       `db:"current_point" json:"current_point"`
	LicenseID          int64     `db:"license_id" json:"license_id"`
	RegisteredAt       time.Time `db:"registered_at" json:"registered_at"`
	IsPurchased        bool      `db:"is_purchased" json:"is_purchased"`
}

// NextTier decides the tier after the yearly spend changes to newTotal.
// A purchased Privilege tier that has not yet expired always wins.
func (p *Privilege) NextTier(newTotal float64, now time.Time) Tier {
	if p.Tier == TierPrivilege && !now.After(p.ExpiresAt) {
		return TierPrivilege
	}
	return TierForSpend(newTotal)
}

// EarnPoints splits the carried remainder plus the new expense amount into
// whole points at the given tier's rate and a new remainder.
func EarnPoints(carriedRemainder, amount float64, tier Tier) (points int, remainder float64) {
	rate := float64(tier.PointRate())
	total := carriedRemainder + amount
	points = int(math.Floor(total / rate))
	remainder = math.Mod(total, rate)
	return points, remainder
}

// Expense is a single recorded purchase. The tier and points columns are
// frozen at recording time so a later deletion can reverse exactly what
// was credited.
type Expense struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	Amount          float64   `db:"expense_amount" json:"expense_amount"`
	TransactionDate time.Time `db:"transaction_date" json:"transaction_date"`
	Tier            Tier      `db:"prv_type" json:"prv_type"`
	Points          int       `db:"expense_point" json:"expense_point"`
}
