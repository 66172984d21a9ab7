package pricing

import (
	"errors"

	"driveshare/internal/domain/shared/money"
	"driveshare/internal/domain/shared/timewindow"
)

var (
	ErrInvalidFormat  = errors.New("pricing: trip dates are not valid instants")
	ErrEndBeforeStart = errors.New("pricing: trip end must be after trip start")
	ErrInvalidRange   = errors.New("pricing: trip length must cover at least one day")
	ErrNegativeRate   = errors.New("pricing: rates cannot be negative")
)

type Tier string

const (
	TierDaily   Tier = "DAILY"
	TierWeekly  Tier = "WEEKLY"
	TierMonthly Tier = "MONTHLY"
)

const serviceFeePercent = 10

// RateSchedule carries the host-configured rates for one quote request.
// Weekly and monthly totals are optional; when set they usually undercut
// the pure daily rate, which is assumed for savings framing but not enforced.
type RateSchedule struct {
	DailyRate    money.Money
	WeeklyTotal  *money.Money
	MonthlyTotal *money.Money
}

// WeeklyDailyEquivalent returns the weekly rate expressed per day,
// rounded to whole minor units for display.
func (r RateSchedule) WeeklyDailyEquivalent() (money.Money, bool) {
	if r.WeeklyTotal == nil {
		return money.Money{}, false
	}
	return r.WeeklyTotal.DivRound(7), true
}

// MonthlyDailyEquivalent returns the monthly rate expressed per day,
// rounded to whole minor units for display.
func (r RateSchedule) MonthlyDailyEquivalent() (money.Money, bool) {
	if r.MonthlyTotal == nil {
		return money.Money{}, false
	}
	return r.MonthlyTotal.DivRound(30), true
}

func (r RateSchedule) validate() error {
	if r.DailyRate.Amount < 0 {
		return ErrNegativeRate
	}
	if r.WeeklyTotal != nil && r.WeeklyTotal.Amount < 0 {
		return ErrNegativeRate
	}
	if r.MonthlyTotal != nil && r.MonthlyTotal.Amount < 0 {
		return ErrNegativeRate
	}
	return nil
}

// Quote is the itemized result of one pricing computation. It is derived
// on demand and never persisted as-is; commit paths snapshot it onto the
// reservation they create.
type Quote struct {
	Days          int
	Tier          Tier
	EffectiveRate money.Money
	Subtotal      money.Money
	OriginalCost  money.Money
	Savings       money.Money
	InsuranceFee  money.Money
	ServiceFee    money.Money
	Total         money.Money
	DiscountLabel string
}

// candidate is a tier cost kept as an exact rational (total = num/den minor
// units) so that comparison never suffers intermediate rounding.
type candidate struct {
	tier  Tier
	num   int64
	den   int64
	label string
}

// lessOrEqual reports whether c costs at most as much as other, comparing
// num/den against other.num/other.den by cross multiplication.
func (c candidate) lessOrEqual(other candidate) bool {
	return c.num*other.den <= other.num*c.den
}

// ComputeQuote selects the most economical applicable tier for the window
// and produces an itemized quote. Validation failures are reported through
// the distinct date errors, checked in order: parseable instants, ordering,
// positive whole-day length.
//
// Monetary rounding happens only at the boundaries (subtotal, insurance
// fee, service fee, total); tier comparison runs on exact rationals.
func ComputeQuote(rates RateSchedule, window timewindow.Window, insuranceDailyFee money.Money) (Quote, error) {
	if window.Start.IsZero() || window.End.IsZero() {
		return Quote{}, ErrInvalidFormat
	}
	if !window.End.After(window.Start) {
		return Quote{}, ErrEndBeforeStart
	}
	days := window.Days()
	if days <= 0 {
		return Quote{}, ErrInvalidRange
	}
	if err := rates.validate(); err != nil {
		return Quote{}, err
	}

	currency := rates.DailyRate.Currency
	d := int64(days)

	best := candidate{tier: TierDaily, num: rates.DailyRate.Amount * d, den: 1}
	// Later candidates win ties so equal cost prefers the longer commitment.
	if rates.WeeklyTotal != nil && days >= 7 {
		weekly := candidate{tier: TierWeekly, num: rates.WeeklyTotal.Amount * d, den: 7, label: "weekly rate"}
		if weekly.lessOrEqual(best) {
			best = weekly
		}
	}
	if rates.MonthlyTotal != nil && days >= 30 {
		monthly := candidate{tier: TierMonthly, num: rates.MonthlyTotal.Amount * d, den: 30, label: "monthly rate"}
		if monthly.lessOrEqual(best) {
			best = monthly
		}
	}

	subtotal := money.Money{Amount: money.DivRoundHalfUp(best.num, best.den), Currency: currency}
	originalCost := rates.DailyRate.Multiply(d)
	savings := money.Money{Amount: originalCost.Amount - subtotal.Amount, Currency: currency}
	if savings.Amount < 0 {
		savings.Amount = 0
	}

	insuranceFee := money.Money{Amount: insuranceDailyFee.Amount * d, Currency: currency}
	if insuranceDailyFee.Currency != "" && insuranceDailyFee.Currency != currency {
		return Quote{}, money.ErrCurrencyMismatch
	}
	serviceFee := money.Money{Amount: money.DivRoundHalfUp(subtotal.Amount*serviceFeePercent, 100), Currency: currency}
	total := money.Money{Amount: subtotal.Amount + insuranceFee.Amount + serviceFee.Amount, Currency: currency}

	return Quote{
		Days:          days,
		Tier:          best.tier,
		EffectiveRate: effectiveRate(rates, best.tier),
		Subtotal:      subtotal,
		OriginalCost:  originalCost,
		Savings:       savings,
		InsuranceFee:  insuranceFee,
		ServiceFee:    serviceFee,
		Total:         total,
		DiscountLabel: best.label,
	}, nil
}

func effectiveRate(rates RateSchedule, tier Tier) money.Money {
	switch tier {
	case TierWeekly:
		if eq, ok := rates.WeeklyDailyEquivalent(); ok {
			return eq
		}
	case TierMonthly:
		if eq, ok := rates.MonthlyDailyEquivalent(); ok {
			return eq
		}
	}
	return rates.DailyRate
}
