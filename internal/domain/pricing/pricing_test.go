package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveshare/internal/domain/shared/money"
	"driveshare/internal/domain/shared/timewindow"
)

func usd(amount int64) money.Money {
	return money.Money{Amount: amount, Currency: "USD"}
}

func usdPtr(amount int64) *money.Money {
	m := usd(amount)
	return &m
}

func tripDays(days int) timewindow.Window {
	start := time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC)
	return timewindow.Window{Start: start, End: start.AddDate(0, 0, days)}
}

func TestComputeQuoteDailyOnly(t *testing.T) {
	// dailyRate=100000, 3 days, insurance 15000/day.
	rates := RateSchedule{DailyRate: usd(100000)}
	quote, err := ComputeQuote(rates, tripDays(3), usd(15000))
	require.NoError(t, err)

	assert.Equal(t, 3, quote.Days)
	assert.Equal(t, TierDaily, quote.Tier)
	assert.Equal(t, int64(300000), quote.Subtotal.Amount)
	assert.Equal(t, int64(300000), quote.OriginalCost.Amount)
	assert.Equal(t, int64(0), quote.Savings.Amount)
	assert.Equal(t, int64(45000), quote.InsuranceFee.Amount)
	assert.Equal(t, int64(30000), quote.ServiceFee.Amount)
	assert.Equal(t, int64(375000), quote.Total.Amount)
	assert.Empty(t, quote.DiscountLabel)
}

func TestComputeQuoteWeeklyTier(t *testing.T) {
	rates := RateSchedule{DailyRate: usd(100000), WeeklyTotal: usdPtr(600000)}
	quote, err := ComputeQuote(rates, tripDays(7), usd(0))
	require.NoError(t, err)

	assert.Equal(t, TierWeekly, quote.Tier)
	assert.Equal(t, int64(600000), quote.Subtotal.Amount)
	assert.Equal(t, int64(700000), quote.OriginalCost.Amount)
	assert.Equal(t, int64(100000), quote.Savings.Amount)
	// 600000/7 rounded half up.
	assert.Equal(t, int64(85714), quote.EffectiveRate.Amount)
	assert.Equal(t, "weekly rate", quote.DiscountLabel)
}

func TestComputeQuoteDateErrors(t *testing.T) {
	rates := RateSchedule{DailyRate: usd(100000)}
	start := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	t.Run("zero instants", func(t *testing.T) {
		_, err := ComputeQuote(rates, timewindow.Window{}, usd(0))
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})
	t.Run("start equals end", func(t *testing.T) {
		_, err := ComputeQuote(rates, timewindow.Window{Start: start, End: start}, usd(0))
		assert.ErrorIs(t, err, ErrEndBeforeStart)
	})
	t.Run("end before start", func(t *testing.T) {
		_, err := ComputeQuote(rates, timewindow.Window{Start: start, End: start.AddDate(0, 0, -2)}, usd(0))
		assert.ErrorIs(t, err, ErrEndBeforeStart)
	})
	t.Run("negative rate", func(t *testing.T) {
		_, err := ComputeQuote(RateSchedule{DailyRate: usd(-1)}, tripDays(2), usd(0))
		assert.ErrorIs(t, err, ErrNegativeRate)
	})
}

func TestTierSelection(t *testing.T) {
	rates := RateSchedule{
		DailyRate:    usd(100000),
		WeeklyTotal:  usdPtr(600000),
		MonthlyTotal: usdPtr(2100000),
	}

	t.Run("six days stays daily", func(t *testing.T) {
		quote, err := ComputeQuote(rates, tripDays(6), usd(0))
		require.NoError(t, err)
		assert.Equal(t, TierDaily, quote.Tier)
		assert.Equal(t, int64(600000), quote.Subtotal.Amount)
	})
	t.Run("seven days flips to weekly", func(t *testing.T) {
		quote, err := ComputeQuote(rates, tripDays(7), usd(0))
		require.NoError(t, err)
		assert.Equal(t, TierWeekly, quote.Tier)
	})
	t.Run("thirty days flips to monthly", func(t *testing.T) {
		quote, err := ComputeQuote(rates, tripDays(30), usd(0))
		require.NoError(t, err)
		assert.Equal(t, TierMonthly, quote.Tier)
		assert.Equal(t, int64(2100000), quote.Subtotal.Amount)
		assert.Equal(t, int64(900000), quote.Savings.Amount)
	})
	t.Run("expensive weekly is ignored", func(t *testing.T) {
		pricey := RateSchedule{DailyRate: usd(100000), WeeklyTotal: usdPtr(800000)}
		quote, err := ComputeQuote(pricey, tripDays(7), usd(0))
		require.NoError(t, err)
		assert.Equal(t, TierDaily, quote.Tier)
		assert.Equal(t, int64(0), quote.Savings.Amount)
	})
	t.Run("equal cost prefers longer commitment", func(t *testing.T) {
		flat := RateSchedule{DailyRate: usd(100000), WeeklyTotal: usdPtr(700000)}
		quote, err := ComputeQuote(flat, tripDays(7), usd(0))
		require.NoError(t, err)
		assert.Equal(t, TierWeekly, quote.Tier)
		assert.Equal(t, int64(0), quote.Savings.Amount)
	})
}

func TestFractionalTierComparison(t *testing.T) {
	// At 8 days the weekly tier costs 600000*8/7 = 685714.29 exactly; the
	// comparison must run on the unrounded value and subtotal rounds once.
	rates := RateSchedule{DailyRate: usd(100000), WeeklyTotal: usdPtr(600000)}
	quote, err := ComputeQuote(rates, tripDays(8), usd(0))
	require.NoError(t, err)

	assert.Equal(t, TierWeekly, quote.Tier)
	assert.Equal(t, int64(685714), quote.Subtotal.Amount)
	assert.Equal(t, int64(800000), quote.OriginalCost.Amount)
	assert.Equal(t, int64(114286), quote.Savings.Amount)
}

func TestSavingsNeverNegative(t *testing.T) {
	for days := 1; days <= 40; days++ {
		rates := RateSchedule{
			DailyRate:    usd(100000),
			WeeklyTotal:  usdPtr(650000),
			MonthlyTotal: usdPtr(2400000),
		}
		quote, err := ComputeQuote(rates, tripDays(days), usd(0))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, quote.Savings.Amount, int64(0), "days=%d", days)
		if quote.Savings.Amount == 0 {
			assert.Equal(t, quote.OriginalCost.Amount, quote.Subtotal.Amount, "days=%d", days)
		}
	}
}

func TestServiceFeeRounding(t *testing.T) {
	// Subtotal 333333 -> 10% = 33333.3 rounds to 33333.
	rates := RateSchedule{DailyRate: usd(111111)}
	quote, err := ComputeQuote(rates, tripDays(3), usd(0))
	require.NoError(t, err)
	assert.Equal(t, int64(333333), quote.Subtotal.Amount)
	assert.Equal(t, int64(33333), quote.ServiceFee.Amount)

	// Subtotal 333335 -> 10% = 33333.5 rounds half up to 33334.
	rates = RateSchedule{DailyRate: usd(66667)}
	quote, err = ComputeQuote(rates, tripDays(5), usd(0))
	require.NoError(t, err)
	assert.Equal(t, int64(333335), quote.Subtotal.Amount)
	assert.Equal(t, int64(33334), quote.ServiceFee.Amount)
}

func TestCurrencyMismatchRejected(t *testing.T) {
	rates := RateSchedule{DailyRate: usd(100000)}
	_, err := ComputeQuote(rates, tripDays(2), money.Money{Amount: 1000, Currency: "EUR"})
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestDailyEquivalents(t *testing.T) {
	rates := RateSchedule{
		DailyRate:    usd(100000),
		WeeklyTotal:  usdPtr(600000),
		MonthlyTotal: usdPtr(2100000),
	}
	weekly, ok := rates.WeeklyDailyEquivalent()
	require.True(t, ok)
	assert.Equal(t, int64(85714), weekly.Amount)

	monthly, ok := rates.MonthlyDailyEquivalent()
	require.True(t, ok)
	assert.Equal(t, int64(70000), monthly.Amount)

	_, ok = RateSchedule{DailyRate: usd(100000)}.WeeklyDailyEquivalent()
	assert.False(t, ok)
}
