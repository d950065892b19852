package service

import "parkslot/internal/entities"

const (
	PlatformFeeAmount    = 18
	NightSurchargeAmount = 12

	// The night window is [NightWindowStartHour, NightWindowEndHour) on a 24-hour clock.
	NightWindowStartHour = 0
	NightWindowEndHour   = 5
)

// PlatformFee is flat regardless of the base amount.
func PlatformFee(baseAmount float64) float64 {
	return PlatformFeeAmount
}

func IsNightWindow(hour int) bool {
	return hour >= NightWindowStartHour && hour < NightWindowEndHour
}

func NightSurcharge(baseAmount float64, hour int) float64 {
	if IsNightWindow(hour) {
		return NightSurchargeAmount
	}
	return 0
}

// TotalFees builds the breakdown for a base amount at the given hour of day.
// Zero, negative and fractional amounts are accepted as is.
func TotalFees(baseAmount float64, hour int) entities.FeeBreakdown {
	platform := PlatformFee(baseAmount)
	night := NightSurcharge(baseAmount, hour)
	return entities.FeeBreakdown{
		BaseAmount:     baseAmount,
		PlatformFee:    platform,
		NightSurcharge: night,
		TotalFees:      platform + night,
		GrandTotal:     baseAmount + platform + night,
		IsNightTime:    IsNightWindow(hour),
	}
}
