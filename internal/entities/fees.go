package entities

import "strconv"

// FeeBreakdown is computed per request and never stored.
type FeeBreakdown struct {
	BaseAmount     float64 `json:"base_amount"`
	PlatformFee    float64 `json:"platform_fee"`
	NightSurcharge float64 `json:"night_surcharge"`
	TotalFees      float64 `json:"total_fees"`
	GrandTotal     float64 `json:"grand_total"`
	IsNightTime    bool    `json:"is_night_time"`
}

// FormatAmount prints an amount without exponent or trailing zeros: 1018, 117.5.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type TimeInfo struct {
	CurrentHour           int    `json:"current_hour"`
	CurrentTime           string `json:"current_time"`
	IsNightTime           bool   `json:"is_night_time"`
	NightSurchargeApplies bool   `json:"night_surcharge_applies"`
}
