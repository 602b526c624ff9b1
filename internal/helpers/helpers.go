package helpers

import (
	"fmt"
	"strings"
)

// Stage constants define the possible deployment/runtime environments.
const (
	StageProd  = "prod"
	StageDev   = "dev"
	StageLocal = "local"
)

// IsValidStage checks if the provided stage string is one of the defined valid stages.
func IsValidStage(stage string) bool {
	switch stage {
	case StageProd, StageDev, StageLocal:
		return true
	default:
		return false
	}
}

// zeroDecimalCurrencies have no minor unit subdivision.
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true,
	"KMF": true, "KRW": true, "MGA": true, "PYG": true, "RWF": true,
	"UGX": true, "VND": true, "VUV": true, "XAF": true, "XOF": true,
	"XPF": true,
}

// IsZeroDecimalCurrency reports whether amounts in currency are already in major units.
func IsZeroDecimalCurrency(currency string) bool {
	return zeroDecimalCurrencies[strings.ToUpper(currency)]
}

// MinorToMajor converts an amount in the currency's smallest unit into major units.
func MinorToMajor(amount int64, currency string) float64 {
	if IsZeroDecimalCurrency(currency) {
		return float64(amount)
	}
	return float64(amount) / 100
}

// FormatAmount renders a minor-unit amount for display, e.g. 2000 "usd" -> "20.00 USD".
func FormatAmount(amount int64, currency string) string {
	code := strings.ToUpper(currency)
	if IsZeroDecimalCurrency(code) {
		return fmt.Sprintf("%d %s", amount, code)
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, code)
}
