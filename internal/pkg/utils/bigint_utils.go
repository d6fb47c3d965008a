package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatBigInt converts a minor-unit amount to a human-readable decimal
// string for the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) (string, error) {
	if amount == nil {
		return "0", nil
	}
	if decimals == 0 {
		return amount.String(), nil
	}

	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(amountFloat, divisor)

	formatted := value.Text('f', int(decimals))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	if strings.HasPrefix(formatted, ".") {
		formatted = "0" + formatted
	}
	if formatted == "" {
		if amount.Sign() == 0 {
			return "0", nil
		}
		return value.Text('f', 2), fmt.Errorf("formatting resulted in empty string for non-zero value")
	}

	return formatted, nil
}

// CalculateValueUSD computes amount * priceUSD with the amount scaled
// down by decimals. The multiplication happens in big.Float to avoid
// precision loss before the final float64 conversion.
func CalculateValueUSD(amount *big.Int, decimals uint8, priceUSD float64) (float64, error) {
	if amount == nil {
		return 0, nil
	}
	if priceUSD < 0 {
		return 0, fmt.Errorf("negative price %f", priceUSD)
	}
	if amount.Sign() == 0 || priceUSD == 0 {
		return 0, nil
	}

	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	scaled := new(big.Float).Quo(amountFloat, divisor)
	value := new(big.Float).Mul(scaled, big.NewFloat(priceUSD))

	result, _ := value.Float64()
	return result, nil
}
