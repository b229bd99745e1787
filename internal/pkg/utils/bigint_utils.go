package utils

import (
	"math/big"
	"strings"
)

// FormatBigInt renders amount as a decimal string with the given number of decimals,
// trimming trailing zeros. Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).SetPrec(256).Quo(new(big.Float).SetPrec(256).SetInt(amount), divisor)
	formatted := value.Text('f', int(decimals))

	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	if formatted == "" || formatted == "-0" {
		return "0"
	}
	return formatted
}
