package catalog

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.MustParse("es-AR"))

// FormatPrice renders an amount in Argentine pesos without decimals, e.g.
// "$ 449.000".
func FormatPrice(amount float64) string {
	return pricePrinter.Sprintf("$ %d", int64(math.Round(amount)))
}
