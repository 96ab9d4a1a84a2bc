package checkout

import (
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

// FormatAddress renders "street, number, city". A nil address renders empty.
func FormatAddress(addr *domain.Address) string {
	if addr == nil {
		return ""
	}
	return fmt.Sprintf("%s, %s, %s", addr.Street, addr.Number, addr.City)
}

// RenderSummary is the plain-text receipt shown after a purchase.
func RenderSummary(s domain.CheckoutSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Compra %s\n", s.CheckoutID)
	fmt.Fprintf(&b, "Cliente: %s <%s>\n", s.CustomerName, s.CustomerEmail)
	fmt.Fprintf(&b, "Envío a: %s\n", s.Address)
	for _, item := range s.Items {
		fmt.Fprintf(&b, "  %d x %s  %s\n", item.Quantity, item.Name, catalog.FormatPrice(item.Subtotal()))
	}
	fmt.Fprintf(&b, "Total: %s\n", catalog.FormatPrice(s.Total))
	return b.String()
}
