package basket

import "github.com/kaniobed28/campus-sell/basket-service/internal/domain"

// recomputeLocked rebuilds the derived totals from the list that is
// active for the current mode. Unavailable items stay in the list but
// never count toward what the owner sees.
func (e *Engine) recomputeLocked() {
	var total float64
	var count int

	if e.st.mode == domain.ModeGuest {
		for _, gi := range e.st.guest {
			total += gi.Product.PriceValue() * float64(gi.Quantity)
			count += gi.Quantity
		}
	} else {
		for _, it := range e.st.items {
			if it.Unavailable {
				continue
			}
			total += it.Product.PriceValue() * float64(it.Quantity)
			count += it.Quantity
		}
	}

	e.st.totalPrice = total
	e.st.itemCount = count
}
