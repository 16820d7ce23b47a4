package http

import (
	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
)

const timeFormat string = "2006-01-02T15:04:05Z07:00"

type CartItemDTO struct {
	ID          string                  `json:"id"`
	Pending     bool                    `json:"pending,omitempty"`
	ProductID   string                  `json:"product_id"`
	Quantity    int                     `json:"quantity"`
	CreatedAt   string                  `json:"created_at"`
	Product     *domain.ProductSnapshot `json:"product,omitempty"`
	Unavailable bool                    `json:"unavailable,omitempty"`
}

type SavedItemDTO struct {
	ID          string                  `json:"id"`
	ProductID   string                  `json:"product_id"`
	SavedAt     string                  `json:"saved_at"`
	Product     *domain.ProductSnapshot `json:"product,omitempty"`
	Unavailable bool                    `json:"unavailable,omitempty"`
}

type GuestItemDTO struct {
	ProductID string                  `json:"product_id"`
	Quantity  int                     `json:"quantity"`
	AddedAt   string                  `json:"added_at"`
	Product   *domain.ProductSnapshot `json:"product,omitempty"`
}

type BasketStateDTO struct {
	Mode              string          `json:"mode"`
	Items             []CartItemDTO   `json:"items"`
	SavedItems        []SavedItemDTO  `json:"saved_items"`
	GuestItems        []GuestItemDTO  `json:"guest_items"`
	Loading           bool            `json:"loading"`
	Updating          map[string]bool `json:"updating,omitempty"`
	Error             string          `json:"error,omitempty"`
	TotalPrice        float64         `json:"total_price"`
	ItemCount         int             `json:"item_count"`
	LastSyncTime      string          `json:"last_sync_time,omitempty"`
	HasPendingChanges bool            `json:"has_pending_changes"`
}

func itemDTO(it domain.CartItem) CartItemDTO {
	return CartItemDTO{
		ID:          it.ID.Value,
		Pending:     it.ID.Pending,
		ProductID:   it.ProductID,
		Quantity:    it.Quantity,
		CreatedAt:   it.CreatedAt.Format(timeFormat),
		Product:     it.Product,
		Unavailable: it.Unavailable,
	}
}

func stateDTO(st domain.BasketState) BasketStateDTO {
	dto := BasketStateDTO{
		Mode:              string(st.Mode),
		Items:             make([]CartItemDTO, len(st.Items)),
		SavedItems:        make([]SavedItemDTO, len(st.SavedItems)),
		GuestItems:        make([]GuestItemDTO, len(st.GuestItems)),
		Loading:           st.Loading,
		Updating:          st.Updating,
		Error:             st.Err,
		TotalPrice:        st.TotalPrice,
		ItemCount:         st.ItemCount,
		HasPendingChanges: st.HasPendingChanges,
	}
	if !st.LastSyncTime.IsZero() {
		dto.LastSyncTime = st.LastSyncTime.Format(timeFormat)
	}

	for i, it := range st.Items {
		dto.Items[i] = itemDTO(it)
	}
	for i, si := range st.SavedItems {
		dto.SavedItems[i] = SavedItemDTO{
			ID:          si.ID,
			ProductID:   si.ProductID,
			SavedAt:     si.SavedAt.Format(timeFormat),
			Product:     si.Product,
			Unavailable: si.Unavailable,
		}
	}
	for i, gi := range st.GuestItems {
		dto.GuestItems[i] = GuestItemDTO{
			ProductID: gi.ProductID,
			Quantity:  gi.Quantity,
			AddedAt:   gi.AddedAt.Format(timeFormat),
			Product:   gi.Product,
		}
	}
	return dto
}
