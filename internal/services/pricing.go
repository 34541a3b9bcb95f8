package services

import (
	"grocery/internal/apperrors"
	"grocery/internal/models"
)

// PricingPolicy holds the server-side shipping and tax rules.
type PricingPolicy struct {
	ShippingFee int64
	TaxPercent  int64
}

// OrderLineRequest is one cart line submitted at checkout.
type OrderLineRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest is the checkout payload. Prices are declared by the
// client and only ever compared against the recomputed quote.
type CreateOrderRequest struct {
	Items           []OrderLineRequest     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   models.PaymentMethod   `json:"paymentMethod" validate:"required,oneof=cash_on_delivery gateway_wallet"`
	ItemsPrice      *int64                 `json:"itemsPrice"`
	ShippingPrice   *int64                 `json:"shippingPrice"`
	TaxPrice        *int64                 `json:"taxPrice"`
	TotalPrice      int64                  `json:"totalPrice" validate:"gte=0"`
}

// Quote is an order priced from the catalog.
type Quote struct {
	Items         []models.OrderItem
	ItemsPrice    int64
	ShippingPrice int64
	TaxPrice      int64
	TotalPrice    int64
}

// ComputeQuote prices lines against catalog. It does not look at anything the
// client declared. Repeated lines for one product are kept as separate items.
func ComputeQuote(lines []OrderLineRequest, catalog map[string]models.Product, policy PricingPolicy) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, apperrors.Validation("order must contain at least one item")
	}

	quote := Quote{Items: make([]models.OrderItem, 0, len(lines))}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return Quote{}, apperrors.Validation("quantity for product %s must be positive", line.ProductID)
		}
		product, ok := catalog[line.ProductID]
		if !ok {
			return Quote{}, apperrors.NotFound("product with ID %s not found", line.ProductID)
		}
		item := models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.EffectivePrice(),
			Quantity:  line.Quantity,
			Image:     product.ImageURL,
		}
		quote.Items = append(quote.Items, item)
		quote.ItemsPrice += item.Subtotal()
	}

	quote.ShippingPrice = policy.ShippingFee
	quote.TaxPrice = quote.ItemsPrice * policy.TaxPercent / 100
	quote.TotalPrice = quote.ItemsPrice + quote.ShippingPrice + quote.TaxPrice
	return quote, nil
}

// Verify rejects a request whose declared amounts differ from the quote.
func (q Quote) Verify(req CreateOrderRequest) error {
	if req.ItemsPrice != nil && *req.ItemsPrice != q.ItemsPrice {
		return apperrors.Validation("items price mismatch: expected %d, received %d", q.ItemsPrice, *req.ItemsPrice)
	}
	if req.ShippingPrice != nil && *req.ShippingPrice != q.ShippingPrice {
		return apperrors.Validation("shipping price mismatch: expected %d, received %d", q.ShippingPrice, *req.ShippingPrice)
	}
	if req.TaxPrice != nil && *req.TaxPrice != q.TaxPrice {
		return apperrors.Validation("tax price mismatch: expected %d, received %d", q.TaxPrice, *req.TaxPrice)
	}
	if req.TotalPrice != q.TotalPrice {
		return apperrors.Validation("total mismatch: expected %d, received %d", q.TotalPrice, req.TotalPrice)
	}
	return nil
}
