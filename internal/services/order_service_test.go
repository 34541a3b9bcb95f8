package services_test

import (
	"context"
	"sync"
	"testing"

	"grocery/internal/apperrors"
	"grocery/internal/models"
	"grocery/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_CreateOrder(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)
	f.addProduct(t, "b", "Bread", 50, 5)
	ctx := context.Background()

	order, err := f.orderSvc.CreateOrder(ctx, customer, orderRequest(models.PaymentCashOnDelivery, 300, line("a", 2), line("b", 1)))
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, int64(300), order.TotalPrice)
	assert.Equal(t, order.ComputedTotal(), order.TotalPrice)
	require.NotNil(t, order.UserID)
	assert.Equal(t, "user-1", *order.UserID)
	assert.False(t, order.IsPaid)

	assert.Equal(t, 8, f.stock(t, "a"))
	assert.Equal(t, 4, f.stock(t, "b"))
	assert.Equal(t, []string{services.EventOrderCreated}, f.publisher.Keys())

	stored, err := f.orderSvc.GetOrder(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalPrice, stored.TotalPrice)
}

func TestOrderService_CreateOrderTotalMismatch(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)
	f.addProduct(t, "b", "Bread", 50, 5)
	ctx := context.Background()

	_, err := f.orderSvc.CreateOrder(ctx, customer, orderRequest(models.PaymentCashOnDelivery, 290, line("a", 2), line("b", 1)))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "expected 300, received 290")

	assert.Equal(t, 10, f.stock(t, "a"))
	orders, err := f.orderSvc.ListOrders(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.publisher.Keys())
}

func TestOrderService_CreateOrderUsesCatalogPrices(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)

	// the client believes apples cost 1
	_, err := f.orderSvc.CreateOrder(context.Background(), customer, orderRequest(models.PaymentCashOnDelivery, 52, line("a", 2)))
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestOrderService_CreateOrderSnapshotsCatalog(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)
	ctx := context.Background()

	order, err := f.orderSvc.CreateOrder(ctx, customer, orderRequest(models.PaymentCashOnDelivery, 150, line("a", 1)))
	require.NoError(t, err)

	product, err := f.products.GetByID(ctx, "a")
	require.NoError(t, err)
	product.Name = "Green Apples"
	product.Price = 500
	require.NoError(t, f.products.Update(ctx, product))

	stored, err := f.orderSvc.GetOrder(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apples", stored.Items[0].Name)
	assert.Equal(t, int64(100), stored.Items[0].Price)
}

func TestOrderService_CreateOrderUnknownProduct(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)

	_, err := f.orderSvc.CreateOrder(context.Background(), customer, orderRequest(models.PaymentCashOnDelivery, 250, line("a", 1), line("ghost", 1)))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, 10, f.stock(t, "a"))
}

func TestOrderService_CreateOrderOutOfStock(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 1)
	f.addProduct(t, "b", "Bread", 50, 5)

	_, err := f.orderSvc.CreateOrder(context.Background(), customer, orderRequest(models.PaymentCashOnDelivery, 300, line("b", 1), line("a", 2)))
	assert.Equal(t, apperrors.KindOutOfStock, apperrors.KindOf(err))
	assert.Equal(t, 5, f.stock(t, "b"))
	assert.Equal(t, 1, f.stock(t, "a"))
}

func TestOrderService_GuestCheckout(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)
	ctx := context.Background()

	order, err := f.orderSvc.CreateOrder(ctx, models.Principal{}, orderRequest(models.PaymentGatewayWallet, 150, line("a", 1)))
	require.NoError(t, err)
	assert.Nil(t, order.UserID)

	_, err = f.orderSvc.GetOrder(ctx, models.Principal{}, order.ID)
	assert.NoError(t, err)
}

func TestOrderService_ConcurrentCheckoutOfLastUnit(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 1)

	const buyers = 8
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orderSvc.CreateOrder(context.Background(), customer, orderRequest(models.PaymentCashOnDelivery, 150, line("a", 1)))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperrors.KindOutOfStock, apperrors.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.stock(t, "a"))
}

func TestOrderService_GetOrderOfAnotherUser(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)
	ctx := context.Background()

	order, err := f.orderSvc.CreateOrder(ctx, customer, orderRequest(models.PaymentCashOnDelivery, 150, line("a", 1)))
	require.NoError(t, err)

	_, err = f.orderSvc.GetOrder(ctx, models.Principal{UserID: "user-2", Role: models.RoleCustomer}, order.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = f.orderSvc.GetOrder(ctx, admin, order.ID)
	assert.NoError(t, err)

	_, err = f.orderSvc.GetOrder(ctx, admin, "missing")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestOrderService_ListOrders(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)
	ctx := context.Background()
	other := models.Principal{UserID: "user-2", Role: models.RoleCustomer}

	_, err := f.orderSvc.CreateOrder(ctx, customer, orderRequest(models.PaymentCashOnDelivery, 150, line("a", 1)))
	require.NoError(t, err)
	_, err = f.orderSvc.CreateOrder(ctx, other, orderRequest(models.PaymentCashOnDelivery, 150, line("a", 1)))
	require.NoError(t, err)

	mine, err := f.orderSvc.ListOrders(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.orderSvc.ListOrders(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.orderSvc.ListOrders(ctx, models.Principal{})
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestOrderService_StatusLifecycle(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)
	ctx := context.Background()

	order, err := f.orderSvc.CreateOrder(ctx, customer, orderRequest(models.PaymentCashOnDelivery, 150, line("a", 1)))
	require.NoError(t, err)

	for _, status := range []models.OrderStatus{models.StatusProcessing, models.StatusShipped, models.StatusDelivered} {
		order, err = f.orderSvc.UpdateOrderStatus(ctx, admin, order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, order.Status)
	}
	assert.True(t, order.IsDelivered)
	assert.NotNil(t, order.DeliveredAt)
	assert.True(t, order.IsPaid)

	_, err = f.orderSvc.UpdateOrderStatus(ctx, admin, order.ID, models.StatusProcessing)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))

	stored, err := f.orderSvc.GetOrder(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, stored.Status)
	assert.Equal(t, 9, f.stock(t, "a"))
}

func TestOrderService_CancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)
	ctx := context.Background()

	order, err := f.orderSvc.CreateOrder(ctx, customer, orderRequest(models.PaymentCashOnDelivery, 350, line("a", 3)))
	require.NoError(t, err)
	assert.Equal(t, 7, f.stock(t, "a"))

	cancelled, err := f.orderSvc.UpdateOrderStatus(ctx, admin, order.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.stock(t, "a"))

	// cancelled is terminal, so stock cannot be released twice
	_, err = f.orderSvc.UpdateOrderStatus(ctx, admin, order.ID, models.StatusCancelled)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
	assert.Equal(t, 10, f.stock(t, "a"))
}

func TestOrderService_CancelAfterShippingIsRejected(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)
	ctx := context.Background()

	order, err := f.orderSvc.CreateOrder(ctx, customer, orderRequest(models.PaymentCashOnDelivery, 150, line("a", 1)))
	require.NoError(t, err)
	_, err = f.orderSvc.UpdateOrderStatus(ctx, admin, order.ID, models.StatusProcessing)
	require.NoError(t, err)
	_, err = f.orderSvc.UpdateOrderStatus(ctx, admin, order.ID, models.StatusShipped)
	require.NoError(t, err)

	_, err = f.orderSvc.UpdateOrderStatus(ctx, admin, order.ID, models.StatusCancelled)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
	assert.Equal(t, 9, f.stock(t, "a"))
}

func TestOrderService_GatewayOrderCannotBeAdvancedManually(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)
	ctx := context.Background()

	order, err := f.orderSvc.CreateOrder(ctx, customer, orderRequest(models.PaymentGatewayWallet, 150, line("a", 1)))
	require.NoError(t, err)

	_, err = f.orderSvc.UpdateOrderStatus(ctx, admin, order.ID, models.StatusProcessing)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
}

func TestOrderService_UpdateOrderStatusRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "Apples", 100, 10)
	ctx := context.Background()

	order, err := f.orderSvc.CreateOrder(ctx, customer, orderRequest(models.PaymentCashOnDelivery, 150, line("a", 1)))
	require.NoError(t, err)

	_, err = f.orderSvc.UpdateOrderStatus(ctx, customer, order.ID, models.StatusCancelled)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = f.orderSvc.UpdateOrderStatus(ctx, admin, order.ID, "paid")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
