package services_test

import (
	"context"
	"sync"
	"testing"

	"grocery/internal/models"
	"grocery/internal/repositories"
	"grocery/internal/services"
	"grocery/pkg/khalti"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// MockGateway is a mock implementation of services.PaymentGateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Initiate(ctx context.Context, req khalti.InitiateRequest) (*khalti.InitiateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*khalti.InitiateResponse), args.Error(1)
}

func (m *MockGateway) Lookup(ctx context.Context, paymentIndex string) (*khalti.LookupResponse, error) {
	args := m.Called(ctx, paymentIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*khalti.LookupResponse), args.Error(1)
}

// recordingPublisher keeps every published routing key.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(routingKey string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

type fixture struct {
	products  *repositories.MemoryProductRepository
	orders    *repositories.MemoryOrderRepository
	payments  *repositories.MemoryPaymentRepository
	gateway   *MockGateway
	publisher *recordingPublisher
	orderSvc  *services.OrderService
	paySvc    *services.PaymentService
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	products := repositories.NewMemoryProductRepository()
	orders := repositories.NewMemoryOrderRepository(products)
	payments := repositories.NewMemoryPaymentRepository()
	gateway := new(MockGateway)
	publisher := &recordingPublisher{}
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	return &fixture{
		products:  products,
		orders:    orders,
		payments:  payments,
		gateway:   gateway,
		publisher: publisher,
		logs:      logs,
		orderSvc: services.NewOrderService(orders, products, publisher,
			services.PricingPolicy{ShippingFee: 50}, logger),
		paySvc: services.NewPaymentService(orders, payments, gateway, publisher, services.PaymentConfig{
			ReturnURL:  "http://localhost:8080/api/payments/gateway/callback",
			WebsiteURL: "http://localhost:3000",
		}, logger),
	}
}

func (f *fixture) addProduct(t *testing.T, id, name string, price int64, stock int) {
	t.Helper()
	require.NoError(t, f.products.Create(context.Background(), &models.Product{
		ID:       id,
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: "fruits",
		ImageURL: "/images/" + id + ".jpg",
	}))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func testAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName: "Sita Sharma",
		Phone:    "9800000001",
		Email:    "sita@example.com",
		Street:   "Durbar Marg",
		City:     "Kathmandu",
		Country:  "Nepal",
	}
}

func orderRequest(method models.PaymentMethod, total int64, lines ...services.OrderLineRequest) services.CreateOrderRequest {
	return services.CreateOrderRequest{
		Items:           lines,
		ShippingAddress: testAddress(),
		PaymentMethod:   method,
		TotalPrice:      total,
	}
}

func line(productID string, quantity int) services.OrderLineRequest {
	return services.OrderLineRequest{ProductID: productID, Quantity: quantity}
}

var (
	customer = models.Principal{UserID: "user-1", Role: models.RoleCustomer}
	admin    = models.Principal{UserID: "admin-1", Role: models.RoleAdmin}
)
