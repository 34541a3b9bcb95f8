package app

import (
	"context"
	"time"

	"grocery/internal/config"
	"grocery/internal/handlers"
	"grocery/internal/middleware"
	"grocery/internal/repositories"
	"grocery/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories groups the storage the services run on.
type Repositories struct {
	Products repositories.ProductRepository
	Orders   repositories.OrderRepository
	Users    repositories.UserRepository
	Payments repositories.PaymentRepository
}

func GORMRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Products: repositories.NewGORMProductRepository(db),
		Orders:   repositories.NewGORMOrderRepository(db),
		Users:    repositories.NewGORMUserRepository(db),
		Payments: repositories.NewGORMPaymentRepository(db),
	}
}

// MemoryRepositories keeps everything in process. Orders reserve stock in the
// same product store.
func MemoryRepositories() Repositories {
	products := repositories.NewMemoryProductRepository()
	return Repositories{
		Products: products,
		Orders:   repositories.NewMemoryOrderRepository(products),
		Users:    repositories.NewMemoryUserRepository(),
		Payments: repositories.NewMemoryPaymentRepository(),
	}
}

// Deps are the collaborators New wires together. Publisher, DatabaseCheck and
// BusConnected are optional.
type Deps struct {
	Config        *config.Config
	Logger        *zap.Logger
	Repos         Repositories
	Gateway       services.PaymentGateway
	Publisher     services.EventPublisher
	DatabaseCheck func(ctx context.Context) error
	BusConnected  func() bool
}

// App is the assembled HTTP application.
type App struct {
	Fiber    *fiber.App
	Auth     *services.AuthService
	Products *services.ProductService
	Orders   *services.OrderService
	Payments *services.PaymentService
}

// New builds the services, handlers and routes.
func New(d Deps) *App {
	cfg := d.Config
	logger := d.Logger

	authService := services.NewAuthService(d.Repos.Users, cfg.JWTSecret, cfg.JWTTTL, logger)
	productService := services.NewProductService(d.Repos.Products, logger)
	orderService := services.NewOrderService(d.Repos.Orders, d.Repos.Products, d.Publisher, services.PricingPolicy{
		ShippingFee: cfg.ShippingFee,
		TaxPercent:  cfg.TaxPercent,
	}, logger)
	paymentService := services.NewPaymentService(d.Repos.Orders, d.Repos.Payments, d.Gateway, d.Publisher, services.PaymentConfig{
		ReturnURL:  cfg.GatewayReturnURL(),
		WebsiteURL: cfg.FrontendURL,
		Timeout:    cfg.GatewayTimeout,
	}, logger)

	guards := middleware.NewGuards(authService)

	fiberApp := fiber.New(fiber.Config{
		AppName:      "grocery",
		ErrorHandler: handlers.ErrorHandler(logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	fiberApp.Use(recover.New())
	fiberApp.Use(requestid.New())
	fiberApp.Use(middleware.RequestLogger(logger))

	fiberApp.Get("/health", healthHandler(d))

	api := fiberApp.Group("/api")
	handlers.NewAuthHandler(authService).RegisterRoutes(api)
	handlers.NewProductHandler(productService, guards).RegisterRoutes(api)
	handlers.NewOrderHandler(orderService, guards).RegisterRoutes(api)
	handlers.NewPaymentHandler(paymentService, guards, cfg.FrontendURL, logger).RegisterRoutes(api)

	fiberApp.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "route "+c.Method()+" "+c.Path()+" not found")
	})

	return &App{
		Fiber:    fiberApp,
		Auth:     authService,
		Products: productService,
		Orders:   orderService,
		Payments: paymentService,
	}
}

func healthHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		body := fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "memory",
			"eventBus": "disabled",
		}

		if d.DatabaseCheck != nil {
			body["database"] = "up"
			if err := d.DatabaseCheck(c.UserContext()); err != nil {
				d.Logger.Error("database health check failed", zap.Error(err))
				body["database"] = "down"
				body["status"] = "unhealthy"
				status = fiber.StatusServiceUnavailable
			}
		}
		if d.BusConnected != nil {
			body["eventBus"] = "connected"
			if !d.BusConnected() {
				body["eventBus"] = "disconnected"
			}
		}
		return c.Status(status).JSON(body)
	}
}
