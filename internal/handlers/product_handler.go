package handlers

import (
	"grocery/internal/middleware"
	"grocery/internal/models"
	"grocery/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler serves the catalog.
type ProductHandler struct {
	service  *services.ProductService
	guards   middleware.Guards
	validate *validator.Validate
}

func NewProductHandler(service *services.ProductService, guards middleware.Guards) *ProductHandler {
	return &ProductHandler{
		service:  service,
		guards:   guards,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes. Reads are public, writes are
// restricted to administrators.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.guards.Required, h.guards.Admin, h.HandleCreateProduct)
	productRoutes.Put("/:id", h.guards.Required, h.guards.Admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.guards.Required, h.guards.Admin, h.HandleDeleteProduct)
}

// HandleGetProducts lists products. Supported query parameters are category,
// search, featured and discounted.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	filter := models.ProductFilter{
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		Featured:   c.QueryBool("featured"),
		Discounted: c.QueryBool("discounted"),
	}
	products, err := h.service.GetAllProducts(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := parseBody(c, h.validate, &product); err != nil {
		return err
	}
	product.ID = ""
	if err := h.service.CreateProduct(c.UserContext(), &product); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := parseBody(c, h.validate, &product); err != nil {
		return err
	}
	product.ID = c.Params("id")
	if err := h.service.UpdateProduct(c.UserContext(), &product); err != nil {
		return err
	}
	updated, err := h.service.GetProductByID(c.UserContext(), product.ID)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}
