package handlers

import (
	"log"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gorefurbish/backend/internal/models"
	"github.com/gorefurbish/backend/internal/services"
	"github.com/gorefurbish/backend/internal/storage"
	"github.com/gorefurbish/backend/internal/utils"
)

// ProductHandler handles product listing requests
type ProductHandler struct {
	store storage.Store
	media *services.MediaService
}

// NewProductHandler creates a new product handler
func NewProductHandler(store storage.Store, media *services.MediaService) *ProductHandler {
	return &ProductHandler{
		store: store,
		media: media,
	}
}

// GetAllProducts returns all listed products, newest first
func (h *ProductHandler) GetAllProducts(c *fiber.Ctx) error {
	products, err := h.store.GetAllProducts()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch products",
		})
	}
	for _, p := range products {
		p.ImageURLs = p.Images()
	}
	return c.JSON(utils.NewResponse(fiber.StatusOK, "Products fetched successfully", products))
}

// UploadProduct lists a new product with 1-4 images
func (h *ProductHandler) UploadProduct(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not authenticated",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid multipart form",
		})
	}

	files := form.File["images"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Upload at least one product image",
		})
	}
	if len(files) > models.MaxProductImages {
		files = files[len(files)-models.MaxProductImages:]
	}

	title := c.FormValue("title")
	description := c.FormValue("description")
	category := c.FormValue("category")
	condition := c.FormValue("condition", "New")

	for _, field := range []string{title, description, category, condition} {
		if strings.TrimSpace(field) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "All the fields are required",
			})
		}
	}
	if len(description) > 1000 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Description must be at most 1000 characters",
		})
	}

	price, err := strconv.ParseFloat(c.FormValue("price", "0"), 64)
	if err != nil || price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Price must be a non-negative number",
		})
	}
	negotiable := c.FormValue("negotiable", "true") != "false"

	imageURLs, err := h.uploadImages(c, files)
	if err != nil {
		log.Printf("Product image upload failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Something went wrong while uploading product images",
		})
	}

	product := &models.Product{
		Title:         strings.TrimSpace(title),
		Description:   description,
		UserID:        userID,
		Category:      category,
		Condition:     condition,
		FeaturedImage: imageURLs[0],
		Price:         price,
		Negotiable:    negotiable,
	}
	product.SetImages(imageURLs)
	product.ImageURLs = product.Images()

	if _, err := h.store.CreateProduct(product); err != nil {
		// Orphaned uploads are removed so the bucket tracks the catalog.
		for _, url := range imageURLs {
			h.media.DeleteImage(c.Context(), url)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Product is not listed",
		})
	}

	return c.JSON(utils.NewResponse(fiber.StatusOK, "Product listed successfully", product))
}

func (h *ProductHandler) uploadImages(c *fiber.Ctx, files []*multipart.FileHeader) ([]string, error) {
	var urls []string
	for _, file := range files {
		f, err := file.Open()
		if err != nil {
			h.rollback(c, urls)
			return nil, err
		}

		url, err := h.media.UploadImage(c.Context(), "products", file.Filename, f, file.Size, file.Header.Get("Content-Type"))
		f.Close()
		if err != nil {
			h.rollback(c, urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (h *ProductHandler) rollback(c *fiber.Ctx, urls []string) {
	for _, url := range urls {
		h.media.DeleteImage(c.Context(), url)
	}
}
