package invoice

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"controlos-backend/internal/audit"
	"controlos-backend/internal/auth"
	"controlos-backend/internal/database"
	"controlos-backend/internal/logger"
	"controlos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateLineRequest struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type CreateInvoiceRequest struct {
	Supplier      string              `json:"supplier"`
	Number        string              `json:"number"`
	Date          string              `json:"date"`
	DeclaredTotal decimal.Decimal     `json:"declared_total"`
	Source        string              `json:"source"`
	Lines         []CreateLineRequest `json:"lines"`
}

var sources = map[string]bool{"pdf": true, "text": true, "order_page": true, "manual": true}

type InvoiceResponse struct {
	models.Invoice
	Reconciliation Reconciliation `json:"reconciliation"`
}

func parseID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return id, nil
}

func parseFailure(c *fiber.Ctx, what string, res *ParsedInvoice, err error) error {
	if errors.Is(err, ErrNoLines) || errors.Is(err, ErrNoItemTable) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  err.Error(),
			"result": res,
		})
	}
	logger.WarnLog(c.UserContext(), "%s parse failed: %v", what, err)
	return fiber.NewError(fiber.StatusUnprocessableEntity, "Could not parse "+what)
}

// POST /api/invoices/parse-pdf (multipart "file")
func ParsePDFHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read upload")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read upload")
		}

		text, err := ExtractText(data)
		if err != nil {
			logger.WarnLog(c.UserContext(), "pdf %s unreadable: %v", fh.Filename, err)
			return fiber.NewError(fiber.StatusUnprocessableEntity, ErrUnreadablePDF.Error())
		}

		res, err := ParseText(text)
		if err != nil {
			return parseFailure(c, "PDF", res, err)
		}
		logger.InfoLog(c.UserContext(), "pdf %s parsed, %d lines", fh.Filename, len(res.Lines))
		return c.JSON(res)
	}
}

// POST /api/invoices/parse-text {"text": "..."}
func ParseTextHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}
		if strings.TrimSpace(body.Text) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "text is required")
		}

		res, err := ParseText(body.Text)
		if err != nil {
			return parseFailure(c, "text", res, err)
		}
		return c.JSON(res)
	}
}

// POST /api/invoices/parse-order-url {"url": "https://..."}
func ParseOrderURLHandler(client *http.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			URL string `json:"url"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}
		u, err := url.Parse(strings.TrimSpace(body.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fiber.NewError(fiber.StatusBadRequest, "url must be an http(s) address")
		}

		res, err := FetchOrderPage(c.UserContext(), client, u.String())
		if err != nil {
			if errors.Is(err, ErrFetchFailed) {
				logger.WarnLog(c.UserContext(), "order page fetch failed: %v", err)
				return fiber.NewError(fiber.StatusBadGateway, ErrFetchFailed.Error())
			}
			return parseFailure(c, "order page", res, err)
		}
		return c.JSON(res)
	}
}

// BuildInvoice validates a create request and turns it into a model. Status is left
// for Reconcile to decide.
func BuildInvoice(restaurantID uint, req CreateInvoiceRequest) (*models.Invoice, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, errors.New("date must be YYYY-MM-DD")
	}
	if len(req.Lines) == 0 {
		return nil, errors.New("at least one line is required")
	}
	source := req.Source
	if source == "" {
		source = "manual"
	}
	if !sources[source] {
		return nil, fmt.Errorf("unknown source %q", req.Source)
	}

	inv := &models.Invoice{
		RestaurantID:  restaurantID,
		Supplier:      strings.TrimSpace(req.Supplier),
		Number:        strings.TrimSpace(req.Number),
		Date:          date,
		DeclaredTotal: req.DeclaredTotal,
		Source:        source,
	}
	for i, l := range req.Lines {
		if strings.TrimSpace(l.Description) == "" {
			return nil, fmt.Errorf("line %d: description is required", i+1)
		}
		if l.Quantity.IsNegative() || l.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("line %d: quantity and unit price must not be negative", i+1)
		}
		inv.Lines = append(inv.Lines, models.InvoiceLine{
			Position:    i,
			Code:        strings.TrimSpace(l.Code),
			Description: strings.TrimSpace(l.Description),
			Quantity:    l.Quantity,
			Unit:        strings.TrimSpace(l.Unit),
			UnitPrice:   l.UnitPrice,
			Total:       l.Total,
		})
	}
	inv.Status = Reconcile(inv).Status
	return inv, nil
}

// POST /api/invoices
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentActor(c, audit.UserName)
		if err != nil {
			return err
		}

		var req CreateInvoiceRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}
		inv, err := BuildInvoice(restaurantID, req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(inv).Error; err != nil {
				return err
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				RestaurantID: &restaurantID,
				UserID:       actor.UserID,
				UserName:     actor.Name,
				EntityType:   audit.EntityInvoice,
				EntityID:     inv.ID,
				Action:       models.AuditActionCreate,
				Description:  fmt.Sprintf("Invoice %s from %s recorded (%s)", inv.Number, inv.Supplier, inv.DeclaredTotal.StringFixed(2)),
				After:        inv,
			})
		})
		if err != nil {
			logger.ErrorLog(c.UserContext(), "create invoice failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save invoice")
		}

		return c.Status(fiber.StatusCreated).JSON(InvoiceResponse{Invoice: *inv, Reconciliation: Reconcile(inv)})
	}
}

// GET /api/invoices?month=2024-03
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("restaurant_id = ?", restaurantID)
		if month := c.Query("month"); month != "" {
			start, err := time.Parse("2006-01", month)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "month must be YYYY-MM")
			}
			dbq = dbq.Where("date >= ? AND date < ?", start.Format("2006-01-02"), start.AddDate(0, 1, 0).Format("2006-01-02"))
		}

		var invoices []models.Invoice
		err = dbq.
			Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
			Order("date desc, id desc").
			Find(&invoices).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list invoices")
		}
		return c.JSON(invoices)
	}
}

func loadInvoice(restaurantID, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := database.DB.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&inv, "id = ? AND restaurant_id = ?", id, restaurantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Invoice not found")
		}
		return nil, err
	}
	return &inv, nil
}

// GET /api/invoices/:id/reconciliation
func ReconciliationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}

		inv, err := loadInvoice(restaurantID, id)
		if err != nil {
			return err
		}

		rec := Reconcile(inv)
		if rec.Status != inv.Status {
			// lines or tolerance changed since the invoice was stored
			if err := database.DB.Model(inv).Update("status", rec.Status).Error; err != nil {
				logger.ErrorLog(c.UserContext(), "update invoice status failed: %v", err)
			}
		}
		return c.JSON(rec)
	}
}

// DELETE /api/invoices/:id
func DeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentActor(c, audit.UserName)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}

		inv, err := loadInvoice(restaurantID, id)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceLine{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Invoice{}, "id = ?", inv.ID).Error; err != nil {
				return err
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				RestaurantID: &restaurantID,
				UserID:       actor.UserID,
				UserName:     actor.Name,
				EntityType:   audit.EntityInvoice,
				EntityID:     inv.ID,
				Action:       models.AuditActionDelete,
				Description:  fmt.Sprintf("Invoice %s from %s deleted", inv.Number, inv.Supplier),
				Before:       inv,
			})
		})
		if err != nil {
			logger.ErrorLog(c.UserContext(), "delete invoice failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete invoice")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
