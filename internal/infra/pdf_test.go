package infra

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInvoicePDF(t *testing.T) {
	inv := &model.Invoice{
		Number:     "INV-20240301-0A1B2C",
		Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		SubTotal:   decimal.NewFromInt(300),
		GrandTotal: decimal.NewFromInt(300),
		PaidAmount: decimal.NewFromInt(150),
		Status:     model.InvoicePartiallyPaid,
		Items: []model.InvoiceItem{{
			ProductID: uuid.New(),
			UnitPrice: decimal.NewFromInt(100),
			Quantity:  3,
			LineTotal: decimal.NewFromInt(300),
			Product:   &model.Product{SKU: "SKU-1", Name: "Widget"},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderInvoicePDF(&buf, inv, "Corner Shop"))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
}

func TestLowStockBody(t *testing.T) {
	body := LowStockBody([]LowStockLine{{SKU: "SKU-1", Name: "Widget", StockOnHand: 2, ReorderLevel: 5}})
	assert.Contains(t, body, "SKU-1")
	assert.Contains(t, body, "reorder at 5")
}

func TestMailerEnabled(t *testing.T) {
	var nilMailer *Mailer
	assert.False(t, nilMailer.Enabled())
	assert.False(t, (&Mailer{host: "smtp.local"}).Enabled())
	assert.True(t, (&Mailer{host: "smtp.local", to: "ops@example.com"}).Enabled())
}
