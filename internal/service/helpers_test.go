package service

import (
	"context"
	"sync"
	"testing"

	"backoffice/internal/config"
	"backoffice/internal/infra"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (n *recordingNotifier) NotifyLowStock(_ context.Context, ids []uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, ids...)
	return nil
}

func (n *recordingNotifier) notified() []uuid.UUID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uuid.UUID(nil), n.ids...)
}

type testEnv struct {
	db        *gorm.DB
	cfg       *config.Config
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	invoices  repository.InvoiceRepository
	purchases repository.PurchaseRepository
	customers repository.CustomerRepository
	suppliers repository.SupplierRepository
	users     repository.UserRepository
	groups    repository.GroupRepository
	notifier  *recordingNotifier
	ledger    StockLedger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := infra.NewDatabase("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	env := &testEnv{
		db: db,
		cfg: &config.Config{
			JWTSecret:          "test-secret",
			JWTExpirationHours: 1,
			SuperAdminUsername: "admin",
			BusinessName:       "Corner Shop",
		},
		products:  repository.NewProductRepository(db),
		movements: repository.NewStockMovementRepository(db),
		invoices:  repository.NewInvoiceRepository(db),
		purchases: repository.NewPurchaseRepository(db),
		customers: repository.NewCustomerRepository(db),
		suppliers: repository.NewSupplierRepository(db),
		users:     repository.NewUserRepository(db),
		groups:    repository.NewGroupRepository(db),
		notifier:  &recordingNotifier{},
	}
	env.ledger = NewStockLedger(env.products, env.movements, env.notifier)
	return env
}

func (e *testEnv) invoiceService() InvoiceService {
	return NewInvoiceService(e.invoices, e.products, e.customers, e.ledger, e.cfg.BusinessName)
}

func (e *testEnv) purchaseService() PurchaseService {
	return NewPurchaseService(e.purchases, e.products, e.suppliers, e.ledger)
}

func (e *testEnv) seedProduct(t *testing.T, sku string, stock, reorder int) *model.Product {
	t.Helper()
	p := &model.Product{
		SKU:          sku,
		Name:         "Product " + sku,
		CostPrice:    decimal.NewFromInt(60),
		SalePrice:    decimal.NewFromInt(100),
		StockOnHand:  stock,
		ReorderLevel: reorder,
		Active:       true,
	}
	require.NoError(t, e.products.Create(context.Background(), p))
	return p
}

func (e *testEnv) seedCustomer(t *testing.T, active bool) *model.Customer {
	t.Helper()
	c := &model.Customer{Name: "Customer " + uuid.NewString()[:6], Active: active}
	require.NoError(t, e.customers.Create(context.Background(), c))
	return c
}

func (e *testEnv) seedSupplier(t *testing.T, active bool) *model.Supplier {
	t.Helper()
	s := &model.Supplier{Name: "Supplier " + uuid.NewString()[:6], Active: active}
	require.NoError(t, e.suppliers.Create(context.Background(), s))
	return s
}

func (e *testEnv) seedGroup(t *testing.T, name string, grants ...[2]string) *model.AdminGroup {
	t.Helper()
	g := &model.AdminGroup{Name: name}
	for _, gr := range grants {
		g.Permissions = append(g.Permissions, model.GroupPermission{Module: gr[0], Action: gr[1]})
	}
	require.NoError(t, e.groups.Create(context.Background(), g))
	return g
}

func (e *testEnv) seedUser(t *testing.T, username, password string, active bool, group *model.AdminGroup) *model.ApplicationUser {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.ApplicationUser{
		Username:     username,
		FullName:     username,
		PasswordHash: string(hash),
		Active:       active,
	}
	if group != nil {
		u.GroupID = &group.ID
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := e.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockOnHand
}

func (e *testEnv) movementsOf(t *testing.T, productID uuid.UUID) []model.StockMovement {
	t.Helper()
	var rows []model.StockMovement
	require.NoError(t, e.db.Where("product_id = ?", productID).Order("created_at").Find(&rows).Error)
	return rows
}

func (e *testEnv) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}
