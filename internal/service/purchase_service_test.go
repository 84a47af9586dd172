package service

import (
	"context"
	"testing"

	"backoffice/internal/dto"
	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchaseReq(supplier *model.Supplier, items ...dto.PurchaseItemRequest) dto.CreatePurchaseRequest {
	return dto.CreatePurchaseRequest{SupplierID: supplier.ID.String(), Items: items}
}

func purchaseLine(p *model.Product, qty int, cost string) dto.PurchaseItemRequest {
	return dto.PurchaseItemRequest{ProductID: p.ID.String(), Quantity: qty, UnitCost: dec(cost)}
}

func TestPurchase_CreateIsDraftWithoutStockEffect(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedSupplier(t, true)
	p := env.seedProduct(t, "SKU-PO", 2, 0)

	po, err := env.purchaseService().Create(context.Background(), uuid.Nil, purchaseReq(s, purchaseLine(p, 10, "4.5"), purchaseLine(p, 0, "1")))
	require.NoError(t, err)

	assert.Equal(t, string(model.PurchaseDraft), po.Status)
	assert.Regexp(t, `^PO-\d{8}-[0-9A-Z]{6}$`, po.Number)
	require.Len(t, po.Items, 1)
	assert.True(t, dec("45").Equal(po.GrandTotal))
	assert.Equal(t, s.Name, po.Supplier)
	assert.Equal(t, 2, env.stockOf(t, p.ID))
	assert.Empty(t, env.movementsOf(t, p.ID))
}

func TestPurchase_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.purchaseService()
	ctx := context.Background()
	p := env.seedProduct(t, "SKU-PV", 0, 0)

	var verr *ValidationError
	_, err := svc.Create(ctx, uuid.Nil, purchaseReq(env.seedSupplier(t, false), purchaseLine(p, 1, "1")))
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "supplier_id")

	_, err = svc.Create(ctx, uuid.Nil, dto.CreatePurchaseRequest{SupplierID: uuid.NewString(), Items: []dto.PurchaseItemRequest{purchaseLine(p, 1, "1")}})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Create(ctx, uuid.Nil, purchaseReq(env.seedSupplier(t, true), purchaseLine(p, -1, "1")))
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items")
}

func TestPurchase_ReceiveOnlyFromDraft(t *testing.T) {
	env := newTestEnv(t)
	svc := env.purchaseService()
	ctx := context.Background()
	s := env.seedSupplier(t, true)
	a := env.seedProduct(t, "SKU-RA", 1, 0)
	b := env.seedProduct(t, "SKU-RB", 0, 0)

	po, err := svc.Create(ctx, uuid.Nil, purchaseReq(s, purchaseLine(a, 4, "2"), purchaseLine(b, 6, "3")))
	require.NoError(t, err)
	id := uuid.MustParse(po.ID)

	received, err := svc.Receive(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(model.PurchaseReceived), received.Status)
	assert.NotNil(t, received.ReceivedAt)
	assert.Equal(t, 5, env.stockOf(t, a.ID))
	assert.Equal(t, 6, env.stockOf(t, b.ID))

	rows := env.movementsOf(t, b.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, model.MovementIn, rows[0].Type)
	assert.Equal(t, RefPurchase, rows[0].ReferenceType)

	_, err = svc.Receive(ctx, id)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 5, env.stockOf(t, a.ID))

	_, err = svc.Cancel(ctx, id)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 6, env.stockOf(t, b.ID))
}

func TestPurchase_CancelDraft(t *testing.T) {
	env := newTestEnv(t)
	svc := env.purchaseService()
	ctx := context.Background()
	p := env.seedProduct(t, "SKU-CD", 3, 0)

	po, err := svc.Create(ctx, uuid.Nil, purchaseReq(env.seedSupplier(t, true), purchaseLine(p, 5, "1")))
	require.NoError(t, err)
	id := uuid.MustParse(po.ID)

	cancelled, err := svc.Cancel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(model.PurchaseCancelled), cancelled.Status)
	assert.Equal(t, 3, env.stockOf(t, p.ID))

	_, err = svc.Cancel(ctx, id)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.Receive(ctx, id)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 3, env.stockOf(t, p.ID))
	assert.Empty(t, env.movementsOf(t, p.ID))
}

func TestPurchase_NotFound(t *testing.T) {
	env := newTestEnv(t)
	svc := env.purchaseService()

	_, err := svc.Receive(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Cancel(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurchase_ListBySupplier(t *testing.T) {
	env := newTestEnv(t)
	svc := env.purchaseService()
	ctx := context.Background()
	p := env.seedProduct(t, "SKU-LS", 0, 0)
	s1 := env.seedSupplier(t, true)
	s2 := env.seedSupplier(t, true)

	_, err := svc.Create(ctx, uuid.Nil, purchaseReq(s1, purchaseLine(p, 1, "1")))
	require.NoError(t, err)
	_, err = svc.Create(ctx, uuid.Nil, purchaseReq(s2, purchaseLine(p, 1, "1")))
	require.NoError(t, err)

	list, err := svc.List(ctx, dto.PurchaseFilter{SupplierID: s2.ID.String(), Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, s2.Name, list.Data[0].Supplier)
}
