package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	apptrade "github.com/erp/receiving/internal/application/trade"
	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/infrastructure/event"
	"github.com/erp/receiving/internal/infrastructure/notification"
	"github.com/erp/receiving/internal/infrastructure/persistence"
	"github.com/erp/receiving/internal/infrastructure/persistence/models"
	"github.com/erp/receiving/internal/infrastructure/sequence"
	"github.com/erp/receiving/internal/interfaces/http/dto"
	"github.com/erp/receiving/internal/interfaces/http/handler"
	"github.com/erp/receiving/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type apiFixture struct {
	engine     *gin.Engine
	db         *gorm.DB
	tenantID   uuid.UUID
	vendorID   uuid.UUID
	locationID uuid.UUID
	itemID     uuid.UUID
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")+"?_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &apiFixture{
		db:         db,
		tenantID:   uuid.New(),
		vendorID:   uuid.New(),
		locationID: uuid.New(),
		itemID:     uuid.New(),
	}
	require.NoError(t, db.Create(&models.VendorModel{
		BaseModel: models.BaseModel{ID: f.vendorID}, TenantID: f.tenantID, Name: "Acme Supply", Active: true,
	}).Error)
	require.NoError(t, db.Create(&models.LocationModel{
		BaseModel: models.BaseModel{ID: f.locationID}, TenantID: f.tenantID, Code: "DOCK-1", Name: "Receiving dock",
	}).Error)
	require.NoError(t, db.Create(&models.CatalogItemModel{
		BaseModel: models.BaseModel{ID: f.itemID}, TenantID: f.tenantID, SKU: "BOLT-10", Name: "Bolt",
	}).Error)

	log := zap.NewNop()
	orders := persistence.NewGormPurchaseOrderRepository(db)
	receives := persistence.NewGormReceiveRepository(db)
	directory := persistence.NewGormDirectory(db)
	displayIDs := sequence.NewDatabaseGenerator(db)
	permissions := shared.RolePermissions{}

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(apptrade.NewActivityLogHandler(persistence.NewGormActivityLogRepository(db), log))
	bus.Subscribe(apptrade.NewNotificationHandler(notification.NewLogNotifier(log), log))

	orderService := apptrade.NewPurchaseOrderService(orders, receives, displayIDs, permissions)
	orderService.SetVendorDirectory(directory)
	orderService.SetCatalog(directory)
	orderService.SetEventPublisher(bus)

	receiveService := apptrade.NewReceiveService(receives, orders, displayIDs, permissions)
	receiveService.SetLocationRegistry(directory)
	receiveService.SetEventPublisher(bus)

	engine := apptrade.NewReceiveCompletionEngine(persistence.NewReceivingTransactionScope(db), directory, permissions)
	engine.SetEventPublisher(bus)

	gin.SetMode(gin.TestMode)
	f.engine, err = New(Config{
		Logger:         log,
		ServiceName:    "receiving-test",
		MaxBodySize:    1 << 20,
		System:         handler.NewSystemHandler("receiving", "test", nil),
		PurchaseOrders: handler.NewPurchaseOrderHandler(orderService, receiveService),
		Receives:       handler.NewReceiveHandler(receiveService, engine),
	})
	require.NoError(t, err)
	return f
}

func (f *apiFixture) do(t *testing.T, role shared.Role, method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(middleware.TenantIDHeader, f.tenantID.String())
		req.Header.Set(middleware.UserIDHeader, uuid.NewString())
		req.Header.Set(middleware.UserRoleHeader, string(role))
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func dataMap(t *testing.T, resp dto.Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func TestAPI_ReceiveAgainstPurchaseOrder(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/purchase-orders", map[string]any{
		"vendor_id": f.vendorID,
		"notes":     "first delivery expected monday",
		"items": []map[string]any{{
			"item_id":          f.itemID,
			"item_name":        "Bolt",
			"sku":              "BOLT-10",
			"ordered_quantity": "10",
			"unit_price":       "2.50",
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := dataMap(t, resp)
	orderID := order["id"].(string)
	assert.Regexp(t, `^PO-\d{4}-00001$`, order["display_id"])
	assert.Equal(t, "draft", order["status"])
	assert.Equal(t, "25", order["total_amount"])

	w, _ = f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/purchase-orders/"+orderID+"/status", map[string]any{"status": "submitted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/purchase-orders/"+orderID+"/status", map[string]any{"status": "confirmed"})
	require.Equal(t, http.StatusForbidden, w.Code, "members cannot approve")
	assert.False(t, resp.Success)

	w, _ = f.do(t, shared.RoleAdmin, http.MethodPost, "/api/v1/purchase-orders/"+orderID+"/status", map[string]any{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = f.do(t, shared.RoleMember, http.MethodGet, "/api/v1/purchase-orders/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)

	w, resp = f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/receives", map[string]any{
		"purchase_order_id":   orderID,
		"default_location_id": f.locationID,
		"carrier":             "DHL",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := dataMap(t, resp)
	receiveID := created["id"].(string)
	assert.Regexp(t, `^RCV-\d{4}-00001$`, created["display_id"])
	assert.Equal(t, float64(1), created["items_prepopulated"])

	w, resp = f.do(t, shared.RoleMember, http.MethodGet, "/api/v1/receives/"+receiveID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := dataMap(t, resp)["items"].([]any)
	require.Len(t, items, 1)
	itemID := items[0].(map[string]any)["id"].(string)
	assert.Equal(t, "10", items[0].(map[string]any)["quantity_received"])

	w, _ = f.do(t, shared.RoleMember, http.MethodPut, "/api/v1/receives/"+receiveID+"/items/"+itemID, map[string]any{"quantity_received": "4"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/receives/"+receiveID+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := dataMap(t, resp)
	assert.Equal(t, float64(1), result["items_processed"])
	assert.Equal(t, false, result["po_fully_received"])
	assert.Equal(t, "partial", result["po_status"])

	w, resp = f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/receives/"+receiveID+"/complete", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "a receive completes once")
	assert.False(t, resp.Success)

	w, resp = f.do(t, shared.RoleMember, http.MethodGet, "/api/v1/purchase-orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	order = dataMap(t, resp)
	assert.Equal(t, "partial", order["status"])
	line := order["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "4", line["received_quantity"])
	assert.Equal(t, "6", line["remaining_quantity"])
	assert.Len(t, order["receives"], 1)

	var onHand models.StockLevelModel
	require.NoError(t, f.db.Where("tenant_id = ? AND item_id = ? AND location_id = ?", f.tenantID, f.itemID, f.locationID).
		First(&onHand).Error)
	assert.True(t, decimal.NewFromInt(4).Equal(onHand.OnHand), "on hand %s", onHand.OnHand)

	var activity int64
	require.NoError(t, f.db.Model(&models.ActivityLogModel{}).Where("tenant_id = ?", f.tenantID).Count(&activity).Error)
	assert.Positive(t, activity)
}

func TestAPI_SerialCapture(t *testing.T) {
	f := newAPIFixture(t)

	_, resp := f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/purchase-orders", map[string]any{
		"vendor_id": f.vendorID,
		"items":     []map[string]any{{"item_name": "Scanner", "ordered_quantity": "2", "unit_price": "100"}},
	})
	orderID := dataMap(t, resp)["id"].(string)
	f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/purchase-orders/"+orderID+"/status", map[string]any{"status": "submitted"})
	f.do(t, shared.RoleOwner, http.MethodPost, "/api/v1/purchase-orders/"+orderID+"/status", map[string]any{"status": "confirmed"})

	w, resp := f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/receives", map[string]any{"purchase_order_id": orderID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	receive := dataMap(t, resp)["receive"].(map[string]any)
	receiveID := receive["id"].(string)
	itemID := receive["items"].([]any)[0].(map[string]any)["id"].(string)
	serialsPath := "/api/v1/receives/" + receiveID + "/items/" + itemID + "/serials"

	w, resp = f.do(t, shared.RoleMember, http.MethodPost, serialsPath, map[string]any{"serial_number": " SN-1 "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, float64(1), dataMap(t, resp)["added"])

	w, resp = f.do(t, shared.RoleMember, http.MethodPost, serialsPath, map[string]any{"serials": []string{"SN-1", "SN-2", "SN-2", ""}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	added := dataMap(t, resp)
	assert.Equal(t, float64(1), added["added"])
	assert.ElementsMatch(t, []any{"SN-1", "SN-2"}, added["duplicates"])

	w, resp = f.do(t, shared.RoleMember, http.MethodPost, serialsPath, map[string]any{"serials": []string{"SN-2", " SN-1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DUPLICATE_SERIAL", resp.Error.Code)

	w, resp = f.do(t, shared.RoleMember, http.MethodPost, serialsPath, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	w, _ = f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/receives/"+receiveID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = f.do(t, shared.RoleMember, http.MethodPost, serialsPath, map[string]any{"serial_number": "SN-3"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "cancelled receives are read-only")
}

func TestAPI_ErrorResponses(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("health needs no credentials", func(t *testing.T) {
		w, resp := f.do(t, "", http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", dataMap(t, resp)["status"])
	})

	t.Run("api needs credentials", func(t *testing.T) {
		w, resp := f.do(t, "", http.MethodGet, "/api/v1/receives", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("viewers cannot write", func(t *testing.T) {
		w, _ := f.do(t, shared.RoleViewer, http.MethodPost, "/api/v1/purchase-orders", map[string]any{})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown purchase order", func(t *testing.T) {
		w, resp := f.do(t, shared.RoleMember, http.MethodGet, "/api/v1/purchase-orders/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, resp.Success)
	})

	t.Run("malformed id", func(t *testing.T) {
		w, resp := f.do(t, shared.RoleMember, http.MethodGet, "/api/v1/receives/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "id", resp.Error.Details[0].Field)
	})

	t.Run("missing required field", func(t *testing.T) {
		w, resp := f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/receives", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("unknown status filter", func(t *testing.T) {
		w, _ := f.do(t, shared.RoleMember, http.MethodGet, "/api/v1/purchase-orders?status=shipped", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("receive against a draft order", func(t *testing.T) {
		_, resp := f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/purchase-orders", map[string]any{
			"items": []map[string]any{{"item_name": "Nut", "ordered_quantity": "1", "unit_price": "1"}},
		})
		orderID := dataMap(t, resp)["id"].(string)

		w, _ := f.do(t, shared.RoleMember, http.MethodPost, "/api/v1/receives", map[string]any{"purchase_order_id": orderID})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
