package models

// All returns every model of the receiving schema in dependency order. The
// SQL migrations own the production schema; All serves AutoMigrate in tests.
func All() []interface{} {
	return []interface{}{
		&VendorModel{},
		&CatalogItemModel{},
		&LocationModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderItemModel{},
		&ReceiveModel{},
		&ReceiveItemModel{},
		&ReceiveItemSerialModel{},
		&InventoryLotModel{},
		&InventorySerialModel{},
		&StockLevelModel{},
		&ActivityLogModel{},
		&DisplayIDSequenceModel{},
	}
}
