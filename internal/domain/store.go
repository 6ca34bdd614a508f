package domain

// Store 门店/子账户（对应 stores 表），隶属于某个租户
type Store struct {
	StoreID   string `db:"store_id"`
	TenantID  string `db:"tenant_id"`
	StoreName string `db:"store_name"`
	Address   string `db:"address"` // nullable
}

// Product 商品库存行（对应 products 表）
type Product struct {
	ProductID   string `db:"product_id"`
	TenantID    string `db:"tenant_id"`
	StoreID     string `db:"store_id"`
	SKU         string `db:"sku"`
	ProductName string `db:"product_name"`
	Quantity    int    `db:"quantity"`  // >= 0
	MinStock    int    `db:"min_stock"` // >= 0, 0 = 未设置阈值
}
