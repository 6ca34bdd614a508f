package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invwe-data/internal/domain"
	"invwe-data/internal/metrics"
	"invwe-data/internal/repository"

	"go.uber.org/zap"
)

// StockBadge 前端库存徽标
type StockBadge struct {
	Status     StockStatus `json:"status"`
	Label      string      `json:"label"`
	Percentage int         `json:"percentage"`
}

// NewStockBadge 计算徽标；没有阈值时返回 nil（前端不显示徽标）
func NewStockBadge(quantity, minStock int, lang Lang) *StockBadge {
	level, ok := ClassifyStock(quantity, minStock)
	if !ok {
		return nil
	}
	return &StockBadge{
		Status:     level.Status,
		Label:      level.Status.Label(lang),
		Percentage: level.Percentage,
	}
}

// InventoryItem 库存列表条目
type InventoryItem struct {
	ProductID   string      `json:"product_id"`
	SKU         string      `json:"sku"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	MinStock    int         `json:"min_stock"`
	Stock       *StockBadge `json:"stock"`
}

// StockSummary 按状态统计（统计范围为过滤前的全部商品）
type StockSummary struct {
	Low       int `json:"low"`
	Normal    int `json:"normal"`
	High      int `json:"high"`
	Untracked int `json:"untracked"`
}

// InventoryList 库存列表
type InventoryList struct {
	Items   []InventoryItem `json:"items"`
	Summary StockSummary    `json:"summary"`
	Total   int             `json:"total"`
}

// ListInventoryRequest 查询库存请求
type ListInventoryRequest struct {
	TenantID string
	StoreID  string
	Search   string
	SKUs     []string
	Statuses []StockStatus // 为空表示不过滤
	Lang     Lang
}

// StockAlert 低库存告警
type StockAlert struct {
	TenantID    string      `json:"tenant_id"`
	TenantName  string      `json:"tenant_name"`
	StoreID     string      `json:"store_id"`
	StoreName   string      `json:"store_name"`
	ProductID   string      `json:"product_id"`
	SKU         string      `json:"sku"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	MinStock    int         `json:"min_stock"`
	Percentage  int         `json:"percentage"`
	Status      StockStatus `json:"status"`
	Label       string      `json:"label"`
	DetectedAt  time.Time   `json:"detected_at"`
}

// StockAlertNotifier 低库存告警通道
type StockAlertNotifier interface {
	NotifyLowStock(ctx context.Context, alert StockAlert) error
}

// LogStockAlertNotifier MQTT 未启用时的兜底通道：只写日志
type LogStockAlertNotifier struct {
	logger *zap.Logger
}

func NewLogStockAlertNotifier(logger *zap.Logger) *LogStockAlertNotifier {
	return &LogStockAlertNotifier{logger: logger}
}

func (n *LogStockAlertNotifier) NotifyLowStock(_ context.Context, alert StockAlert) error {
	n.logger.Info("low stock",
		zap.String("tenant_id", alert.TenantID),
		zap.String("store_id", alert.StoreID),
		zap.String("product_id", alert.ProductID),
		zap.String("sku", alert.SKU),
		zap.Int("quantity", alert.Quantity),
		zap.Int("min_stock", alert.MinStock),
	)
	return nil
}

// FanoutStockAlertNotifier 依次发给每个通道；任一通道失败都返回错误，但不影响其余通道
type FanoutStockAlertNotifier []StockAlertNotifier

func (f FanoutStockAlertNotifier) NotifyLowStock(ctx context.Context, alert StockAlert) error {
	var errs []error
	for _, n := range f {
		if err := n.NotifyLowStock(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InventoryService 库存查询与低库存告警
type InventoryService struct {
	products repository.ProductsRepository
	notifier StockAlertNotifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewInventoryService 创建库存服务
func NewInventoryService(
	products repository.ProductsRepository,
	notifier StockAlertNotifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		products: products,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// ListInventory 查询门店库存并计算每个商品的库存状态
func (s *InventoryService) ListInventory(ctx context.Context, req ListInventoryRequest) (*InventoryList, error) {
	if req.TenantID == "" || req.StoreID == "" {
		return nil, fmt.Errorf("tenant_id and store_id are required")
	}

	products, err := s.products.ListProducts(ctx, req.TenantID, req.StoreID, repository.ProductFilters{
		Search: req.Search,
		SKUs:   req.SKUs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	want := make(map[StockStatus]bool, len(req.Statuses))
	for _, st := range req.Statuses {
		want[st] = true
	}

	out := &InventoryList{Items: make([]InventoryItem, 0, len(products))}
	for _, p := range products {
		badge := NewStockBadge(p.Quantity, p.MinStock, req.Lang)
		if badge == nil {
			out.Summary.Untracked++
		} else {
			switch badge.Status {
			case StockLow:
				out.Summary.Low++
			case StockNormal:
				out.Summary.Normal++
			case StockHigh:
				out.Summary.High++
			}
			s.metrics.ObserveStock(string(badge.Status))
		}

		// 按状态过滤时，没有阈值的商品不参与匹配
		if len(want) > 0 && (badge == nil || !want[badge.Status]) {
			continue
		}
		out.Items = append(out.Items, InventoryItem{
			ProductID:   p.ProductID,
			SKU:         p.SKU,
			ProductName: p.ProductName,
			Quantity:    p.Quantity,
			MinStock:    p.MinStock,
			Stock:       badge,
		})
	}
	out.Total = len(out.Items)
	return out, nil
}

// ScanStockAlerts 对门店全部商品分级，为每个低库存商品发送一条告警，返回发送数量
// 单条发送失败不会中断其余告警，最后返回第一个错误
func (s *InventoryService) ScanStockAlerts(ctx context.Context, tenant *domain.Tenant, store *domain.Store, lang Lang) (int, error) {
	if tenant == nil || store == nil {
		return 0, fmt.Errorf("tenant and store are required")
	}

	list, err := s.ListInventory(ctx, ListInventoryRequest{
		TenantID: tenant.TenantID,
		StoreID:  store.StoreID,
		Statuses: []StockStatus{StockLow},
		Lang:     lang,
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	var firstErr error
	detectedAt := s.now().UTC()
	for _, item := range list.Items {
		alert := StockAlert{
			TenantID:    tenant.TenantID,
			TenantName:  tenant.TenantName,
			StoreID:     store.StoreID,
			StoreName:   store.StoreName,
			ProductID:   item.ProductID,
			SKU:         item.SKU,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			MinStock:    item.MinStock,
			Percentage:  item.Stock.Percentage,
			Status:      item.Stock.Status,
			Label:       item.Stock.Label,
			DetectedAt:  detectedAt,
		}
		if err := s.notifier.NotifyLowStock(ctx, alert); err != nil {
			s.logger.Warn("failed to send stock alert",
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}
	s.metrics.ObserveAlertsSent(sent)

	if firstErr != nil {
		return sent, fmt.Errorf("failed to send %d of %d stock alerts: %w", len(list.Items)-sent, len(list.Items), firstErr)
	}
	return sent, nil
}
