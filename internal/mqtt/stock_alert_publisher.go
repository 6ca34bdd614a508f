package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"invwe-data/internal/service"

	"go.uber.org/zap"
)

// Publisher MQTT 发布接口（common/mqtt.Client 实现）
type Publisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

// StockAlertPublisher 通过 MQTT 发布低库存告警
// topic: <prefix>/<tenant_id>/<store_id>/stock-alerts
type StockAlertPublisher struct {
	client      Publisher
	topicPrefix string
	logger      *zap.Logger
}

// NewStockAlertPublisher 创建低库存告警发布器
func NewStockAlertPublisher(client Publisher, topicPrefix string, logger *zap.Logger) *StockAlertPublisher {
	topicPrefix = strings.TrimSuffix(topicPrefix, "/")
	if topicPrefix == "" {
		topicPrefix = "inventory"
	}
	return &StockAlertPublisher{
		client:      client,
		topicPrefix: topicPrefix,
		logger:      logger,
	}
}

// Topic 告警主题
func (p *StockAlertPublisher) Topic(tenantID, storeID string) string {
	return fmt.Sprintf("%s/%s/%s/stock-alerts", p.topicPrefix, tenantID, storeID)
}

// NotifyLowStock 实现 service.StockAlertNotifier
func (p *StockAlertPublisher) NotifyLowStock(ctx context.Context, alert service.StockAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal stock alert: %w", err)
	}

	topic := p.Topic(alert.TenantID, alert.StoreID)
	if err := p.client.Publish(topic, false, payload); err != nil {
		return err
	}

	p.logger.Debug("Stock alert published",
		zap.String("topic", topic),
		zap.String("product_id", alert.ProductID),
		zap.Int("payload_size", len(payload)),
	)
	return nil
}
