package store

import (
	"context"

	commonredis "invwe-data/common/redis"
	"invwe-data/internal/service"

	"go.uber.org/zap"
)

// StockAlertStream 把低库存告警写入 Redis Stream，供下游消费者组读取
type StockAlertStream struct {
	client commonredis.XAdder
	stream string
	maxLen int64
	logger *zap.Logger
}

var _ service.StockAlertNotifier = (*StockAlertStream)(nil)

func NewStockAlertStream(client commonredis.XAdder, stream string, maxLen int64, logger *zap.Logger) *StockAlertStream {
	return &StockAlertStream{client: client, stream: stream, maxLen: maxLen, logger: logger}
}

func (s *StockAlertStream) NotifyLowStock(ctx context.Context, alert service.StockAlert) error {
	id, err := commonredis.PublishJSONToStream(ctx, s.client, s.stream, s.maxLen, alert)
	if err != nil {
		return err
	}
	s.logger.Debug("stock alert appended",
		zap.String("stream", s.stream),
		zap.String("id", id),
		zap.String("product_id", alert.ProductID),
	)
	return nil
}
