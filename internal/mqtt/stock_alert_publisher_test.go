package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"invwe-data/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(topic string, retained bool, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{topic: topic, retained: retained, payload: payload})
	return nil
}

func TestStockAlertPublisher_Publish(t *testing.T) {
	fp := &fakePublisher{}
	p := NewStockAlertPublisher(fp, "invwe/", zap.NewNop())

	alert := service.StockAlert{
		TenantID:   "t-1",
		StoreID:    "s-1",
		ProductID:  "p-1",
		SKU:        "A-1",
		Quantity:   3,
		MinStock:   100,
		Percentage: 3,
		Status:     service.StockLow,
		Label:      "Stock Bajo",
	}
	require.NoError(t, p.NotifyLowStock(context.Background(), alert))
	require.Len(t, fp.msgs, 1)
	assert.Equal(t, "invwe/t-1/s-1/stock-alerts", fp.msgs[0].topic)
	assert.False(t, fp.msgs[0].retained)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fp.msgs[0].payload, &got))
	assert.Equal(t, "low", got["status"])
	assert.Equal(t, "A-1", got["sku"])
	assert.EqualValues(t, 100, got["min_stock"])
}

func TestStockAlertPublisher_DefaultPrefixAndErrors(t *testing.T) {
	fp := &fakePublisher{err: errors.New("not connected")}
	p := NewStockAlertPublisher(fp, "", zap.NewNop())
	assert.Equal(t, "inventory/a/b/stock-alerts", p.Topic("a", "b"))

	err := p.NotifyLowStock(context.Background(), service.StockAlert{TenantID: "a", StoreID: "b"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fp.err = nil
	assert.ErrorIs(t, p.NotifyLowStock(ctx, service.StockAlert{}), context.Canceled)
	assert.Empty(t, fp.msgs)
}
