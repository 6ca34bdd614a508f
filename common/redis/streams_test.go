package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeXAdder struct {
	args *redis.XAddArgs
	err  error
}

func (f *fakeXAdder) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = a
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	return redis.NewStringResult("1700000000000-0", nil)
}

func TestPublishJSONToStream(t *testing.T) {
	f := &fakeXAdder{}
	id, err := PublishJSONToStream(context.Background(), f, "inventory:stock-alerts", 100, map[string]any{"sku": "CLV-1"})
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-0", id)

	require.NotNil(t, f.args)
	assert.Equal(t, "inventory:stock-alerts", f.args.Stream)
	assert.EqualValues(t, 100, f.args.MaxLen)
	assert.True(t, f.args.Approx)

	values := f.args.Values.(map[string]any)
	var data map[string]string
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &data))
	assert.Equal(t, "CLV-1", data["sku"])
	assert.NotEmpty(t, values["timestamp"])
}

func TestPublishJSONToStream_Errors(t *testing.T) {
	f := &fakeXAdder{err: errors.New("READONLY")}
	_, err := PublishJSONToStream(context.Background(), f, "s", 0, map[string]any{})
	assert.Error(t, err)
	assert.False(t, f.args.Approx)

	_, err = PublishJSONToStream(context.Background(), &fakeXAdder{}, "s", 0, make(chan int))
	assert.Error(t, err)
}
