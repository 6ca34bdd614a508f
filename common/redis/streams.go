package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// XAdder 写 Redis Stream 的最小接口（*redis.Client 满足）
type XAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// PublishJSONToStream 以 {data, timestamp} 两个字段写入一条 Stream 消息
// maxLen > 0 时按近似长度裁剪（XADD MAXLEN ~）
func PublishJSONToStream(ctx context.Context, client XAdder, stream string, maxLen int64, data any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stream message: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"data":      string(payload),
			"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		},
	}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}

	id, err := client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", stream, err)
	}
	return id, nil
}
