package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kimiashop/orderflow/internal/errs"
	"github.com/kimiashop/orderflow/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// RedisCache shares the calculation cache across instances so a checkout
// begun on one instance can be confirmed on another. Expiry is native Redis
// TTL; no sweeper is needed.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Store(ctx context.Context, calc Calculation) error {
	calc.CreatedAt = time.Now().UTC()
	b, err := json.Marshal(calc)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyCartCalc, calc.OrderNo)
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return errs.Wrap(errs.KindExternalService, "store cart calculation", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, orderNo string) (Calculation, error) {
	key := fmt.Sprintf(redisx.KeyCartCalc, orderNo)
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Calculation{}, errs.Newf(errs.KindNotFound, "no cart calculation for %s", orderNo)
	}
	if err != nil {
		return Calculation{}, errs.Wrap(errs.KindExternalService, "get cart calculation", err)
	}
	var calc Calculation
	if err := json.Unmarshal(b, &calc); err != nil {
		return Calculation{}, err
	}
	return calc, nil
}

func (c *RedisCache) Clear(ctx context.Context, orderNo string) error {
	key := fmt.Sprintf(redisx.KeyCartCalc, orderNo)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return errs.Wrap(errs.KindExternalService, "clear cart calculation", err)
	}
	return nil
}
