package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Pragyan2004/pneumoscan/datastructures"
	"github.com/garyburd/redigo/redis"
)

var ErrResultNotFound = errors.New("result not found")

// ResultCache keeps successful predictions around for a while, keyed by
// the saved upload filename.
type ResultCache interface {
	Put(name string, result datastructures.PredictMeResult) error
	Get(name string) (*datastructures.PredictMeResult, error)
}

type RedisCache struct {
	pool *redis.Pool
	ttl  time.Duration
}

func NewRedisCache(address string, maxConnections int, ttl time.Duration) *RedisCache {
	pool := redis.NewPool(func() (redis.Conn, error) {
		c, err := redis.Dial("tcp", address)

		if err != nil {
			return nil, err
		}

		return c, err
	}, maxConnections)

	return NewRedisCacheWithPool(pool, ttl)
}

func NewRedisCacheWithPool(pool *redis.Pool, ttl time.Duration) *RedisCache {
	if ttl < time.Second {
		ttl = time.Hour
	}
	return &RedisCache{pool: pool, ttl: ttl}
}

func cacheKey(name string) string {
	return "predict" + name
}

func (r *RedisCache) Put(name string, result datastructures.PredictMeResult) error {
	serialized, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("couldn't marshal prediction result: %w", err)
	}

	redisConn := r.pool.Get()
	defer redisConn.Close()

	_, err = redisConn.Do("SETEX", cacheKey(name), int(r.ttl.Seconds()), serialized)
	if err != nil {
		return fmt.Errorf("couldn't store prediction result: %w", err)
	}
	return nil
}

func (r *RedisCache) Get(name string) (*datastructures.PredictMeResult, error) {
	redisConn := r.pool.Get()
	defer redisConn.Close()

	data, err := redis.Bytes(redisConn.Do("GET", cacheKey(name)))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("couldn't get prediction result: %w", err)
	}

	var res datastructures.PredictMeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("couldn't unmarshal prediction result: %w", err)
	}
	return &res, nil
}

func (r *RedisCache) Ping() error {
	redisConn := r.pool.Get()
	defer redisConn.Close()

	_, err := redisConn.Do("PING")
	return err
}

func (r *RedisCache) Close() error {
	return r.pool.Close()
}
