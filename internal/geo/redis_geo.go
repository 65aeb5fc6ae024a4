package geo

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/access-rides/internal/models"
)

// RedisIndex mirrors driver positions into Redis GEO commands so nearby
// lookups can be served off-process. The registry stays the source of truth
// for availability; Redis carries location plus a small metadata hash.
type RedisIndex struct {
	client *redis.Client
	key    string
}

func NewRedisIndex(addr, password, key string) *RedisIndex {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisIndex{client: c, key: key}
}

func (r *RedisIndex) Upsert(ctx context.Context, loc models.DriverLocation) error {
	if _, err := r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Longitude: loc.Loc.Lng,
		Latitude:  loc.Loc.Lat,
		Name:      loc.DriverID,
	}).Result(); err != nil {
		return err
	}
	return r.client.HSet(ctx, metaKey(loc.DriverID), map[string]interface{}{
		"rating":    strconv.FormatFloat(loc.Rating, 'f', -1, 64),
		"available": strconv.FormatBool(loc.Available),
		"updated":   time.Now().Format(time.RFC3339),
	}).Err()
}

// Radius returns driver ids with distances within radiusMeters, nearest
// first. Metadata is merged in best-effort; a missing hash leaves zero
// values.
func (r *RedisIndex) Radius(ctx context.Context, origin models.Coord, radiusMeters float64, limit int) []Result {
	res, err := r.client.GeoRadius(ctx, r.key, origin.Lng, origin.Lat, &redis.GeoRadiusQuery{
		Radius: radiusMeters, Unit: "m", WithCoord: true, WithDist: true, Count: limit, Sort: "ASC",
	}).Result()
	if err != nil {
		return nil
	}
	out := make([]Result, 0, len(res))
	for _, g := range res {
		d := models.Driver{ID: g.Name}
		d.Loc.Lat = g.Latitude
		d.Loc.Lng = g.Longitude
		if m, err := r.client.HGetAll(ctx, metaKey(g.Name)).Result(); err == nil {
			if v, ok := m["rating"]; ok {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					d.Rating = f
				}
			}
			if v, ok := m["available"]; ok {
				d.Available = v == "true"
			}
		}
		out = append(out, Result{Driver: d, DistanceMeters: g.Dist})
	}
	return out
}

func (r *RedisIndex) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *RedisIndex) Close() error { return r.client.Close() }

func metaKey(id string) string { return "driver:meta:" + id }
