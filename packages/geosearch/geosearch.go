package geosearch

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Service — поиск региона по точке через 2dsphere-индекс коллекции
// регионов. Результаты кэшируются: журналы полетов содержат много
// повторяющихся площадок.
type Service struct {
	collection *mongo.Collection

	mu    sync.RWMutex
	cache map[cacheKey]string
}

type cacheKey struct {
	lat float64
	lon float64
}

func New(collection *mongo.Collection) *Service {
	return &Service{
		collection: collection,
		cache:      make(map[cacheKey]string),
	}
}

// FindRegionForPoint возвращает название региона, содержащего точку,
// или пустую строку, если регион не найден
func (s *Service) FindRegionForPoint(ctx context.Context, lat, lon float64) string {
	key := cacheKey{lat: lat, lon: lon}

	s.mu.RLock()
	name, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return name
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	filter := bson.M{
		"geometry": bson.M{
			"$geoIntersects": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{lon, lat},
				},
			},
		},
	}
	opts := options.FindOne().SetProjection(bson.M{"name": 1})

	var result struct {
		Name string `bson:"name"`
	}
	if err := s.collection.FindOne(ctx, filter, opts).Decode(&result); err != nil {
		// Точка вне известных регионов или запрос не прошел —
		// обогащение не критично
		return ""
	}

	s.mu.Lock()
	s.cache[key] = result.Name
	s.mu.Unlock()

	return result.Name
}
