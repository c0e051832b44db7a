package regions

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store — коллекция регионов в MongoDB
type Store struct {
	collection *mongo.Collection
}

func NewStore(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

// EnsureIndexes создает уникальный индекс по имени региона и
// 2dsphere-индекс по геометрии для геопоиска
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "geometry", Value: "2dsphere"}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create region indexes: %w", err)
	}
	return nil
}

// Upsert обновляет регион по имени или вставляет новый
func (s *Store) Upsert(ctx context.Context, rp *RegionPolygon) error {
	_, err := s.collection.ReplaceOne(
		ctx,
		bson.M{"name": rp.Name},
		rp,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert region %q: %w", rp.Name, err)
	}
	return nil
}

// RegionInfo — краткая сводка по региону для списков
type RegionInfo struct {
	Name    string `bson:"name" json:"name"`
	AreaKM2 int    `bson:"area" json:"area"`
}

// List возвращает все регионы с площадями, без геометрии
func (s *Store) List(ctx context.Context) ([]RegionInfo, error) {
	opts := options.Find().
		SetProjection(bson.M{"name": 1, "area": 1, "_id": 0}).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer cursor.Close(ctx)

	var regions []RegionInfo
	if err := cursor.All(ctx, &regions); err != nil {
		return nil, fmt.Errorf("failed to decode regions: %w", err)
	}
	return regions, nil
}

// Feature — GeoJSON Feature для ответа API
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// RegionGeoResponse — регион с геометрией в формате GeoJSON
type RegionGeoResponse struct {
	Region  string  `json:"region"`
	GeoJSON Feature `json:"geojson"`
}

// GeoFeatures возвращает все регионы с геометрией для отрисовки карты
func (s *Store) GeoFeatures(ctx context.Context) ([]RegionGeoResponse, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query region geometry: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []RegionPolygon
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode region geometry: %w", err)
	}

	results := make([]RegionGeoResponse, 0, len(docs))
	for _, doc := range docs {
		results = append(results, RegionGeoResponse{
			Region: doc.Name,
			GeoJSON: Feature{
				Type:     "Feature",
				Geometry: doc.Geometry,
				Properties: map[string]any{
					"area": doc.AreaKM2,
				},
			},
		})
	}
	return results, nil
}
