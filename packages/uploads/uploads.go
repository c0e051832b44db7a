package uploads

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Статусы записи о загрузке журнала
const (
	StatusUploaded  = "uploaded"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// FileRecord — метаданные одной загрузки журнала полетов. Активной
// считается последняя успешная загрузка файла с данным именем.
type FileRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"file_id"`
	Filename   string             `bson:"filename" json:"filename"`
	Size       int64              `bson:"size" json:"size"`
	Status     string             `bson:"status" json:"status"`
	Message    string             `bson:"message" json:"message"`
	SheetNames []string           `bson:"sheet_names,omitempty" json:"sheet_names"`
	Active     bool               `bson:"active" json:"active"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// Store — коллекция метаданных загрузок в MongoDB
type Store struct {
	collection *mongo.Collection
}

func NewStore(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

// Create регистрирует новую загрузку и деактивирует предыдущие записи
// с тем же именем файла
func (s *Store) Create(ctx context.Context, filename string, size int64) (*FileRecord, error) {
	_, err := s.collection.UpdateMany(
		ctx,
		bson.M{"filename": filename, "active": true},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate previous uploads of %q: %w", filename, err)
	}

	rec := &FileRecord{
		Filename:   filename,
		Size:       size,
		Status:     StatusUploaded,
		Message:    "Uploaded",
		Active:     true,
		UploadedAt: time.Now().UTC(),
	}
	res, err := s.collection.InsertOne(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload record: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = id
	}
	return rec, nil
}

// SetStatus обновляет статус записи; для успешной обработки сюда же
// попадает список листов
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status, message string, sheets []string) error {
	update := bson.M{"status": status, "message": message}
	if sheets != nil {
		update["sheet_names"] = sheets
	}

	_, err := s.collection.UpdateByID(ctx, id, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("failed to update upload %s: %w", id.Hex(), err)
	}
	return nil
}

// List возвращает историю загрузок, новые сверху
func (s *Store) List(ctx context.Context) ([]FileRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer cursor.Close(ctx)

	var records []FileRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode uploads: %w", err)
	}
	return records, nil
}
