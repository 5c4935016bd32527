package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/supportops/operations-service/internal/domain"
	"github.com/supportops/operations-service/pkg/mongodb"
)

const worksheetCollection = "worksheets"

// WorksheetRepository implements domain.WorksheetRepository on MongoDB.
// Each worksheet is stored as a single snapshot document keyed by its ID
// and replaced wholesale on every save.
type WorksheetRepository struct {
	collection *mongodb.InstrumentedCollection
}

// NewWorksheetRepository creates a worksheet repository and ensures its
// indexes exist.
func NewWorksheetRepository(client *mongodb.InstrumentedClient) *WorksheetRepository {
	collection := client.Collection(worksheetCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	collection.CreateIndex(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updatedAt", Value: -1}},
	})

	return &WorksheetRepository{collection: collection}
}

func (r *WorksheetRepository) Save(ctx context.Context, worksheet *domain.Worksheet) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, mongodb.BuildFilter("_id", worksheet.ID), worksheet, opts)
	return err
}

func (r *WorksheetRepository) FindByID(ctx context.Context, id string) (*domain.Worksheet, error) {
	var worksheet domain.Worksheet
	err := r.collection.FindOne(ctx, mongodb.BuildFilter("_id", id)).Decode(&worksheet)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrWorksheetNotFound
		}
		return nil, err
	}
	return &worksheet, nil
}

func (r *WorksheetRepository) FindAll(ctx context.Context) ([]*domain.Worksheet, error) {
	opts := options.Find().SetSort(mongodb.SortDescending("updatedAt"))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var worksheets []*domain.Worksheet
	if err := cursor.All(ctx, &worksheets); err != nil {
		return nil, err
	}
	return worksheets, nil
}

// Delete removes a worksheet snapshot. Deleting a missing worksheet is not
// an error.
func (r *WorksheetRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, mongodb.BuildFilter("_id", id))
	return err
}
