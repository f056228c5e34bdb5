package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Pratham2403/insights-dashboard-sub001/conversation"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// MongoStore implements conversation storage using MongoDB. States are stored
// one document per conversation with the conversation ID as _id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB configuration for conversations.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// NewMongoStore connects to MongoDB and prepares the conversation collection.
func NewMongoStore(ctx context.Context, config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = &MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "insights",
			Collection: "conversations",
		}
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(config.Database).Collection(config.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updated_at", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation index: %w", err)
	}

	return &MongoStore{client: client, collection: coll}, nil
}

// Save upserts a conversation state.
func (s *MongoStore) Save(ctx context.Context, st *state.State) error {
	if st == nil || st.ConversationID == "" {
		return fmt.Errorf("conversation state cannot be nil")
	}
	_, err := s.collection.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: st.ConversationID}},
		st,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// Load finds a conversation state by ID.
func (s *MongoStore) Load(ctx context.Context, id string) (*state.State, error) {
	var st state.State
	err := s.collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&st)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, conversation.NotFoundErr(id)
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &st, nil
}

// Delete removes a conversation state.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	_, err := s.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// List returns all conversation IDs.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	cursor, err := s.collection.Find(ctx, bson.D{},
		options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conversation id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return ids, nil
}

// Count returns the number of stored conversations.
func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return int(n), nil
}

// Exists reports whether a conversation is stored.
func (s *MongoStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.collection.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check conversation existence: %w", err)
	}
	return n > 0, nil
}

// Close disconnects the MongoDB client.
func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
