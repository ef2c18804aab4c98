package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongoDB connects to the vector-store backing database (C8) and
// ensures the chunk_index collection carries the lookup indexes the
// retrieval path depends on.
func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := createIndexes(client, cfg.DBName); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	chunkIndex := db.Collection("chunk_index")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "document_id", Value: 1}}},
		{Keys: bson.D{{Key: "document_id", Value: 1}, {Key: "chunk_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "document_id", Value: 1}, {Key: "section_id", Value: 1}}},
		{Keys: bson.D{{Key: "document_id", Value: 1}, {Key: "parent_id", Value: 1}}},
	}
	_, err := chunkIndex.Indexes().CreateMany(context.Background(), indexes)
	return err
}
