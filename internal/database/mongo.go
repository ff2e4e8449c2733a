package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectMongo opens a client for the geo-report store, verifies it with a
// ping and ensures the report indexes exist.
func ConnectMongo(ctx context.Context, uri, dbName string, logger *zap.SugaredLogger) (*mongo.Client, *mongo.Database, error) {
	if uri == "" {
		return nil, nil, fmt.Errorf("mongo URI is empty")
	}
	start := time.Now()
	logger.Infow("Connecting to MongoDB", "uri", RedactURI(uri), "db", dbName)

	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	if err := createIndexes(dctx, db.Collection("reports")); err != nil {
		logger.Warnw("MongoDB index creation warnings", "error", err)
	}

	logger.Infow("MongoDB connected", "took", time.Since(start).Round(time.Millisecond))
	return client, db, nil
}

func createIndexes(ctx context.Context, col *mongo.Collection) error {
	var errs []string
	indexes := []struct {
		name string
		keys bson.D
	}{
		{"created_at", bson.D{{Key: "created_at", Value: -1}}},
		{"category", bson.D{{Key: "category", Value: 1}}},
		{"lat,lng", bson.D{{Key: "lat", Value: 1}, {Key: "lng", Value: 1}}},
	}
	for _, idx := range indexes {
		if _, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: idx.keys}); err != nil {
			errs = append(errs, idx.name+": "+err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// RedactURI hides credentials in a connection string before it is logged.
func RedactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}
