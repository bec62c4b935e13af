package repository

import (
	"context"
	"time"

	"github.com/example/storefront/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Audit actions recorded for order operations.
const (
	AuditOrderPlaced    = "order.placed"
	AuditOrderStatusSet = "order.status_changed"
	AuditOrderCancelled = "order.cancelled"
	AuditOrderDeleted   = "order.deleted"
)

// AuditTrail records order events best-effort: writes happen asynchronously
// and never fail or delay the request that produced them.
type AuditTrail interface {
	Record(action, entityID string, data map[string]interface{})
	Close(ctx context.Context) error
}

// NopAuditTrail discards all entries. Used when no MongoDB URI is configured.
type NopAuditTrail struct{}

func (NopAuditTrail) Record(action, entityID string, data map[string]interface{}) {}

func (NopAuditTrail) Close(ctx context.Context) error { return nil }

type auditEntry struct {
	ID        string    `bson:"_id,omitempty"`
	Action    string    `bson:"action"`
	EntityID  string    `bson:"entity_id"`
	Data      bson.M    `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoAuditTrail persists audit entries to a MongoDB collection.
type MongoAuditTrail struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewMongoAuditTrail(cfg *config.MongoDBConfig, logger *zap.Logger) (*MongoAuditTrail, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &MongoAuditTrail{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger,
	}, nil
}

func (a *MongoAuditTrail) Record(action, entityID string, data map[string]interface{}) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		entry := auditEntry{
			Action:    action,
			EntityID:  entityID,
			Data:      bson.M(data),
			CreatedAt: time.Now().UTC(),
		}
		if _, err := a.collection.InsertOne(ctx, entry); err != nil {
			a.logger.Warn("audit write failed",
				zap.String("action", action),
				zap.String("entity_id", entityID),
				zap.Error(err))
		}
	}()
}

func (a *MongoAuditTrail) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}

var (
	_ AuditTrail = (*MongoAuditTrail)(nil)
	_ AuditTrail = NopAuditTrail{}
)
