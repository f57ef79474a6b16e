package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/gfornaciari/ebook-subscribe-api/internal/models"
	"github.com/gfornaciari/ebook-subscribe-api/internal/repository"
)

const (
	emailIndexName    = "email_1"
	disconnectTimeout = 5 * time.Second
)

var ErrMissingURI = errors.New("MONGODB_URI is not set")

type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

type subscriberDocument struct {
	Email     string    `bson:"email"`
	Name      string    `bson:"name"`
	Status    string    `bson:"status"`
	Source    string    `bson:"source"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type handle struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// SubscriberRepository stores subscribers in a MongoDB collection with a unique email index.
type SubscriberRepository struct {
	conn *repository.Lazy[*handle]
	cfg  Config
	log  zerolog.Logger
}

func NewSubscriberRepository(cfg Config, logger zerolog.Logger) *SubscriberRepository {
	logger = logger.With().Str("component", "MongoSubscriberRepository").Logger()
	r := &SubscriberRepository{cfg: cfg, log: logger}
	r.conn = repository.NewLazy(r.connect, r.release, cfg.ConnectTimeout)
	return r
}

func (r *SubscriberRepository) connect(ctx context.Context) (*handle, error) {
	if r.cfg.URI == "" {
		return nil, ErrMissingURI
	}

	r.log.Info().Str("database", r.cfg.Database).Msg("connecting to mongodb")
	client, err := mongo.Connect(
		options.Client().
			ApplyURI(r.cfg.URI).
			SetConnectTimeout(r.cfg.ConnectTimeout).
			SetServerSelectionTimeout(r.cfg.ConnectTimeout),
	)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}

	coll := client.Database(r.cfg.Database).Collection(r.cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	if err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}

	r.log.Info().
		Str("database", r.cfg.Database).
		Str("collection", r.cfg.Collection).
		Msg("mongodb connection established")
	return &handle{client: client, collection: coll}, nil
}

func (r *SubscriberRepository) release(h *handle) {
	r.log.Warn().Msg("disconnecting mongodb client established after close")
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	_ = h.client.Disconnect(ctx)
}

// Upsert creates the subscriber or refreshes name, status, source and updatedAt in place.
// A new email racing another insert loses on the unique index and is retried as an update.
func (r *SubscriberRepository) Upsert(ctx context.Context, email, name string) error {
	h, err := r.conn.Get(ctx)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Msg("failed to connect to mongodb")
		return repository.NewStoreError("connect", err)
	}

	start := time.Now()
	err = r.upsert(ctx, h.collection, email, name)
	if mongo.IsDuplicateKeyError(err) {
		r.log.Debug().Ctx(ctx).Str("email", email).Msg("duplicate key on insert, retrying as update")
		err = r.upsert(ctx, h.collection, email, name)
	}
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).
			Str("email", email).
			Dur("duration", time.Since(start)).
			Msg("failed to upsert subscriber")
		return repository.NewStoreError("upsert", err)
	}

	r.log.Debug().Ctx(ctx).
		Str("email", email).
		Dur("duration", time.Since(start)).
		Msg("subscriber upserted")
	return nil
}

func (r *SubscriberRepository) upsert(ctx context.Context, coll *mongo.Collection, email, name string) error {
	now := time.Now().UTC()
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "name", Value: name},
			{Key: "status", Value: string(models.StatusSubscribed)},
			{Key: "source", Value: models.DefaultSource},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "createdAt", Value: now},
		}},
	}

	_, err := coll.UpdateOne(ctx,
		bson.D{{Key: "email", Value: email}},
		update,
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (r *SubscriberRepository) FindByEmail(ctx context.Context, email string) (models.Subscriber, error) {
	h, err := r.conn.Get(ctx)
	if err != nil {
		return models.Subscriber{}, repository.NewStoreError("connect", err)
	}

	var doc subscriberDocument
	err = h.collection.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Subscriber{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Subscriber{}, repository.NewStoreError("find", err)
	}

	return models.Subscriber{
		Email:     doc.Email,
		Name:      doc.Name,
		Status:    models.Status(doc.Status),
		Source:    doc.Source,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// Ping dials on first use, so a health probe also warms the connection.
func (r *SubscriberRepository) Ping(ctx context.Context) error {
	h, err := r.conn.Get(ctx)
	if err != nil {
		return repository.NewStoreError("connect", err)
	}
	if err := h.client.Ping(ctx, readpref.Primary()); err != nil {
		return repository.NewStoreError("ping", err)
	}
	return nil
}

func (r *SubscriberRepository) Close(ctx context.Context) error {
	h, ok := r.conn.Reset()
	if !ok {
		return nil
	}
	r.log.Info().Msg("disconnecting from mongodb")
	return h.client.Disconnect(ctx)
}
