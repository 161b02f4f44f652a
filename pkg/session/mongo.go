package session

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/garmushka/pkg/errors"
)

const mongoCollection = "sessions"

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI      string
	Database string
}

// MongoStore keeps sessions in a MongoDB collection. A TTL index on
// expires_at lets the server drop expired sessions on its own.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoDoc is the stored form. The session itself is kept as its JSON
// encoding so the payload schema has a single definition.
type mongoDoc struct {
	ID          string    `bson:"_id"`
	SourceLabel string    `bson:"source_label"`
	Data        []byte    `bson:"data"`
	UpdatedAt   time.Time `bson:"updated_at"`
	ExpiresAt   time.Time `bson:"expires_at,omitempty"`
}

// NewMongoStore connects to MongoDB and ensures the collection indexes.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}

	coll := client.Database(cfg.Database).Collection(mongoCollection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create mongo indexes")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Session, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, err
	}
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storageErr(err, "get session %s", id)
	}
	sess, err := decode(doc.Data)
	if err != nil {
		return nil, err
	}
	if sess.IsExpired() {
		return nil, notFound(id)
	}
	return sess, nil
}

func (s *MongoStore) Set(ctx context.Context, sess *Session) error {
	if err := errors.ValidateSessionID(sess.ID); err != nil {
		return err
	}
	data, err := encode(sess)
	if err != nil {
		return err
	}
	doc := mongoDoc{
		ID:          sess.ID,
		SourceLabel: sess.SourceLabel(),
		Data:        data,
		UpdatedAt:   sess.UpdatedAt,
		ExpiresAt:   sess.ExpiresAt,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": sess.ID}, doc, opts); err != nil {
		return storageErr(err, "set session %s", sess.ID)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateSessionID(id); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return storageErr(err, "delete session %s", id)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]*Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storageErr(err, "list sessions")
	}
	var docs []mongoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storageErr(err, "list sessions")
	}

	list := make([]*Session, 0, len(docs))
	for _, doc := range docs {
		sess, err := decode(doc.Data)
		if err != nil || sess.IsExpired() {
			continue
		}
		list = append(list, sess)
	}
	sortByUpdated(list)
	return list, nil
}

// Cleanup deletes expired sessions the TTL monitor has not reached yet.
func (s *MongoStore) Cleanup(ctx context.Context) error {
	filter := bson.M{"expires_at": bson.M{"$lt": time.Now(), "$gt": time.Time{}}}
	if _, err := s.coll.DeleteMany(ctx, filter); err != nil {
		return storageErr(err, "cleanup sessions")
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
