package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on MongoDB. Live subscriptions are built on
// change streams, which require a replica set.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (m *MongoStore) col(name string) *mongo.Collection {
	return m.db.Collection(name)
}

func (m *MongoStore) Create(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := primitive.NewObjectID().Hex()
	if _, err := m.col(collection).InsertOne(ctx, withID(id, data)); err != nil {
		return "", classify(err)
	}
	return id, nil
}

func (m *MongoStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	raw, err := m.col(collection).FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Snapshot{ID: id}, ErrNotFound
		}
		return Snapshot{}, classify(err)
	}
	return rawSnapshot(id, raw), nil
}

func (m *MongoStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	opts := options.Replace().SetUpsert(true)
	_, err := m.col(collection).ReplaceOne(ctx, bson.M{"_id": id}, withID(id, data), opts)
	return classify(err)
}

func (m *MongoStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return m.update(ctx, collection, id, "", fields)
}

func (m *MongoStore) UpdateExisting(ctx context.Context, collection, id, require string, fields map[string]interface{}) error {
	return m.update(ctx, collection, id, require, fields)
}

func (m *MongoStore) update(ctx context.Context, collection, id, require string, fields map[string]interface{}) error {
	set := bson.M{}
	unset := bson.M{}
	for path, v := range fields {
		if v == Delete {
			unset[path] = ""
			continue
		}
		set[path] = v
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	filter := bson.M{"_id": id}
	if require != "" {
		filter[require] = bson.M{"$exists": true}
	}
	if len(update) == 0 {
		n, err := m.col(collection).CountDocuments(ctx, filter)
		if err != nil {
			return classify(err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	}
	res, err := m.col(collection).UpdateOne(ctx, filter, update)
	if err != nil {
		return classify(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, collection, id string) error {
	res, err := m.col(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return classify(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// BatchDelete runs the deletes in one transaction; a missing id aborts it.
func (m *MongoStore) BatchDelete(ctx context.Context, collection string, ids []string) error {
	sess, err := m.db.Client().StartSession()
	if err != nil {
		return classify(err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			res, err := m.col(collection).DeleteOne(sc, bson.M{"_id": id})
			if err != nil {
				return nil, err
			}
			if res.DeletedCount == 0 {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
			}
		}
		return nil, nil
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return classify(err)
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument bson.Raw `bson:"fullDocument"`
}

// SubscribeQuery opens the change stream before reading the initial set so no
// write between the two is lost. Stream events are re-evaluated against the
// predicate to derive added, modified and removed.
func (m *MongoStore) SubscribeQuery(ctx context.Context, collection string, q Query) (*Subscription[QueryEvent], error) {
	watchCtx, cancel := context.WithCancel(context.Background())
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	cs, err := m.col(collection).Watch(watchCtx, mongo.Pipeline{}, opts)
	if err != nil {
		cancel()
		return nil, classify(err)
	}

	cur, err := m.col(collection).Find(ctx, q.filter(), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		cancel()
		cs.Close(context.Background())
		return nil, classify(err)
	}
	matched := make(map[string]struct{})
	initial := QueryEvent{Changes: []Change{}}
	for cur.Next(ctx) {
		id, _ := cur.Current.Lookup("_id").StringValueOK()
		matched[id] = struct{}{}
		initial.Changes = append(initial.Changes, Change{Kind: Added, ID: id, Doc: rawSnapshot(id, cur.Current)})
	}
	if err := cur.Err(); err != nil {
		cur.Close(ctx)
		cancel()
		cs.Close(context.Background())
		return nil, classify(err)
	}
	cur.Close(ctx)

	sub := newSubscription[QueryEvent](ctx, "query", cancel)
	sub.push(initial)
	sub.spawn(func() {
		defer cs.Close(context.Background())
		for cs.Next(watchCtx) {
			var ev changeEvent
			if err := cs.Decode(&ev); err != nil {
				sub.fail(classify(err))
				return
			}
			id := ev.DocumentKey.ID
			switch ev.OperationType {
			case "insert", "update", "replace", "delete":
			case "drop", "invalidate":
				sub.fail(fmt.Errorf("%w: collection %s %s", ErrUnavailable, collection, ev.OperationType))
				return
			default:
				continue
			}
			_, was := matched[id]
			is := false
			var doc bson.M
			if ev.OperationType != "delete" && ev.FullDocument != nil {
				if err := bson.Unmarshal(ev.FullDocument, &doc); err == nil {
					is = q.Matches(doc)
				}
			}
			var ch Change
			switch {
			case is && !was:
				matched[id] = struct{}{}
				ch = Change{Kind: Added, ID: id, Doc: rawSnapshot(id, ev.FullDocument)}
			case is && was:
				ch = Change{Kind: Modified, ID: id, Doc: rawSnapshot(id, ev.FullDocument)}
			case !is && was:
				delete(matched, id)
				ch = Change{Kind: Removed, ID: id, Doc: Snapshot{ID: id}}
			default:
				continue
			}
			sub.push(QueryEvent{Changes: []Change{ch}})
		}
		if err := cs.Err(); err != nil && watchCtx.Err() == nil {
			logger.Warnf("change stream on %s ended: %v", collection, err)
			sub.fail(classify(err))
		}
	})
	return sub, nil
}

func (m *MongoStore) SubscribeDocument(ctx context.Context, collection, id string) (*Subscription[DocEvent], error) {
	watchCtx, cancel := context.WithCancel(context.Background())
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{"documentKey._id": id}}}}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	cs, err := m.col(collection).Watch(watchCtx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, classify(err)
	}

	snap, err := m.Get(ctx, collection, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		cancel()
		cs.Close(context.Background())
		return nil, err
	}

	sub := newSubscription[DocEvent](ctx, "document", cancel)
	sub.push(DocEvent{Snapshot: snap})
	sub.spawn(func() {
		defer cs.Close(context.Background())
		for cs.Next(watchCtx) {
			var ev changeEvent
			if err := cs.Decode(&ev); err != nil {
				sub.fail(classify(err))
				return
			}
			switch ev.OperationType {
			case "delete":
				sub.push(DocEvent{Snapshot: Snapshot{ID: id}})
			case "insert", "update", "replace":
				if ev.FullDocument == nil {
					sub.push(DocEvent{Snapshot: Snapshot{ID: id}})
					continue
				}
				sub.push(DocEvent{Snapshot: rawSnapshot(id, ev.FullDocument)})
			case "drop", "invalidate":
				sub.fail(fmt.Errorf("%w: collection %s %s", ErrUnavailable, collection, ev.OperationType))
				return
			}
		}
		if err := cs.Err(); err != nil && watchCtx.Err() == nil {
			logger.Warnf("change stream on %s/%s ended: %v", collection, id, err)
			sub.fail(classify(err))
		}
	})
	return sub, nil
}

func withID(id string, data map[string]interface{}) bson.M {
	doc := bson.M{"_id": id}
	for k, v := range data {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}
	return doc
}

func rawSnapshot(id string, raw bson.Raw) Snapshot {
	// the cursor reuses its buffer
	owned := make(bson.Raw, len(raw))
	copy(owned, raw)
	return Snapshot{
		ID:     id,
		Exists: true,
		decode: func(v interface{}) error { return bson.Unmarshal(owned, v) },
	}
}

// classify maps connectivity failures to ErrUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNotFound) {
		return err
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) && srvErr.HasErrorLabel("TransientTransactionError") {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
