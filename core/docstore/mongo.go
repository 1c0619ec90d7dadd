package docstore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	ierr "github.com/relabs-tech/crudkit/core/errors"
	"github.com/relabs-tech/crudkit/core/logger"
)

// Mongo stores collections in a MongoDB database. Identifiers are ObjectIDs in
// their hex representation.
type Mongo struct {
	client   *mongo.Client
	database *mongo.Database
}

// OpenMongo connects to the MongoDB server at uri
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	logger.FromContext(ctx).Infoln("connecting to mongodb database:", database)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, errors.Wrap(err, "cannot reach mongodb")
	}
	return &Mongo{client: client, database: client.Database(database)}, nil
}

// Collection implements Store
func (m *Mongo) Collection(ctx context.Context, name string) (Collection, error) {
	return &mongoCollection{collection: m.database.Collection(name)}, nil
}

// Close implements Store
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Drop removes the database with all collections
func (m *Mongo) Drop(ctx context.Context) error {
	return m.database.Drop(ctx)
}

type mongoCollection struct {
	collection *mongo.Collection
}

func (c *mongoCollection) Name() string {
	return c.collection.Name()
}

const uniqueIndexSuffix = "_unique"

func (c *mongoCollection) EnsureUnique(ctx context.Context, field string) error {
	_, err := c.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(field + uniqueIndexSuffix),
	})
	return c.mapError(err, nil)
}

var duplicateIndexRegex = regexp.MustCompile(`index: (\S+)`)

func (c *mongoCollection) mapError(err error, doc Document) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		field := "unknown"
		if m := duplicateIndexRegex.FindStringSubmatch(err.Error()); m != nil {
			field = strings.TrimSuffix(m[1], uniqueIndexSuffix)
		}
		var value any
		if doc != nil {
			value, _ = lookup(doc, field)
		}
		return &ierr.DuplicateKeyError{Field: field, Value: value, Err: err}
	}
	return err
}

func objectID(v any) (primitive.ObjectID, error) {
	s, ok := v.(string)
	if !ok {
		return primitive.NilObjectID, &ierr.CastError{Field: IDField, Value: toString(v)}
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, &ierr.CastError{Field: IDField, Value: s, Err: err}
	}
	return id, nil
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, _ := bson.MarshalExtJSON(bson.M{"v": v}, false, false)
	return string(data)
}

// mongoFilter translates a filter into its bson form. Identifiers are converted
// to ObjectIDs.
func mongoFilter(filter Filter) (bson.M, error) {
	conditions, err := filter.Conditions()
	if err != nil {
		return nil, err
	}
	result := bson.M{}
	for _, cond := range conditions {
		value := cond.Value
		if cond.Field == IDField && cond.Op != OpExists {
			if values, ok := value.([]any); ok {
				ids := make(bson.A, 0, len(values))
				for _, v := range values {
					id, err := objectID(v)
					if err != nil {
						return nil, err
					}
					ids = append(ids, id)
				}
				value = ids
			} else {
				id, err := objectID(value)
				if err != nil {
					return nil, err
				}
				value = id
			}
		}
		ops, ok := result[cond.Field].(bson.M)
		if !ok {
			ops = bson.M{}
			result[cond.Field] = ops
		}
		ops[cond.Op] = value
	}
	return result, nil
}

// fromBSON converts decoded bson values into plain JSON values
func fromBSON(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC().Format("2006-01-02T15:04:05.000Z")
	case time.Time:
		return t.UTC().Format("2006-01-02T15:04:05.000Z")
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case bson.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = fromBSON(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = fromBSON(e)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = fromBSON(e.Value)
		}
		return m
	case bson.A:
		a := make([]any, len(t))
		for i, e := range t {
			a[i] = fromBSON(e)
		}
		return a
	case []any:
		a := make([]any, len(t))
		for i, e := range t {
			a[i] = fromBSON(e)
		}
		return a
	}
	return v
}

func toDocument(m bson.M) Document {
	return fromBSON(m).(map[string]any)
}

func (c *mongoCollection) Insert(ctx context.Context, doc Document) (Document, error) {
	stored := stripSystemFields(doc)
	stored[VersionField] = 0
	res, err := c.collection.InsertOne(ctx, stored)
	if err != nil {
		return nil, c.mapError(err, doc)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, errors.Newf("unexpected id type %T", res.InsertedID)
	}
	return c.FindByID(ctx, id.Hex())
}

func (c *mongoCollection) Find(ctx context.Context, query Query) ([]Document, error) {
	filter, err := mongoFilter(query.Filter)
	if err != nil {
		return nil, err
	}
	sort := bson.D{}
	hasID := false
	for _, sf := range query.Sort {
		direction := 1
		if sf.Descending {
			direction = -1
		}
		hasID = hasID || sf.Field == IDField
		sort = append(sort, bson.E{Key: sf.Field, Value: direction})
	}
	// ObjectIDs grow with insertion time
	if !hasID {
		sort = append(sort, bson.E{Key: IDField, Value: 1})
	}
	opts := options.Find().SetSort(sort)
	if query.Skip > 0 {
		opts.SetSkip(int64(query.Skip))
	}
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}
	cursor, err := c.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, c.mapError(err, nil)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, err
	}
	result := make([]Document, 0, len(raw))
	for _, m := range raw {
		result = append(result, toDocument(m))
	}
	return result, nil
}

func (c *mongoCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	f, err := mongoFilter(filter)
	if err != nil {
		return 0, err
	}
	return c.collection.CountDocuments(ctx, f)
}

func (c *mongoCollection) decodeOne(res *mongo.SingleResult, doc Document) (Document, error) {
	var m bson.M
	err := res.Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, c.mapError(err, doc)
	}
	return toDocument(m), nil
}

func (c *mongoCollection) FindByID(ctx context.Context, id string) (Document, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return c.decodeOne(c.collection.FindOne(ctx, bson.M{IDField: oid}), nil)
}

func (c *mongoCollection) UpdateByID(ctx context.Context, id string, set Document) (Document, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$inc": bson.M{VersionField: 1}}
	if changes := stripSystemFields(set); len(changes) > 0 {
		update["$set"] = changes
	}
	res := c.collection.FindOneAndUpdate(ctx, bson.M{IDField: oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	return c.decodeOne(res, set)
}

func (c *mongoCollection) DeleteByID(ctx context.Context, id string) (Document, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return c.decodeOne(c.collection.FindOneAndDelete(ctx, bson.M{IDField: oid}), nil)
}
