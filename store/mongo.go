package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/relai-app/relai-server/log"
)

// MongoStore persists users and tasks in MongoDB collections
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
	tasks  *mongo.Collection
}

// userDoc is the stored shape of a user. The canonical schema uses string
// ids; the ObjectId mapping stays inside this file.
type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Avatar    string             `bson:"avatar,omitempty"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// taskDoc is the stored shape of a task
type taskDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Title            string             `bson:"title"`
	Description      string             `bson:"description"`
	Progress         int                `bson:"progress"`
	Status           string             `bson:"status"`
	AssignedTo       *string            `bson:"assignedTo,omitempty"`
	RelayedFrom      *string            `bson:"relayedFrom,omitempty"`
	EstimatedHandoff *string            `bson:"estimatedHandoff,omitempty"`
	RelayedAt        *time.Time         `bson:"relayedAt,omitempty"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func (d userDoc) toUser() User {
	return User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Avatar:    d.Avatar,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d taskDoc) toTask() Task {
	return Task{
		ID:               d.ID.Hex(),
		Title:            d.Title,
		Description:      d.Description,
		Progress:         d.Progress,
		Status:           d.Status,
		AssignedTo:       d.AssignedTo,
		RelayedFrom:      d.RelayedFrom,
		EstimatedHandoff: d.EstimatedHandoff,
		RelayedAt:        d.RelayedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	db := client.Database(database)
	log.Info().Str("database", database).Msg("connected to MongoDB")

	return &MongoStore{
		client: client,
		users:  db.Collection("users"),
		tasks:  db.Collection("tasks"),
	}, nil
}

// Close disconnects the MongoDB client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// objectID parses a hex id; unknown shapes map to ErrNotFound so callers
// treat malformed ids the same as missing documents.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (s *MongoStore) CreateUser(ctx context.Context, u User) (User, error) {
	now := time.Now().UTC()
	doc := userDoc{
		Name:      u.Name,
		Avatar:    u.Avatar,
		Status:    u.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		return User{}, err
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toUser(), nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]User, error) {
	cur, err := s.users.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toUser())
	}
	return users, nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (User, error) {
	oid, err := objectID(id)
	if err != nil {
		return User{}, err
	}

	var doc userDoc
	err = s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return doc.toUser(), nil
}

func (s *MongoStore) GetUserByName(ctx context.Context, name string) (User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return doc.toUser(), nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error) {
	oid, err := objectID(id)
	if err != nil {
		return User{}, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Avatar != nil {
		set["avatar"] = *patch.Avatar
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}

	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return doc.toUser(), nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

func (s *MongoStore) CreateTask(ctx context.Context, t Task) (Task, error) {
	now := time.Now().UTC()
	doc := taskDoc{
		Title:            t.Title,
		Description:      t.Description,
		Progress:         t.Progress,
		Status:           t.Status,
		AssignedTo:       t.AssignedTo,
		RelayedFrom:      t.RelayedFrom,
		EstimatedHandoff: t.EstimatedHandoff,
		RelayedAt:        t.RelayedAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	res, err := s.tasks.InsertOne(ctx, doc)
	if err != nil {
		return Task{}, err
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toTask(), nil
}

func (s *MongoStore) ListTasks(ctx context.Context) ([]Task, error) {
	return s.findTasks(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (s *MongoStore) GetTask(ctx context.Context, id string) (Task, error) {
	oid, err := objectID(id)
	if err != nil {
		return Task{}, err
	}

	var doc taskDoc
	err = s.tasks.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, err
	}
	return doc.toTask(), nil
}

func (s *MongoStore) TasksByAssignee(ctx context.Context, userID string) ([]Task, error) {
	return s.findTasks(ctx, bson.M{"assignedTo": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (s *MongoStore) UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error) {
	oid, err := objectID(id)
	if err != nil {
		return Task{}, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Progress != nil {
		set["progress"] = *patch.Progress
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.AssignedTo != nil {
		set["assignedTo"] = *patch.AssignedTo
	}
	if patch.RelayedFrom != nil {
		set["relayedFrom"] = *patch.RelayedFrom
	}
	if patch.EstimatedHandoff != nil {
		set["estimatedHandoff"] = *patch.EstimatedHandoff
	}
	if patch.RelayedAt != nil {
		set["relayedAt"] = *patch.RelayedAt
	}

	var doc taskDoc
	err = s.tasks.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, err
	}
	return doc.toTask(), nil
}

func (s *MongoStore) DeleteTask(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Workflow projection queries
// ---------------------------------------------------------------------------

func (s *MongoStore) ActiveTask(ctx context.Context, userID string) (*Task, error) {
	var doc taskDoc
	err := s.tasks.FindOne(ctx, bson.M{
		"assignedTo": userID,
		"status":     TaskStatusActive,
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t := doc.toTask()
	return &t, nil
}

func (s *MongoStore) WaitingTasks(ctx context.Context, userID string) ([]Task, error) {
	return s.findTasks(ctx, bson.M{
		"assignedTo": userID,
		"status":     TaskStatusWaiting,
	}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (s *MongoStore) RecentHandoffs(ctx context.Context, userID string, limit int) ([]Task, error) {
	return s.findTasks(ctx, bson.M{
		"relayedFrom": userID,
		"status":      TaskStatusCompleted,
	}, options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetLimit(int64(limit)))
}

func (s *MongoStore) CountTasksByStatus(ctx context.Context, status string) (int64, error) {
	return s.tasks.CountDocuments(ctx, bson.M{"status": status})
}

func (s *MongoStore) CountUsers(ctx context.Context) (int64, error) {
	return s.users.CountDocuments(ctx, bson.M{})
}

func (s *MongoStore) findTasks(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Task, error) {
	cur, err := s.tasks.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.toTask())
	}
	return tasks, nil
}
