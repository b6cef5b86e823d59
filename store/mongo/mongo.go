// Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package mongo implements the store contract on a MongoDB database.
// Each tenant gets its own database; collections map one-to-one to the
// logical collections of the data layer.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
)

const defaultOpTimeout = 10 * time.Second

// Options configures a Mongo-backed store.
type Options struct {
	Client   *mongodriver.Client
	Database string
	Timeout  time.Duration
}

type mongoStore struct {
	client   *mongodriver.Client
	database *mongodriver.Database
	timeout  time.Duration

	mu      sync.Mutex
	indexed map[string]bool
}

var _ store.Store = (*mongoStore)(nil)

// Connect dials the MongoDB deployment at uri and verifies connectivity.
func Connect(ctx context.Context, uri string) (*mongodriver.Client, error) {
	client, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// NewStore builds a store over the given Mongo client and database.
func NewStore(opts Options) (store.Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &mongoStore{
		client:   opts.Client,
		database: opts.Client.Database(opts.Database),
		timeout:  timeout,
		indexed:  make(map[string]bool),
	}, nil
}

func (s *mongoStore) Store(ctx context.Context, ti store.TypeInfo, doc store.Document) (string, error) {
	id := store.DocumentID(doc, ti.IDField)
	if id == "" {
		return "", fmt.Errorf("document missing %s", ti.IDField)
	}
	coll, err := s.collection(ctx, ti)
	if err != nil {
		return "", err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := coll.InsertOne(ctx, bson.M(doc)); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%s %q in %s: %w", ti.IDField, id, ti.Collection, store.ErrDuplicate)
		}
		return "", fmt.Errorf("failed to insert into %s: %w", ti.Collection, err)
	}
	return id, nil
}

func (s *mongoStore) Retrieve(ctx context.Context, ti store.TypeInfo, idField, idValue string) (store.Document, error) {
	coll, err := s.collection(ctx, ti)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var raw bson.M
	if err := coll.FindOne(ctx, bson.M{idField: idValue}).Decode(&raw); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from %s: %w", ti.Collection, err)
	}
	return normalizeDocument(raw), nil
}

func (s *mongoStore) Search(ctx context.Context, ti store.TypeInfo, q store.Query) ([]store.Document, error) {
	coll, err := s.collection(ctx, ti)
	if err != nil {
		return nil, err
	}
	findOpts := options.Find()
	if q.Sort != nil {
		dir := 1
		if q.Sort.Desc {
			dir = -1
		}
		findOpts.SetSort(bson.D{{Key: q.Sort.Field, Value: dir}})
	}
	if q.Limit > 0 {
		findOpts.SetLimit(int64(q.Limit))
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cursor, err := coll.Find(ctx, translateFilters(q.Filters), findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", ti.Collection, err)
	}
	defer cursor.Close(ctx)
	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode %s results: %w", ti.Collection, err)
	}
	docs := make([]store.Document, len(raws))
	for i, raw := range raws {
		docs[i] = normalizeDocument(raw)
	}
	return docs, nil
}

func (s *mongoStore) Update(ctx context.Context, ti store.TypeInfo, idField, idValue string, doc store.Document) (bool, error) {
	coll, err := s.collection(ctx, ti)
	if err != nil {
		return false, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := coll.ReplaceOne(ctx, bson.M{idField: idValue}, bson.M(doc))
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", ti.Collection, err)
	}
	return res.MatchedCount > 0, nil
}

func (s *mongoStore) Delete(ctx context.Context, ti store.TypeInfo, idField, idValue string) (bool, error) {
	coll, err := s.collection(ctx, ti)
	if err != nil {
		return false, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := coll.DeleteOne(ctx, bson.M{idField: idValue})
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", ti.Collection, err)
	}
	return res.DeletedCount > 0, nil
}

func (s *mongoStore) BulkStore(ctx context.Context, ti store.TypeInfo, docs []store.Document, ignoreDuplicates bool) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	coll, err := s.collection(ctx, ti)
	if err != nil {
		return nil, err
	}
	payload := make([]any, len(docs))
	for i, doc := range docs {
		payload[i] = bson.M(doc)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	// Unordered insert keeps independent documents flowing when some fail.
	_, err = coll.InsertMany(ctx, payload, options.InsertMany().SetOrdered(false))
	failed := make(map[int]error)
	if err != nil {
		var bwe mongodriver.BulkWriteException
		if !errors.As(err, &bwe) {
			return nil, fmt.Errorf("failed to bulk insert into %s: %w", ti.Collection, err)
		}
		for _, we := range bwe.WriteErrors {
			id := store.DocumentID(docs[we.Index], ti.IDField)
			if we.Code == 11000 {
				if ignoreDuplicates {
					failed[we.Index] = nil
					continue
				}
				failed[we.Index] = fmt.Errorf("%s %q in %s: %w", ti.IDField, id, ti.Collection, store.ErrDuplicate)
				continue
			}
			failed[we.Index] = fmt.Errorf("failed to insert %s %q into %s: %v", ti.IDField, id, ti.Collection, we.Message)
		}
	}
	stored := make([]string, 0, len(docs))
	var errs []error
	for i, doc := range docs {
		failure, skipped := failed[i]
		if !skipped {
			stored = append(stored, store.DocumentID(doc, ti.IDField))
			continue
		}
		if failure != nil {
			errs = append(errs, failure)
		}
	}
	return stored, errors.Join(errs...)
}

func (s *mongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// collection returns the driver collection, creating the unique identity
// index on first access.
func (s *mongoStore) collection(ctx context.Context, ti store.TypeInfo) (*mongodriver.Collection, error) {
	coll := s.database.Collection(ti.Collection)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexed[ti.Collection] {
		return coll, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	index := mongodriver.IndexModel{
		Keys:    bson.D{{Key: ti.IDField, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
		return nil, fmt.Errorf("failed to ensure index on %s.%s: %w", ti.Collection, ti.IDField, err)
	}
	s.indexed[ti.Collection] = true
	return coll, nil
}

func (s *mongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.timeout)
}

// translateFilters converts the store query operators into a Mongo filter
// document.
func translateFilters(filters map[string]store.Filter) bson.M {
	out := bson.M{}
	for field, f := range filters {
		switch f.Op {
		case store.OpEqual:
			out[field] = f.Value
		case store.OpNotEqual:
			out[field] = bson.M{"$ne": f.Value}
		case store.OpGreaterEqual:
			out[field] = bson.M{"$gte": f.Value}
		case store.OpLessEqual:
			out[field] = bson.M{"$lte": f.Value}
		case store.OpEqualsMany:
			out[field] = bson.M{"$in": f.Value}
		case store.OpArrayContains:
			// Mongo equality against an array field matches any member.
			out[field] = f.Value
		}
	}
	return out
}

// normalizeDocument rewrites driver types (bson.M, bson.A) into the plain
// map and slice shapes the rest of the data layer works with, and drops the
// synthetic _id field.
func normalizeDocument(raw bson.M) store.Document {
	doc := make(store.Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		doc[k] = normalizeValue(v)
	}
	return doc
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeValue(e)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}
