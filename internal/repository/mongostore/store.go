// Package mongostore keeps users and tweets as documents with embedded id arrays,
// close to how the social graph is read back.
package mongostore

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"tweetline/internal/apperror"
	"tweetline/internal/repository"
)

const (
	usersCollection  = "users"
	tweetsCollection = "tweets"

	edgeStripes = 256
)

type Store struct {
	users   *mongo.Collection
	tweets  *mongo.Collection
	client  *mongo.Client
	timeout time.Duration

	// edge locks serialize the two writes of a follow toggle within the process;
	// pairs share a fixed set of stripes
	edges [edgeStripes]sync.Mutex
}

func New(db *mongo.Database, timeout time.Duration) *Store {
	return &Store{
		users:   db.Collection(usersCollection),
		tweets:  db.Collection(tweetsCollection),
		client:  db.Client(),
		timeout: timeout,
	}
}

func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		User:    (*userStore)(s),
		Follow:  (*followStore)(s),
		Tweet:   (*tweetStore)(s),
		Comment: (*commentStore)(s),
		Health:  (*healthStore)(s),
	}
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// edgeLock returns the stripe guarding the unordered pair.
func (s *Store) edgeLock(followerID, followeeID string) *sync.Mutex {
	a, b := followerID, followeeID
	if b < a {
		a, b = b, a
	}
	h := fnv.New32a()
	h.Write([]byte(a))
	h.Write([]byte{0})
	h.Write([]byte(b))
	return &s.edges[h.Sum32()%edgeStripes]
}

// live narrows a user filter to accounts not marked deleted.
func live(filter bson.M) bson.M {
	filter["deleted_at"] = bson.M{"$exists": false}
	return filter
}

func storeError(err error, format string, args ...any) error {
	if mongo.IsDuplicateKeyError(err) {
		return apperror.Wrap(apperror.Conflict, err, format, args...)
	}
	return apperror.FromStore(err, format, args...)
}

func duplicateMessage(err error) string {
	if strings.Contains(err.Error(), "username") {
		return "username already exists"
	}
	return "user already exists"
}

type healthStore Store

func (s *healthStore) Ping(ctx context.Context) error {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return apperror.FromStore(err, "mongo ping failed")
	}
	return nil
}
