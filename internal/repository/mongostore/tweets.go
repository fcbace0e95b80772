package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tweetline/internal/apperror"
	"tweetline/internal/models"
)

type tweetStore Store

// Create inserts the tweet, then indexes it on the owner. If the owner is gone the
// tweet is removed again so the two never disagree.
func (s *tweetStore) Create(ctx context.Context, tweet *models.Tweet) error {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	if _, err := s.tweets.InsertOne(ctx, toTweetDoc(tweet)); err != nil {
		return storeError(err, "failed to create tweet")
	}

	result, err := s.users.UpdateOne(ctx, bson.M{"_id": tweet.OwnerID},
		bson.M{"$addToSet": bson.M{"tweets": tweet.TweetID}})
	if err == nil && result.MatchedCount == 1 {
		return nil
	}

	if _, delErr := s.tweets.DeleteOne(ctx, bson.M{"_id": tweet.TweetID}); delErr != nil {
		return storeError(delErr, "failed to roll back tweet")
	}
	if err != nil {
		return storeError(err, "failed to index tweet under owner")
	}
	return apperror.New(apperror.NotFound, "User not found")
}

func (s *tweetStore) GetByID(ctx context.Context, tweetID string) (*models.Tweet, error) {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	var doc tweetDoc
	if err := s.tweets.FindOne(ctx, bson.M{"_id": tweetID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.New(apperror.NotFound, "Tweet not found")
		}
		return nil, storeError(err, "failed to load tweet")
	}
	return doc.toModel(), nil
}

func (s *tweetStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Tweet, error) {
	return s.ListByOwners(ctx, []string{ownerID})
}

func (s *tweetStore) ListByOwners(ctx context.Context, ownerIDs []string) ([]*models.Tweet, error) {
	if len(ownerIDs) == 0 {
		return []*models.Tweet{}, nil
	}

	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.tweets.Find(ctx, bson.M{"owner_id": bson.M{"$in": ownerIDs}}, opts)
	if err != nil {
		return nil, storeError(err, "failed to list tweets")
	}
	defer cursor.Close(ctx)

	var docs []tweetDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError(err, "failed to decode tweets")
	}

	tweets := make([]*models.Tweet, 0, len(docs))
	for i := range docs {
		tweets = append(tweets, docs[i].toModel())
	}
	return tweets, nil
}

func (s *tweetStore) UpdateContent(ctx context.Context, tweetID, content string) error {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	result, err := s.tweets.UpdateOne(ctx, bson.M{"_id": tweetID},
		bson.M{"$set": bson.M{"content": content, "updated_at": time.Now()}})
	if err != nil {
		return storeError(err, "failed to update tweet")
	}
	if result.MatchedCount == 0 {
		return apperror.New(apperror.NotFound, "Tweet not found")
	}
	return nil
}

func (s *tweetStore) Delete(ctx context.Context, tweetID string) error {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	var doc tweetDoc
	err := s.tweets.FindOneAndDelete(ctx, bson.M{"_id": tweetID},
		options.FindOneAndDelete().SetProjection(bson.M{"owner_id": 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil
		}
		return storeError(err, "failed to delete tweet")
	}

	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": doc.OwnerID},
		bson.M{"$pull": bson.M{"tweets": tweetID}}); err != nil {
		return storeError(err, "failed to un-index tweet")
	}
	return nil
}

func (s *tweetStore) DeleteByOwner(ctx context.Context, ownerID string) error {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	if _, err := s.tweets.DeleteMany(ctx, bson.M{"owner_id": ownerID}); err != nil {
		return storeError(err, "failed to delete tweets of user")
	}
	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": ownerID},
		bson.M{"$set": bson.M{"tweets": bson.A{}}}); err != nil {
		return storeError(err, "failed to clear tweet index")
	}
	return nil
}

// ToggleLike flips the like inside a single pipeline update, which the server applies atomically.
func (s *tweetStore) ToggleLike(ctx context.Context, tweetID, userID string) (bool, error) {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	likes, err := flip(ctx, s.tweets, tweetID, "likes", userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, apperror.New(apperror.NotFound, "Tweet not found")
		}
		return false, storeError(err, "failed to toggle like")
	}
	return contains(likes, userID), nil
}

type commentStore Store

const upsertAttempts = 3

// Upsert first rewrites an existing comment by the author, and otherwise pushes a new one
// guarded on the author not having commented yet. Losing that race retries the rewrite.
func (s *commentStore) Upsert(ctx context.Context, tweetID, authorID, text string) (*models.Comment, bool, error) {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	for attempt := 0; attempt < upsertAttempts; attempt++ {
		comment, err := s.rewrite(ctx, tweetID, authorID, text)
		if err != nil {
			return nil, false, err
		}
		if comment != nil {
			return comment, false, nil
		}

		doc := commentDoc{ID: uuid.New().String(), AuthorID: authorID, Text: text, CreatedAt: time.Now()}
		result, err := s.tweets.UpdateOne(ctx,
			bson.M{"_id": tweetID, "comments.author_id": bson.M{"$ne": authorID}},
			bson.M{"$push": bson.M{"comments": doc}})
		if err != nil {
			return nil, false, storeError(err, "failed to add comment")
		}
		if result.MatchedCount == 1 {
			c := doc.toModel()
			return &c, true, nil
		}

		n, err := s.tweets.CountDocuments(ctx, bson.M{"_id": tweetID})
		if err != nil {
			return nil, false, storeError(err, "failed to add comment")
		}
		if n == 0 {
			return nil, false, apperror.New(apperror.NotFound, "Tweet not found")
		}
	}

	return nil, false, apperror.New(apperror.Upstream, "failed to save comment: too much contention")
}

func (s *commentStore) rewrite(ctx context.Context, tweetID, authorID, text string) (*models.Comment, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"comments.$": 1})

	var doc tweetDoc
	err := s.tweets.FindOneAndUpdate(ctx,
		bson.M{"_id": tweetID, "comments.author_id": authorID},
		bson.M{"$set": bson.M{"comments.$.text": text}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, storeError(err, "failed to update comment")
	}

	if len(doc.Comments) == 0 {
		return &models.Comment{AuthorID: authorID, Text: text}, nil
	}
	c := doc.Comments[0].toModel()
	return &c, nil
}

func (s *commentStore) pull(ctx context.Context, tweetID string, match bson.M) (bool, error) {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	result, err := s.tweets.UpdateOne(ctx, bson.M{"_id": tweetID}, bson.M{"$pull": bson.M{"comments": match}})
	if err != nil {
		return false, storeError(err, "failed to delete comment")
	}
	return result.ModifiedCount > 0, nil
}

func (s *commentStore) DeleteByID(ctx context.Context, tweetID, commentID string) (bool, error) {
	return s.pull(ctx, tweetID, bson.M{"comment_id": commentID})
}

func (s *commentStore) DeleteByAuthor(ctx context.Context, tweetID, authorID string) (bool, error) {
	return s.pull(ctx, tweetID, bson.M{"author_id": authorID})
}

func (s *commentStore) DeleteAllByAuthor(ctx context.Context, authorID string) (int64, error) {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	result, err := s.tweets.UpdateMany(ctx,
		bson.M{"comments.author_id": authorID},
		bson.M{"$pull": bson.M{"comments": bson.M{"author_id": authorID}}})
	if err != nil {
		return 0, storeError(err, "failed to delete comments of user")
	}
	return result.ModifiedCount, nil
}

func (s *commentStore) AddReply(ctx context.Context, tweetID string, reply *models.Reply) error {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	if reply.ReplyID == "" {
		reply.ReplyID = uuid.New().String()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}

	doc := replyDoc{ID: reply.ReplyID, AuthorID: reply.AuthorID, Text: reply.Text, CreatedAt: reply.CreatedAt}
	result, err := s.tweets.UpdateOne(ctx, bson.M{"_id": tweetID}, bson.M{"$push": bson.M{"replies": doc}})
	if err != nil {
		return storeError(err, "failed to add reply")
	}
	if result.MatchedCount == 0 {
		return apperror.New(apperror.NotFound, "Tweet not found")
	}
	return nil
}
