package mongostore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tweetline/internal/apperror"
	"tweetline/internal/models"
)

var summaryProjection = bson.M{"_id": 1, "name": 1, "username": 1, "avatar": 1}

type userStore Store

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	if _, err := s.users.InsertOne(ctx, toUserDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Wrap(apperror.Conflict, err, "%s", duplicateMessage(err))
		}
		return storeError(err, "failed to create user")
	}
	return nil
}

func (s *userStore) findOne(ctx context.Context, what string, filter bson.M) (*models.User, error) {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.New(apperror.NotFound, "User not found")
		}
		return nil, storeError(err, "failed to load user by %s", what)
	}
	return doc.toModel(), nil
}

func (s *userStore) GetByID(ctx context.Context, userID string) (*models.User, error) {
	return s.findOne(ctx, "id", live(bson.M{"_id": userID}))
}

func (s *userStore) GetIncludingDeleted(ctx context.Context, userID string) (*models.User, error) {
	return s.findOne(ctx, "id", bson.M{"_id": userID})
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email", live(bson.M{"email": email}))
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, "username", live(bson.M{"username": username}))
}

func (s *userStore) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	if tokenHash == "" {
		return nil, apperror.New(apperror.NotFound, "User not found")
	}
	return s.findOne(ctx, "reset token", live(bson.M{
		"reset_password_token":   tokenHash,
		"reset_password_expires": bson.M{"$gt": now},
	}))
}

func (s *userStore) summaries(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.UserSummary, error) {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	cursor, err := s.users.Find(ctx, filter, opts.SetProjection(summaryProjection))
	if err != nil {
		return nil, storeError(err, "failed to load user summaries")
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError(err, "failed to decode user summaries")
	}

	summaries := make([]models.UserSummary, 0, len(docs))
	for i := range docs {
		summaries = append(summaries, docs[i].summary())
	}
	return summaries, nil
}

func (s *userStore) GetSummaries(ctx context.Context, userIDs []string) ([]models.UserSummary, error) {
	if len(userIDs) == 0 {
		return []models.UserSummary{}, nil
	}
	return s.summaries(ctx, live(bson.M{"_id": bson.M{"$in": userIDs}}), options.Find())
}

func (s *userStore) Search(ctx context.Context, name string, excludeID string) ([]models.UserSummary, error) {
	filter := live(bson.M{
		"_id":  bson.M{"$ne": excludeID},
		"name": bson.M{"$regex": regexp.QuoteMeta(name), "$options": "i"},
	})
	return s.summaries(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
}

func (s *userStore) update(ctx context.Context, userID string, update bson.M, what string) error {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	result, err := s.users.UpdateOne(ctx, live(bson.M{"_id": userID}), update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Wrap(apperror.Conflict, err, "%s", duplicateMessage(err))
		}
		return storeError(err, "failed to %s", what)
	}
	if result.MatchedCount == 0 {
		return apperror.New(apperror.NotFound, "User not found")
	}
	return nil
}

func (s *userStore) UpdateProfile(ctx context.Context, user *models.User) error {
	set := bson.M{
		"name":       user.Name,
		"email":      user.Email,
		"location":   user.Location,
		"updated_at": user.UpdatedAt,
	}
	unset := bson.M{}
	if user.DOB != nil {
		set["dob"] = user.DOB
	} else {
		unset["dob"] = ""
	}
	if user.Avatar != nil {
		set["avatar"] = toMediaDoc(user.Avatar)
	} else {
		unset["avatar"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return s.update(ctx, user.UserID, update, "update user")
}

func (s *userStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.update(ctx, userID, bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": time.Now()},
		"$unset": bson.M{"reset_password_token": "", "reset_password_expires": ""},
	}, "update password")
}

func (s *userStore) SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	if tokenHash == "" {
		return s.update(ctx, userID, bson.M{
			"$unset": bson.M{"reset_password_token": "", "reset_password_expires": ""},
		}, "clear reset token")
	}
	return s.update(ctx, userID, bson.M{
		"$set": bson.M{"reset_password_token": tokenHash, "reset_password_expires": expires},
	}, "store reset token")
}

func (s *userStore) MarkDeleted(ctx context.Context, userID string) error {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	_, err := s.users.UpdateOne(ctx, live(bson.M{"_id": userID}), bson.M{
		"$set":   bson.M{"deleted_at": time.Now()},
		"$unset": bson.M{"reset_password_token": "", "reset_password_expires": ""},
	})
	if err != nil {
		return storeError(err, "failed to mark user deleted")
	}
	return nil
}

func (s *userStore) Delete(ctx context.Context, userID string) error {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	if _, err := s.users.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return storeError(err, "failed to delete user")
	}
	return nil
}

type followStore Store

// flip toggles value in the array field of one document and returns the array afterwards.
func flip(ctx context.Context, coll *mongo.Collection, id, field, value string) ([]string, error) {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, bson.A{}}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: field, Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{value, current}}},
			bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: current},
				{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", value}}}},
			}}},
			bson.D{{Key: "$concatArrays", Value: bson.A{current, bson.A{value}}}},
		}}}}}}},
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{field: 1})

	var after bson.M
	if err := coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&after); err != nil {
		return nil, err
	}

	raw, _ := after[field].(bson.A)
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	return values, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *followStore) Toggle(ctx context.Context, followerID, followeeID string) (bool, error) {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	mu := (*Store)(s).edgeLock(followerID, followeeID)
	mu.Lock()
	defer mu.Unlock()

	n, err := s.users.CountDocuments(ctx, live(bson.M{"_id": followeeID}))
	if err != nil {
		return false, storeError(err, "failed to toggle follow")
	}
	if n == 0 {
		return false, apperror.New(apperror.NotFound, "User not found")
	}

	followings, err := flip(ctx, s.users, followerID, "followings", followeeID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, apperror.New(apperror.NotFound, "User not found")
		}
		return false, storeError(err, "failed to toggle follow")
	}

	following := contains(followings, followeeID)
	mirror := bson.M{"$pull": bson.M{"followers": followerID}}
	if following {
		mirror = bson.M{"$addToSet": bson.M{"followers": followerID}}
	}

	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": followeeID}, mirror); err != nil {
		return false, storeError(err, "failed to mirror follow edge")
	}

	return following, nil
}

func (s *followStore) edge(ctx context.Context, userID, field string) ([]string, error) {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"_id": userID}, options.FindOne().SetProjection(bson.M{field: 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []string{}, nil
		}
		return nil, storeError(err, "failed to load follow edges")
	}

	if field == "followers" {
		return orEmpty(doc.Followers), nil
	}
	return orEmpty(doc.Followings), nil
}

func (s *followStore) Followers(ctx context.Context, userID string) ([]string, error) {
	return s.edge(ctx, userID, "followers")
}

func (s *followStore) Followings(ctx context.Context, userID string) ([]string, error) {
	return s.edge(ctx, userID, "followings")
}

func (s *followStore) RemoveUser(ctx context.Context, userID string) error {
	ctx, cancel := (*Store)(s).bound(ctx)
	defer cancel()

	if _, err := s.users.UpdateMany(ctx, bson.M{"followers": userID}, bson.M{"$pull": bson.M{"followers": userID}}); err != nil {
		return storeError(err, "failed to remove follower edges")
	}
	if _, err := s.users.UpdateMany(ctx, bson.M{"followings": userID}, bson.M{"$pull": bson.M{"followings": userID}}); err != nil {
		return storeError(err, "failed to remove following edges")
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$set": bson.M{"followers": bson.A{}, "followings": bson.A{}}})
	if err != nil {
		return storeError(err, "failed to clear follow edges")
	}
	return nil
}
