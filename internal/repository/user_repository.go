package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"tweetline/internal/apperror"
	"tweetline/internal/models"
)

type userRepository struct {
	base
}

type userRow struct {
	UserID               string         `db:"user_id"`
	Name                 string         `db:"name"`
	Username             string         `db:"username"`
	Email                string         `db:"email"`
	PasswordHash         string         `db:"password_hash"`
	AvatarPublicID       sql.NullString `db:"avatar_public_id"`
	AvatarURL            sql.NullString `db:"avatar_url"`
	Location             string         `db:"location"`
	DOB                  sql.NullTime   `db:"dob"`
	ResetPasswordToken   sql.NullString `db:"reset_password_token"`
	ResetPasswordExpires sql.NullTime   `db:"reset_password_expires"`
	DeletedAt            sql.NullTime   `db:"deleted_at"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
	TweetIDs             pq.StringArray `db:"tweet_ids"`
	FollowerIDs          pq.StringArray `db:"follower_ids"`
	FollowingIDs         pq.StringArray `db:"following_ids"`
}

type summaryRow struct {
	UserID         string         `db:"user_id"`
	Name           string         `db:"name"`
	Username       string         `db:"username"`
	AvatarPublicID sql.NullString `db:"avatar_public_id"`
	AvatarURL      sql.NullString `db:"avatar_url"`
}

// selectUser returns the user row with its tweet index and both edge lists in one round trip.
const selectUser = `
	SELECT u.user_id, u.name, u.username, u.email, u.password_hash,
		u.avatar_public_id, u.avatar_url, u.location, u.dob,
		u.reset_password_token, u.reset_password_expires, u.deleted_at, u.created_at, u.updated_at,
		ARRAY(SELECT t.tweet_id FROM tweets t WHERE t.owner_id = u.user_id ORDER BY t.created_at, t.tweet_id) AS tweet_ids,
		ARRAY(SELECT f.follower_id FROM follows f WHERE f.followee_id = u.user_id ORDER BY f.created_at) AS follower_ids,
		ARRAY(SELECT f.followee_id FROM follows f WHERE f.follower_id = u.user_id ORDER BY f.created_at) AS following_ids
	FROM users u`

func media(publicID, url sql.NullString) *models.Media {
	if !publicID.Valid || publicID.String == "" {
		return nil
	}
	return &models.Media{PublicID: publicID.String, URL: url.String}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (row *userRow) toModel() *models.User {
	user := &models.User{
		UserID:               row.UserID,
		Name:                 row.Name,
		Username:             row.Username,
		Email:                row.Email,
		PasswordHash:         row.PasswordHash,
		Avatar:               media(row.AvatarPublicID, row.AvatarURL),
		Tweets:               []string(row.TweetIDs),
		Followers:            []string(row.FollowerIDs),
		Followings:           []string(row.FollowingIDs),
		Location:             row.Location,
		DOB:                  timePtr(row.DOB),
		ResetPasswordToken:   row.ResetPasswordToken.String,
		ResetPasswordExpires: timePtr(row.ResetPasswordExpires),
		DeletedAt:            timePtr(row.DeletedAt),
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
	if user.Tweets == nil {
		user.Tweets = []string{}
	}
	if user.Followers == nil {
		user.Followers = []string{}
	}
	if user.Followings == nil {
		user.Followings = []string{}
	}
	return user
}

func fromUser(user *models.User) *userRow {
	row := &userRow{
		UserID:               user.UserID,
		Name:                 user.Name,
		Username:             user.Username,
		Email:                user.Email,
		PasswordHash:         user.PasswordHash,
		Location:             user.Location,
		DOB:                  nullTime(user.DOB),
		ResetPasswordToken:   nullString(user.ResetPasswordToken),
		ResetPasswordExpires: nullTime(user.ResetPasswordExpires),
		CreatedAt:            user.CreatedAt,
		UpdatedAt:            user.UpdatedAt,
	}
	if user.Avatar != nil {
		row.AvatarPublicID = nullString(user.Avatar.PublicID)
		row.AvatarURL = nullString(user.Avatar.URL)
	}
	return row
}

func conflictMessage(err error) string {
	if pqErr, ok := pqCode(err); ok && strings.Contains(pqErr.Constraint, "username") {
		return "username already exists"
	}
	return "user already exists"
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		INSERT INTO users (user_id, name, username, email, password_hash, avatar_public_id, avatar_url,
			location, dob, created_at, updated_at)
		VALUES (:user_id, :name, :username, :email, :password_hash, :avatar_public_id, :avatar_url,
			:location, :dob, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, fromUser(user))
	if err != nil {
		return storeError(err, "%s", conflictMessage(err))
	}

	return nil
}

func (r *userRepository) getOne(ctx context.Context, what, where string, arg ...any) (*models.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var row userRow
	err := r.db.GetContext(ctx, &row, selectUser+" WHERE "+where, arg...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.NotFound, "User not found")
		}
		return nil, storeError(err, "failed to load user by %s", what)
	}

	return row.toModel(), nil
}

const liveUser = " AND u.deleted_at IS NULL"

func (r *userRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	return r.getOne(ctx, "id", "u.user_id = $1"+liveUser, userID)
}

func (r *userRepository) GetIncludingDeleted(ctx context.Context, userID string) (*models.User, error) {
	return r.getOne(ctx, "id", "u.user_id = $1", userID)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email", "u.email = $1"+liveUser, email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username", "u.username = $1"+liveUser, username)
}

func (r *userRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return r.getOne(ctx, "reset token", "u.reset_password_token = $1 AND u.reset_password_expires > $2"+liveUser, tokenHash, now)
}

func (r *userRepository) GetSummaries(ctx context.Context, userIDs []string) ([]models.UserSummary, error) {
	if len(userIDs) == 0 {
		return []models.UserSummary{}, nil
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `SELECT user_id, name, username, avatar_public_id, avatar_url FROM users WHERE user_id = ANY($1) AND deleted_at IS NULL`

	var rows []summaryRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(userIDs)); err != nil {
		return nil, storeError(err, "failed to load user summaries")
	}

	return toSummaries(rows), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *userRepository) Search(ctx context.Context, name string, excludeID string) ([]models.UserSummary, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		SELECT user_id, name, username, avatar_public_id, avatar_url FROM users
		WHERE user_id <> $1 AND deleted_at IS NULL AND name ILIKE '%' || $2 || '%'
		ORDER BY name, user_id
	`

	var rows []summaryRow
	if err := r.db.SelectContext(ctx, &rows, query, excludeID, likeEscaper.Replace(name)); err != nil {
		return nil, storeError(err, "failed to search users")
	}

	return toSummaries(rows), nil
}

func toSummaries(rows []summaryRow) []models.UserSummary {
	summaries := make([]models.UserSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, models.UserSummary{
			UserID:   row.UserID,
			Name:     row.Name,
			Username: row.Username,
			Avatar:   media(row.AvatarPublicID, row.AvatarURL),
		})
	}
	return summaries
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		UPDATE users
		SET name = :name, email = :email, location = :location, dob = :dob,
			avatar_public_id = :avatar_public_id, avatar_url = :avatar_url, updated_at = :updated_at
		WHERE user_id = :user_id AND deleted_at IS NULL
	`

	result, err := r.db.NamedExecContext(ctx, query, fromUser(user))
	if err != nil {
		return storeError(err, "%s", conflictMessage(err))
	}

	return requireRow(result, "User not found")
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		UPDATE users
		SET password_hash = $1, reset_password_token = NULL, reset_password_expires = NULL, updated_at = $2
		WHERE user_id = $3 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), userID)
	if err != nil {
		return storeError(err, "failed to update password")
	}

	return requireRow(result, "User not found")
}

func (r *userRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `UPDATE users SET reset_password_token = $1, reset_password_expires = $2 WHERE user_id = $3 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, nullString(tokenHash), nullTime(timeOrNil(expires)), userID)
	if err != nil {
		return storeError(err, "failed to store reset token")
	}

	return requireRow(result, "User not found")
}

func (r *userRepository) MarkDeleted(ctx context.Context, userID string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		UPDATE users
		SET deleted_at = $1, reset_password_token = NULL, reset_password_expires = NULL
		WHERE user_id = $2 AND deleted_at IS NULL
	`

	if _, err := r.db.ExecContext(ctx, query, time.Now(), userID); err != nil {
		return storeError(err, "failed to mark user deleted")
	}

	return nil
}

func (r *userRepository) Delete(ctx context.Context, userID string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, userID); err != nil {
		return storeError(err, "failed to delete user")
	}

	return nil
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func requireRow(result sql.Result, notFound string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError(err, "failed to check affected rows")
	}

	if rowsAffected == 0 {
		return apperror.New(apperror.NotFound, "%s", notFound)
	}

	return nil
}
