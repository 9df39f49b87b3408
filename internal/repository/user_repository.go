package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/loan-ledger/internal/model"
	"github.com/iliyamo/loan-ledger/internal/utils"
)

// UserRepo provides persistence for user accounts. User IDs are random
// hex strings generated at insert time so that both local registration
// and the Discord OAuth callback produce the same shape of record.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,image,discord_id,username,display_name,password_hash,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u    model.User
		hash sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.DiscordID,
		&u.Username, &u.DisplayName, &hash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash = hash.String
	return u, nil
}

// Create inserts a local account and returns its generated ID.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id, err := utils.NewID()
	if err != nil {
		return "", err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash) VALUES (?,?,?,?)",
		id, name, email, hash)
	if err != nil {
		// MySQL error 1062: duplicate entry on the unique email index.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// DiscordProfile carries the fields mapped from Discord's /users/@me
// response that the upsert persists.
type DiscordProfile struct {
	DiscordID   string  // stable snowflake, the upsert key
	Username    string  // discord username
	DisplayName string  // global display name (may equal Username)
	Email       string  // may be empty when the email scope is missing
	Image       *string // CDN avatar URL, nil when the user has none
}

// UpsertDiscord creates a user on first Discord sign-in or refreshes
// the profile fields of an existing one, keyed by discord_id. It
// returns the full record either way. The user's ID never changes
// after the first insert.
func (r *UserRepo) UpsertDiscord(ctx context.Context, p DiscordProfile) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE discord_id=? LIMIT 1", p.DiscordID))
	switch {
	case err == nil:
		_, err = r.DB.ExecContext(ctx,
			"UPDATE users SET name=?, username=?, display_name=?, image=?, email=IF(?='',email,?) WHERE id=?",
			p.DisplayName, p.Username, p.DisplayName, p.Image, p.Email, strings.ToLower(p.Email), u.ID)
		if err != nil {
			return model.User{}, err
		}
		return r.GetByID(ctx, u.ID)
	case err == sql.ErrNoRows:
		id, idErr := utils.NewID()
		if idErr != nil {
			return model.User{}, idErr
		}
		_, err = r.DB.ExecContext(ctx,
			"INSERT INTO users (id, name, email, image, discord_id, username, display_name) VALUES (?,?,?,?,?,?,?)",
			id, p.DisplayName, strings.ToLower(p.Email), p.Image, p.DiscordID, p.Username, p.DisplayName)
		if err != nil {
			return model.User{}, err
		}
		return r.GetByID(ctx, id)
	default:
		return model.User{}, err
	}
}
