package model

import "time"

// User represents an application user record as stored in the
// `users` table. Accounts are created either through local
// registration (PasswordHash set) or through the Discord OAuth
// callback (Discord fields set); both paths may populate a single
// record over time. The json tags are omitted here because these
// structs are used by the repository layer; handlers define
// separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key, random hex assigned at first sign-in.
//  Name         – display name shown in loan listings.
//  Email        – email address (unique when present).
//  Image        – avatar URL (Discord CDN for OAuth accounts).
//  DiscordID    – Discord snowflake for OAuth-linked accounts.
//  Username     – Discord username.
//  DisplayName  – Discord global display name.
//  PasswordHash – bcrypt hash; empty for OAuth-only accounts.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           string    // users.id
    Name         string    // users.name
    Email        string    // users.email
    Image        *string   // users.image (nullable)
    DiscordID    *string   // users.discord_id (nullable)
    Username     *string   // users.username (nullable)
    DisplayName  *string   // users.display_name (nullable)
    PasswordHash string    // users.password_hash (empty for OAuth accounts)
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and carries metadata for expiry
// and revocation. The plain token is never stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    string     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
