/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/store"
)

// UpsertUser creates the account document if it does not exist and
// refreshes the profile in place if it does.
func (db *DB) UpsertUser(ctx context.Context, id string, profile store.Profile) (*store.User, error) {
	if id == "" {
		return nil, apperror.Validation("id", "user id is required")
	}
	now := db.now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, display_name, avatar_url, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url,
			email = excluded.email,
			updated_at = excluded.updated_at`,
		id, profile.DisplayName, profile.AvatarURL, profile.Email, now, now,
	)
	if err != nil {
		return nil, apperror.Store(fmt.Errorf("upserting user: %w", err))
	}
	return db.GetUser(ctx, id)
}

// GetUser loads the account document including any stored credentials.
func (db *DB) GetUser(ctx context.Context, id string) (*store.User, error) {
	var u store.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, display_name, avatar_url, email, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Profile.DisplayName, &u.Profile.AvatarURL,
		&u.Profile.Email, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, apperror.Store(fmt.Errorf("loading user: %w", err))
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT provider, access_token, refresh_token, token_type, expires_at, updated_at
		 FROM connections WHERE user_id = ?`, id)
	if err != nil {
		return nil, apperror.Store(fmt.Errorf("loading connections: %w", err))
	}
	defer rows.Close()
	for rows.Next() {
		var (
			provider, access, refresh, tokenType string
			expiresAt, updatedAt                 int64
		)
		if err := rows.Scan(&provider, &access, &refresh, &tokenType, &expiresAt, &updatedAt); err != nil {
			return nil, apperror.Store(fmt.Errorf("scanning connection: %w", err))
		}
		switch provider {
		case "github":
			u.GitHub = &store.GitHubCredential{AccessToken: access}
		case "social":
			u.Social = &store.SocialCredential{
				AccessToken:  access,
				RefreshToken: refresh,
				TokenType:    tokenType,
				ExpiresAt:    expiresAt,
				UpdatedAt:    updatedAt,
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Store(fmt.Errorf("iterating connections: %w", err))
	}
	return &u, nil
}

// SetGitHubCredential stores or replaces the github connection.
func (db *DB) SetGitHubCredential(ctx context.Context, userID string, cred store.GitHubCredential) error {
	if cred.AccessToken == "" {
		return apperror.Validation("accessToken", "github credential requires an access token")
	}
	return db.putConnection(ctx, userID, "github", cred.AccessToken, "", "", 0, db.now().UnixMilli())
}

// SetSocialCredential stores or replaces the social connection. The full
// quadruple is persisted atomically so a crash never leaves a new access
// token paired with a stale refresh token.
func (db *DB) SetSocialCredential(ctx context.Context, userID string, cred store.SocialCredential) error {
	if err := cred.Validate(); err != nil {
		return err
	}
	updatedAt := cred.UpdatedAt
	if updatedAt == 0 {
		updatedAt = db.now().UnixMilli()
	}
	return db.putConnection(ctx, userID, "social",
		cred.AccessToken, cred.RefreshToken, cred.TokenType, cred.ExpiresAt, updatedAt)
}

func (db *DB) putConnection(ctx context.Context, userID, provider, access, refresh, tokenType string, expiresAt, updatedAt int64) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO connections (user_id, provider, access_token, refresh_token, token_type, expires_at, updated_at)
		 SELECT id, ?, ?, ?, ?, ?, ? FROM users WHERE id = ?
		 ON CONFLICT(user_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		provider, access, refresh, tokenType, expiresAt, updatedAt, userID,
	)
	if err != nil {
		return apperror.Store(fmt.Errorf("storing %s connection: %w", provider, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("user", userID)
	}
	db.touchUser(ctx, userID, db.now())
	return nil
}

// touchUser bumps updated_at after a credential write; failures are
// swallowed since the credential itself already landed.
func (db *DB) touchUser(ctx context.Context, userID string, at time.Time) {
	_, _ = db.conn.ExecContext(ctx,
		`UPDATE users SET updated_at = ? WHERE id = ?`, at.UTC(), userID)
}
