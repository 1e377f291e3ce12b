// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/socialite/internal/platform/apperr"
	"github.com/taibuivan/socialite/internal/platform/database/schema"
	"github.com/taibuivan/socialite/internal/platform/dberr"
	"github.com/taibuivan/socialite/internal/platform/postgres"
)

// # User Repository

// PostgresUserRepository implements [UserRepository] on users.account and
// users.federatedidentity.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// selectUser reads every account column; a nullable email or hash scans as "".
var selectUser = fmt.Sprintf(`
	SELECT a.%s, a.%s, COALESCE(a.%s, ''), COALESCE(a.%s, ''), a.%s, a.%s, a.%s, a.%s
	FROM %s a`,
	schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.Email,
	schema.UserAccount.PasswordHash, schema.UserAccount.DisplayName, schema.UserAccount.Role,
	schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	schema.UserAccount.Table,
)

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, err
	}
	return user, nil
}

/*
FindByID retrieves an identity by primary key.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *User: Hydrated identity
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := selectUser + fmt.Sprintf(` WHERE a.%s = $1`, schema.UserAccount.ID)

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}
	return user, nil
}

/*
FindByEmail retrieves an identity by its normalized email.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated identity
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := selectUser + fmt.Sprintf(` WHERE a.%s = $1`, schema.UserAccount.Email)

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}
	return user, nil
}

/*
FindByUsername retrieves an identity by username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated identity
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	query := selectUser + fmt.Sprintf(` WHERE a.%s = $1`, schema.UserAccount.Username)

	user, err := scanUser(repository.pool.QueryRow(context, query, username))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_username_failed: %w", err)
	}
	return user, nil
}

/*
FindByProvider retrieves the identity linked to an external account.

Parameters:
  - context: context.Context
  - provider: string
  - subject: string

Returns:
  - *User: Hydrated identity
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresUserRepository) FindByProvider(context context.Context, provider, subject string) (*User, error) {
	query := selectUser + fmt.Sprintf(`
		JOIN %s f ON f.%s = a.%s
		WHERE f.%s = $1 AND f.%s = $2`,
		schema.FederatedIdentity.Table, schema.FederatedIdentity.UserID, schema.UserAccount.ID,
		schema.FederatedIdentity.Provider, schema.FederatedIdentity.Subject,
	)

	user, err := scanUser(repository.pool.QueryRow(context, query, provider, subject))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_provider_failed: %w", err)
	}
	return user, nil
}

/*
Create inserts the account row and, for federated sign-ups, the provider link
in one transaction.

Parameters:
  - context: context.Context
  - user: *User
  - link: *ProviderLink

Returns:
  - error: ErrEmailTaken, ErrUsernameTaken, ErrProviderLinked or persistence failures
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User, link *ProviderLink) error {
	if err := validateNew(user, link); err != nil {
		return err
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	insertAccount := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8)`,
		schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.Email,
		schema.UserAccount.PasswordHash, schema.UserAccount.DisplayName, schema.UserAccount.Role,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)

	err := postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(context, insertAccount,
			user.ID,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.DisplayName,
			user.Role,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			return err
		}

		if link != nil {
			return insertLink(context, tx, user.ID, *link, now)
		}
		return nil
	})

	if err != nil {
		if conflict := mapConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
LinkProvider attaches an external account to an existing identity.

Parameters:
  - context: context.Context
  - userID: string
  - link: ProviderLink

Returns:
  - error: ErrProviderLinked or persistence failures
*/
func (repository *PostgresUserRepository) LinkProvider(context context.Context, userID string, link ProviderLink) error {
	if err := insertLink(context, repository.pool, userID, link, time.Now().UTC()); err != nil {
		if conflict := mapConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("postgres_user_repo_link_provider_failed: %w", err)
	}
	return nil
}

/*
ListProviders returns the external accounts linked to an identity, oldest first.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []ProviderLink: Linked accounts
  - error: Retrieval failures
*/
func (repository *PostgresUserRepository) ListProviders(context context.Context, userID string) ([]ProviderLink, error) {
	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = $1 ORDER BY %s`,
		schema.FederatedIdentity.Provider, schema.FederatedIdentity.Subject,
		schema.FederatedIdentity.Table,
		schema.FederatedIdentity.UserID,
		schema.FederatedIdentity.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_list_providers_failed: %w", err)
	}

	links, err := pgx.CollectRows(rows, pgx.RowToStructByPos[ProviderLink])
	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_scan_providers_failed: %w", err)
	}
	return links, nil
}

/*
UpdateDisplayName sets the display name and bumps updatedat.

Parameters:
  - context: context.Context
  - userID: string
  - displayName: string

Returns:
  - *User: The updated identity
  - error: apperr.NotFound or persistence failures
*/
func (repository *PostgresUserRepository) UpdateDisplayName(context context.Context, userID, displayName string) (*User, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.UserAccount.Table,
		schema.UserAccount.DisplayName, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID,
	)

	tag, err := repository.pool.Exec(context, query, userID, displayName, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_update_display_name_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.NotFound("User")
	}

	return repository.FindByID(context, userID)
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertLink(context context.Context, db execer, userID string, link ProviderLink, createdAt time.Time) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4)`,
		schema.FederatedIdentity.Table,
		schema.FederatedIdentity.Provider, schema.FederatedIdentity.Subject,
		schema.FederatedIdentity.UserID, schema.FederatedIdentity.CreatedAt,
	)
	_, err := db.Exec(context, query, link.Provider, link.Subject, userID, createdAt)
	return err
}

// mapConflict turns unique violations into the repository's sentinel conflicts.
func mapConflict(err error) error {
	if !dberr.IsUniqueViolation(err) {
		return nil
	}

	switch dberr.ConstraintName(err) {
	case "account_email_key":
		return fmt.Errorf("%w: %v", ErrEmailTaken, err)
	case "account_username_key":
		return fmt.Errorf("%w: %v", ErrUsernameTaken, err)
	case "federatedidentity_pkey":
		return fmt.Errorf("%w: %v", ErrProviderLinked, err)
	default:
		return dberr.Wrap(err, "Identity already exists")
	}
}

// # Token Repository

// PostgresTokenRepository implements [TokenRepository] on users.refreshtoken.
//
// The seq column fixes list order; Replace rewrites the row in place so the
// successor inherits its predecessor's position.
type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates a new PostgreSQL implementation of the TokenRepository.
func NewTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

/*
Append adds a refresh-token digest at the end of the identity's list.

Parameters:
  - context: context.Context
  - userID: string
  - tokenHash: string
  - issuedAt: time.Time

Returns:
  - error: Persistence failures
*/
func (repository *PostgresTokenRepository) Append(context context.Context, userID, tokenHash string, issuedAt time.Time) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)`,
		schema.RefreshToken.Table,
		schema.RefreshToken.TokenHash, schema.RefreshToken.UserID, schema.RefreshToken.IssuedAt,
	)

	if _, err := repository.pool.Exec(context, query, tokenHash, userID, issuedAt); err != nil {
		return fmt.Errorf("postgres_token_repo_append_failed: %w", err)
	}
	return nil
}

/*
Replace rotates oldHash to newHash with a single conditional UPDATE.

Description: Of two concurrent rotations of the same token, exactly one
matches the row; the other sees zero rows affected.

Parameters:
  - context: context.Context
  - userID: string
  - oldHash: string
  - newHash: string
  - issuedAt: time.Time

Returns:
  - bool: Whether oldHash was on file
  - error: Persistence failures
*/
func (repository *PostgresTokenRepository) Replace(context context.Context, userID, oldHash, newHash string, issuedAt time.Time) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $3, %s = $2, %s = $4
		WHERE %s = $1 AND %s = $2`,
		schema.RefreshToken.Table,
		schema.RefreshToken.TokenHash, schema.RefreshToken.RotatedFrom, schema.RefreshToken.IssuedAt,
		schema.RefreshToken.UserID, schema.RefreshToken.TokenHash,
	)

	tag, err := repository.pool.Exec(context, query, userID, oldHash, newHash, issuedAt)
	if err != nil {
		return false, fmt.Errorf("postgres_token_repo_replace_failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

/*
Remove deletes a single refresh-token digest.

Parameters:
  - context: context.Context
  - userID: string
  - tokenHash: string

Returns:
  - bool: Whether the token was on file
  - error: Persistence failures
*/
func (repository *PostgresTokenRepository) Remove(context context.Context, userID, tokenHash string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		schema.RefreshToken.Table, schema.RefreshToken.UserID, schema.RefreshToken.TokenHash)

	tag, err := repository.pool.Exec(context, query, userID, tokenHash)
	if err != nil {
		return false, fmt.Errorf("postgres_token_repo_remove_failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

/*
ReplaceAll clears the list and stores tokenHash as its only entry.

Parameters:
  - context: context.Context
  - userID: string
  - tokenHash: string
  - issuedAt: time.Time

Returns:
  - error: Persistence failures
*/
func (repository *PostgresTokenRepository) ReplaceAll(context context.Context, userID, tokenHash string, issuedAt time.Time) error {
	deleteAll := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.RefreshToken.Table, schema.RefreshToken.UserID)
	insert := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)`,
		schema.RefreshToken.Table,
		schema.RefreshToken.TokenHash, schema.RefreshToken.UserID, schema.RefreshToken.IssuedAt,
	)

	err := postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(context, deleteAll, userID); err != nil {
			return err
		}
		_, err := tx.Exec(context, insert, tokenHash, userID, issuedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("postgres_token_repo_replace_all_failed: %w", err)
	}
	return nil
}

/*
Wipe revokes every refresh token of the identity.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - int64: Number of rows deleted
  - error: Persistence failures
*/
func (repository *PostgresTokenRepository) Wipe(context context.Context, userID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.RefreshToken.Table, schema.RefreshToken.UserID)

	tag, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return 0, fmt.Errorf("postgres_token_repo_wipe_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

/*
List returns the identity's live tokens ordered by list position.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []TokenRecord: Ordered records
  - error: Retrieval failures
*/
func (repository *PostgresTokenRepository) List(context context.Context, userID string) ([]TokenRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(%s, ''), %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s`,
		schema.RefreshToken.TokenHash, schema.RefreshToken.RotatedFrom, schema.RefreshToken.IssuedAt,
		schema.RefreshToken.Table,
		schema.RefreshToken.UserID,
		schema.RefreshToken.Seq,
	)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_token_repo_list_failed: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (TokenRecord, error) {
		var record TokenRecord
		err := row.Scan(&record.TokenHash, &record.RotatedFrom, &record.IssuedAt)
		return record, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres_token_repo_list_scan_failed: %w", err)
	}

	return records, nil
}
