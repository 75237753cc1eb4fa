// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package accounts manages user accounts stored in Weaviate.
//
// Each account is one object in the Account class. The store enforces
// username uniqueness at the storage layer: account ids are derived
// deterministically from the username, so two concurrent registrations of
// the same name race on the same object id and only one create succeeds.
package accounts

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/FableForge/services/fableforge/datatypes"
)

var accountsTracer = otel.Tracer("fableforge.accounts")

// usernameRE restricts usernames to names that are also valid inside a
// Weaviate class name, keeping the username -> story collection mapping
// injective.
var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

// ValidUsername reports whether a username is acceptable for registration.
func ValidUsername(username string) bool {
	return usernameRE.MatchString(username)
}

// AccountID derives the deterministic object id for a username. Creating
// with a fixed id turns registration into an atomic create-or-conflict on
// the store, which closes the race a check-then-insert pattern would have.
func AccountID(username string) string {
	hash := sha256.Sum256([]byte("account:" + username))
	id, _ := uuid.FromBytes(hash[:16])
	return id.String()
}

// Store provides account CRUD on top of a shared Weaviate client handle.
// The handle is constructed once at process start and injected.
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// Register creates a new account with a freshly hashed password.
// It returns ErrAlreadyExists when the username is taken.
func (s *Store) Register(ctx context.Context, username, password, email string) error {
	ctx, span := accountsTracer.Start(ctx, "accounts.Register")
	defer span.End()

	if !ValidUsername(username) {
		return ErrInvalidUsername
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	props := datatypes.AccountProperties{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		CreatedAt:    time.Now().Unix(),
	}

	_, err = s.client.Data().Creator().
		WithClassName(datatypes.AccountClass).
		WithID(AccountID(username)).
		WithVector(datatypes.DummyVector).
		WithProperties(props.ToMap()).
		Do(ctx)
	if err != nil {
		if isConflict(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	slog.Info("registered account", "username", username)
	return nil
}

// FindUser looks up an account by exact, case-sensitive username.
// The username property is field-indexed, so this is a filtered query
// against the store rather than a client-side scan.
func (s *Store) FindUser(ctx context.Context, username string) (*datatypes.AccountRecord, error) {
	ctx, span := accountsTracer.Start(ctx, "accounts.FindUser")
	defer span.End()

	where := filters.Where().
		WithPath([]string{"username"}).
		WithOperator(filters.Equal).
		WithValueText(username)

	fields := []graphql.Field{
		{Name: "username"},
		{Name: "password_hash"},
		{Name: "email"},
		{Name: "created_at"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}}},
	}

	resp, err := s.client.GraphQL().Get().
		WithClassName(datatypes.AccountClass).
		WithWhere(where).
		WithFields(fields...).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.AccountQueryResponse](resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse account query response: %w", err)
	}
	if len(parsed.Get.Account) == 0 {
		return nil, ErrNotFound
	}

	found := parsed.Get.Account[0]
	return &datatypes.AccountRecord{
		ID: found.Additional.ID,
		AccountProperties: datatypes.AccountProperties{
			Username:     found.Username,
			PasswordHash: found.PasswordHash,
			Email:        found.Email,
			CreatedAt:    found.CreatedAt,
		},
	}, nil
}

// Login reports whether the username exists and the password matches its
// stored hash. A missing account and a wrong password are indistinguishable
// to the caller.
func (s *Store) Login(ctx context.Context, username, password string) (bool, error) {
	user, err := s.FindUser(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return CheckPassword(password, user.PasswordHash), nil
}

// ResetPassword rewrites the account payload in place (same id, same other
// fields) with a freshly hashed password. It succeeds only when both the
// username and the stored email match exactly.
func (s *Store) ResetPassword(ctx context.Context, username, email, newPassword string) error {
	ctx, span := accountsTracer.Start(ctx, "accounts.ResetPassword")
	defer span.End()

	user, err := s.FindUser(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return ErrResetMismatch
	}
	if err != nil {
		return err
	}
	if user.Email == "" || user.Email != email {
		return ErrResetMismatch
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	props := user.AccountProperties
	props.PasswordHash = hash

	err = s.client.Data().Updater().
		WithID(user.ID).
		WithClassName(datatypes.AccountClass).
		WithVector(datatypes.DummyVector).
		WithProperties(props.ToMap()).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	slog.Info("password reset", "username", username)
	return nil
}

// EnsureNamespace idempotently creates the per-account story collection.
// Called on every successful login; a second call for the same account is a
// no-op.
func (s *Store) EnsureNamespace(ctx context.Context, username string) error {
	className := datatypes.StoryClassName(username)

	// The class getter errors when the class is missing.
	if _, err := s.client.Schema().ClassGetter().WithClassName(className).Do(ctx); err == nil {
		return nil
	}

	class := datatypes.GetStorySchema(className)
	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		// A concurrent login may have created it between the check and the
		// create; a successful re-read means the collection is there.
		if _, getErr := s.client.Schema().ClassGetter().WithClassName(className).Do(ctx); getErr == nil {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	slog.Info("created story collection", "class", className)
	return nil
}

// isConflict reports whether the store rejected a create because an object
// with the same id already exists.
func isConflict(err error) bool {
	var clientErr *fault.WeaviateClientError
	if errors.As(err, &clientErr) {
		return clientErr.StatusCode == http.StatusUnprocessableEntity ||
			clientErr.StatusCode == http.StatusConflict
	}
	return false
}
