// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// AccountClass is the Weaviate class holding one object per registered user.
const AccountClass = "Account"

// storyClassPrefix namespaces the per-account story collections so they can
// never collide with the Account class itself.
const storyClassPrefix = "Stories_"

// DummyVector is stored on every object purely to satisfy the backing
// store's schema. It carries no semantic meaning and is never used for
// similarity search.
var DummyVector = []float32{0}

// StoryClassName maps a username onto the name of its dedicated story
// collection. Weaviate class names must match ^[A-Z][_0-9A-Za-z]*$, which is
// why usernames are restricted to word characters at registration and the
// class carries an uppercase prefix instead of the raw username.
func StoryClassName(username string) string {
	return storyClassPrefix + username
}

// IsStoryClass reports whether a class name belongs to an account's story
// collection.
func IsStoryClass(className string) bool {
	return strings.HasPrefix(className, storyClassPrefix)
}

func GetAccountSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:               AccountClass,
		Description:         "A registered user account.",
		Vectorizer:          "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{IndexTimestamps: true},
		Properties: []*models.Property{
			{
				Name:            "username",
				DataType:        []string{"text"},
				Description:     "The unique account name, matched exactly and case-sensitively.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:         "password_hash",
				DataType:     []string{"text"},
				Description:  "The bcrypt hash of the account password.",
				Tokenization: "field",
			},
			{
				Name:            "email",
				DataType:        []string{"text"},
				Description:     "Optional contact address, required to reset the password.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "created_at",
				DataType:        []string{"int"},
				Description:     "Unix timestamp of registration.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// GetStorySchema returns the schema for one account's story collection.
// Every registered account gets its own class, created lazily on first
// successful login.
func GetStorySchema(className string) *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:               className,
		Description:         "Generated stories and jokes persisted for one account.",
		Vectorizer:          "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{IndexTimestamps: true},
		Properties: []*models.Property{
			{
				Name:            "type",
				DataType:        []string{"text"},
				Description:     "The generation mode that produced this record.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:         "prompt",
				DataType:     []string{"text"},
				Description:  "The full prompt sent to the completion API.",
				Tokenization: "word",
			},
			{
				Name:         "generated_text",
				DataType:     []string{"text"},
				Description:  "The text returned by the completion API.",
				Tokenization: "word",
			},
			{
				Name:        "cost_usd",
				DataType:    []string{"number"},
				Description: "Estimated cost of the call in USD.",
			},
			{
				Name:        "cost_pln",
				DataType:    []string{"number"},
				Description: "Estimated cost converted to the local currency.",
			},
			{
				Name:            "timestamp",
				DataType:        []string{"int"},
				Description:     "Unix timestamp of the generation.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureBaseSchema creates the Account class if it does not exist yet.
// Story collections are not touched here; they are created per account on
// first login.
func EnsureBaseSchema(client *weaviate.Client) error {
	class := GetAccountSchema()
	slog.Info("Checking schema", "class", class.Class)

	// The class getter returns an error when the class is missing.
	_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(context.Background())
	if err == nil {
		slog.Info("Schema already exists", "class", class.Class)
		return nil
	}

	slog.Info("Schema not found, creating it...", "class", class.Class)
	if err := client.Schema().ClassCreator().WithClass(class).Do(context.Background()); err != nil {
		return fmt.Errorf("failed to create schema for class %s: %w", class.Class, err)
	}
	slog.Info("Successfully created schema", "class", class.Class)
	return nil
}
