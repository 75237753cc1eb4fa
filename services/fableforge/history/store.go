// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history persists the generation records of each account in that
// account's dedicated story collection. Records are immutable once written;
// there is no update or delete path.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/FableForge/services/fableforge/datatypes"
)

var historyTracer = otel.Tracer("fableforge.history")

// pageSize is the number of objects fetched per scroll page.
const pageSize = 50

// Store appends and lists generation records on top of a shared Weaviate
// client handle.
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// Append inserts a new immutable generation record with a fresh id and the
// current timestamp into the account's collection, and returns the record id
// for the user-visible confirmation.
func (s *Store) Append(ctx context.Context, account, recordType, prompt, generatedText string, costUSD, costPLN float64) (string, error) {
	ctx, span := historyTracer.Start(ctx, "history.Append")
	defer span.End()

	recordID := uuid.NewString()
	props := datatypes.StoryProperties{
		Type:          recordType,
		Prompt:        prompt,
		GeneratedText: generatedText,
		CostUSD:       costUSD,
		CostPLN:       costPLN,
		Timestamp:     time.Now().Unix(),
	}

	_, err := s.client.Data().Creator().
		WithClassName(datatypes.StoryClassName(account)).
		WithID(recordID).
		WithVector(datatypes.DummyVector).
		WithProperties(props.ToMap()).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to save generation record: %w", err)
	}

	slog.Info("saved generation record", "account", account, "record_id", recordID)
	return recordID, nil
}

// ListAll pages through the account's entire collection with the cursor API
// (page size 50, following the cursor until exhausted) and returns every
// record. The store does not guarantee page order, so the result is sorted
// by timestamp, newest first, before returning.
func (s *Store) ListAll(ctx context.Context, account string) ([]datatypes.StoryRecord, error) {
	ctx, span := historyTracer.Start(ctx, "history.ListAll")
	defer span.End()

	className := datatypes.StoryClassName(account)

	var records []datatypes.StoryRecord
	cursor := ""
	for {
		getter := s.client.Data().ObjectsGetter().
			WithClassName(className).
			WithLimit(pageSize)
		if cursor != "" {
			getter = getter.WithAfter(cursor)
		}

		objects, err := getter.Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scroll collection %s: %w", className, err)
		}
		if len(objects) == 0 {
			break
		}

		for _, obj := range objects {
			rec, err := datatypes.StoryFromObject(obj)
			if err != nil {
				slog.Warn("skipping malformed generation record", "class", className, "error", err)
				continue
			}
			records = append(records, *rec)
		}

		if len(objects) < pageSize {
			break
		}
		cursor = objects[len(objects)-1].ID.String()
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})

	return records, nil
}
