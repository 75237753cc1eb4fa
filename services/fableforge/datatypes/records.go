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
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// =============================================================================
// Typed Properties
// =============================================================================

// AccountProperties is the payload stored on an Account object.
type AccountProperties struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Email        string `json:"email"`
	CreatedAt    int64  `json:"created_at"`
}

// ToMap converts AccountProperties to the map format required by the
// Weaviate client's WithProperties() method.
func (p *AccountProperties) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"username":      p.Username,
		"password_hash": p.PasswordHash,
		"email":         p.Email,
		"created_at":    p.CreatedAt,
	}
}

// StoryProperties is the payload stored on one generation record.
type StoryProperties struct {
	Type          string  `json:"type"`
	Prompt        string  `json:"prompt"`
	GeneratedText string  `json:"generated_text"`
	CostUSD       float64 `json:"cost_usd"`
	CostPLN       float64 `json:"cost_pln"`
	Timestamp     int64   `json:"timestamp"`
}

// ToMap converts StoryProperties to the map format required by the
// Weaviate client's WithProperties() method.
func (p *StoryProperties) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"type":           p.Type,
		"prompt":         p.Prompt,
		"generated_text": p.GeneratedText,
		"cost_usd":       p.CostUSD,
		"cost_pln":       p.CostPLN,
		"timestamp":      p.Timestamp,
	}
}

// =============================================================================
// Records (object id + payload)
// =============================================================================

// AccountRecord is an Account object read back from the store.
type AccountRecord struct {
	ID string `json:"id"`
	AccountProperties
}

// StoryRecord is a generation record read back from the store.
type StoryRecord struct {
	ID string `json:"id"`
	StoryProperties
}

// AccountFromObject parses a raw store object into an AccountRecord.
func AccountFromObject(obj *models.Object) (*AccountRecord, error) {
	rec := &AccountRecord{ID: obj.ID.String()}
	if err := decodeProperties(obj, &rec.AccountProperties); err != nil {
		return nil, err
	}
	return rec, nil
}

// StoryFromObject parses a raw store object into a StoryRecord.
func StoryFromObject(obj *models.Object) (*StoryRecord, error) {
	rec := &StoryRecord{ID: obj.ID.String()}
	if err := decodeProperties(obj, &rec.StoryProperties); err != nil {
		return nil, err
	}
	return rec, nil
}

// decodeProperties converts the dynamic property map of a store object into
// a typed struct via a JSON round trip, the same way GraphQL responses are
// parsed.
func decodeProperties(obj *models.Object, target interface{}) error {
	if obj == nil {
		return fmt.Errorf("nil store object")
	}
	raw, err := json.Marshal(obj.Properties)
	if err != nil {
		return fmt.Errorf("failed to marshal object properties: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to unmarshal object %s: %w", obj.ID, err)
	}
	return nil
}

// =============================================================================
// Generic GraphQL Response Parser
// =============================================================================

// ParseGraphQLResponse parses a Weaviate GraphQL response into the target
// type. The target type T must have json tags matching the expected response
// shape; type mismatches result in zero values, not errors.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}

	return &result, nil
}

// AccountQueryResponse represents the response from querying the Account
// class by username.
type AccountQueryResponse struct {
	Get struct {
		Account []AccountResult `json:"Account"`
	} `json:"Get"`
}

// AccountResult represents a single account from a query.
type AccountResult struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Email        string `json:"email"`
	CreatedAt    int64  `json:"created_at"`
	Additional   struct {
		ID string `json:"id"`
	} `json:"_additional"`
}
