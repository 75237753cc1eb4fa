// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/FableForge/services/fableforge/accounts"
	"github.com/AleutianAI/FableForge/services/fableforge/datatypes"
	"github.com/AleutianAI/FableForge/services/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAccountStore is an in-memory AccountStore backed by the real password
// hasher, so login and reset behave like the Weaviate-backed store.
type fakeAccountStore struct {
	accounts   map[string]*datatypes.AccountRecord
	namespaces map[string]bool
	err        error // returned by every call when set
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		accounts:   make(map[string]*datatypes.AccountRecord),
		namespaces: make(map[string]bool),
	}
}

func (f *fakeAccountStore) Register(_ context.Context, username, password, email string) error {
	if f.err != nil {
		return f.err
	}
	if !accounts.ValidUsername(username) {
		return accounts.ErrInvalidUsername
	}
	if _, exists := f.accounts[username]; exists {
		return accounts.ErrAlreadyExists
	}

	hash, err := accounts.HashPassword(password)
	if err != nil {
		return err
	}
	f.accounts[username] = &datatypes.AccountRecord{
		ID: accounts.AccountID(username),
		AccountProperties: datatypes.AccountProperties{
			Username:     username,
			PasswordHash: hash,
			Email:        email,
			CreatedAt:    time.Now().Unix(),
		},
	}
	return nil
}

func (f *fakeAccountStore) FindUser(_ context.Context, username string) (*datatypes.AccountRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, exists := f.accounts[username]
	if !exists {
		return nil, accounts.ErrNotFound
	}
	return user, nil
}

func (f *fakeAccountStore) Login(ctx context.Context, username, password string) (bool, error) {
	user, err := f.FindUser(ctx, username)
	if err == accounts.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return accounts.CheckPassword(password, user.PasswordHash), nil
}

func (f *fakeAccountStore) ResetPassword(ctx context.Context, username, email, newPassword string) error {
	user, err := f.FindUser(ctx, username)
	if err == accounts.ErrNotFound {
		return accounts.ErrResetMismatch
	}
	if err != nil {
		return err
	}
	if user.Email == "" || user.Email != email {
		return accounts.ErrResetMismatch
	}

	hash, err := accounts.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return nil
}

func (f *fakeAccountStore) EnsureNamespace(_ context.Context, username string) error {
	if f.err != nil {
		return f.err
	}
	f.namespaces[username] = true
	return nil
}

// fakeHistoryStore is an in-memory HistoryStore.
type fakeHistoryStore struct {
	records   map[string][]datatypes.StoryRecord
	appendErr error
	listErr   error
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{records: make(map[string][]datatypes.StoryRecord)}
}

func (f *fakeHistoryStore) Append(_ context.Context, account, recordType, prompt, generatedText string, costUSD, costPLN float64) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}
	rec := datatypes.StoryRecord{
		ID: uuid.NewString(),
		StoryProperties: datatypes.StoryProperties{
			Type:          recordType,
			Prompt:        prompt,
			GeneratedText: generatedText,
			CostUSD:       costUSD,
			CostPLN:       costPLN,
			Timestamp:     time.Now().Unix(),
		},
	}
	f.records[account] = append(f.records[account], rec)
	return rec.ID, nil
}

func (f *fakeHistoryStore) ListAll(_ context.Context, account string) ([]datatypes.StoryRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]datatypes.StoryRecord(nil), f.records[account]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

// mockLLMClient returns a canned completion or error.
type mockLLMClient struct {
	response string
	err      error
	calls    int
}

func (m *mockLLMClient) Generate(_ context.Context, _ string, _ llm.GenerationParams) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// testEnv bundles a router wired like routes.SetupRoutes together with the
// fakes behind it.
type testEnv struct {
	router       *gin.Engine
	accountStore *fakeAccountStore
	historyStore *fakeHistoryStore
	llmClient    *mockLLMClient
	issuer       *TokenIssuer
}

func newTestEnv() *testEnv {
	env := &testEnv{
		accountStore: newFakeAccountStore(),
		historyStore: newFakeHistoryStore(),
		llmClient:    &mockLLMClient{response: "once upon a time"},
		issuer:       NewTokenIssuer([]byte("test-secret")),
	}

	router := gin.New()
	router.POST("/v1/auth/register", Register(env.accountStore))
	router.POST("/v1/auth/login", Login(env.accountStore, env.issuer))
	router.POST("/v1/auth/reset", ResetPassword(env.accountStore))

	protected := router.Group("/v1")
	protected.Use(RequireAccount(env.issuer))
	protected.POST("/generate", Generate(env.llmClient, env.historyStore, 4.0))
	protected.GET("/history", History(env.historyStore))

	env.router = router
	return env
}

// performRequest runs one request against the router and returns the
// recorder. A non-empty token is sent as a bearer token.
func performRequest(router *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			panic(fmt.Sprintf("failed to marshal request body: %v", err))
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(recorder *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &out); err != nil {
		panic(fmt.Sprintf("failed to decode response body %q: %v", recorder.Body.String(), err))
	}
	return out
}
