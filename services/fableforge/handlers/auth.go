// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the gin handlers for the FableForge HTTP API.
// Handlers are closures over their injected dependencies; all storage and
// LLM access goes through the small interfaces declared here so tests can
// swap in fakes.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/FableForge/services/fableforge/accounts"
	"github.com/AleutianAI/FableForge/services/fableforge/datatypes"
)

// AccountStore is the account operations the auth handlers need.
type AccountStore interface {
	Register(ctx context.Context, username, password, email string) error
	Login(ctx context.Context, username, password string) (bool, error)
	ResetPassword(ctx context.Context, username, email, newPassword string) error
	EnsureNamespace(ctx context.Context, username string) error
	FindUser(ctx context.Context, username string) (*datatypes.AccountRecord, error)
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResetPasswordRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Register creates a new account. Duplicate usernames are rejected with a
// conflict; the check-and-insert is atomic inside the store.
func Register(store AccountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}

		err := store.Register(c.Request.Context(), req.Username, req.Password, req.Email)
		switch {
		case errors.Is(err, accounts.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, accounts.ErrInvalidUsername):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case err != nil:
			slog.Error("registration failed", "username", req.Username, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		default:
			c.JSON(http.StatusCreated, gin.H{"message": "account created", "username": req.Username})
		}
	}
}

// Login verifies credentials and hands out a session token. A successful
// login also makes sure the account's story collection exists, so the
// generation path never has to create it.
func Login(store AccountStore, issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}

		ok, err := store.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			slog.Error("login failed", "username", req.Username, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}

		if err := store.EnsureNamespace(c.Request.Context(), req.Username); err != nil {
			slog.Error("failed to prepare story collection", "username", req.Username, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}

		token, err := issuer.Issue(req.Username)
		if err != nil {
			slog.Error("failed to issue session token", "username", req.Username, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "username": req.Username})
	}
}

// ResetPassword replaces an account's password when the caller can present
// the exact email stored on the account.
func ResetPassword(store AccountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and new_password are required"})
			return
		}

		err := store.ResetPassword(c.Request.Context(), req.Username, req.Email, req.NewPassword)
		switch {
		case errors.Is(err, accounts.ErrResetMismatch):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case err != nil:
			slog.Error("password reset failed", "username", req.Username, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password reset failed"})
		default:
			c.JSON(http.StatusOK, gin.H{"message": "password updated"})
		}
	}
}
