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
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"))

	token, err := issuer.Issue("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestTokenIssuer_RejectsTamperedToken(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"))

	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	// Flip a character in the signature.
	tampered := token[:len(token)-2] + strings.Map(func(r rune) rune {
		if r == 'a' {
			return 'b'
		}
		return 'a'
	}, token[len(token)-2:])

	_, err = issuer.Verify(tampered)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsForeignSecret(t *testing.T) {
	token, err := NewTokenIssuer([]byte("their secret")).Issue("alice")
	require.NoError(t, err)

	_, err = NewTokenIssuer([]byte("our secret")).Verify(token)
	assert.Error(t, err)
}

func TestRequireAccount_SetsUsernameInContext(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"))
	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/whoami", RequireAccount(issuer), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": accountFromContext(c)})
	})

	w := performRequest(router, http.MethodGet, "/whoami", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decodeBody(w)["username"])
}

func TestRequireAccount_MissingOrMalformedHeader(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"))

	router := gin.New()
	router.GET("/whoami", RequireAccount(issuer), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": accountFromContext(c)})
	})

	// No header at all.
	w := performRequest(router, http.MethodGet, "/whoami", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token.
	w = performRequest(router, http.MethodGet, "/whoami", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
