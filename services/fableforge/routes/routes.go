// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes wires the HTTP surface of the FableForge service.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/FableForge/services/fableforge/handlers"
	"github.com/AleutianAI/FableForge/services/llm"
)

// SetupRoutes registers every route of the service on the given router.
// Dependencies are injected here and closed over by the handlers.
func SetupRoutes(
	router *gin.Engine,
	accountStore handlers.AccountStore,
	historyStore handlers.HistoryStore,
	llmClient llm.LLMClient,
	issuer *handlers.TokenIssuer,
	exchangeRate float64,
) {
	router.GET("/health", handlers.HealthCheck)

	// Static single-page UI.
	router.Static("/ui", "./ui")
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/ui/index.html")
	})

	auth := router.Group("/v1/auth")
	{
		auth.POST("/register", handlers.Register(accountStore))
		auth.POST("/login", handlers.Login(accountStore, issuer))
		auth.POST("/reset", handlers.ResetPassword(accountStore))
	}

	protected := router.Group("/v1")
	protected.Use(handlers.RequireAccount(issuer))
	{
		protected.POST("/generate", handlers.Generate(llmClient, historyStore, exchangeRate))
		protected.GET("/history", handlers.History(historyStore))
	}
}
