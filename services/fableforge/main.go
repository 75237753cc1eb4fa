// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// FableForge turns a user's problem statement into an explanatory story or
// joke via an LLM and keeps each account's generation history in Weaviate.
//
// Configuration (environment, a .env file is loaded when present):
//
//	OPENAI_API_KEY               required, OpenAI API key
//	OPENAI_MODEL                 optional, chat model (default gpt-4o)
//	WEAVIATE_URL                 optional, store endpoint (default http://localhost:8080)
//	WEAVIATE_API_KEY             optional, store API key
//	AUTH_TOKEN_SECRET            optional, HMAC secret for session tokens
//	USD_PLN_RATE                 optional, USD -> PLN conversion rate (default 4.0)
//	FABLEFORGE_PORT              optional, listen port (default 8090)
//	OTEL_EXPORTER_OTLP_ENDPOINT  optional, enables tracing when set
package main

import (
	"context"
	"crypto/rand"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/FableForge/services/fableforge/accounts"
	"github.com/AleutianAI/FableForge/services/fableforge/datatypes"
	"github.com/AleutianAI/FableForge/services/fableforge/handlers"
	"github.com/AleutianAI/FableForge/services/fableforge/history"
	"github.com/AleutianAI/FableForge/services/fableforge/prompt"
	"github.com/AleutianAI/FableForge/services/fableforge/routes"
	"github.com/AleutianAI/FableForge/services/llm"
)

const serviceName = "fableforge"

func main() {
	// Local development convenience; real deployments set the environment.
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx := context.Background()

	shutdownTracing := initTracing(ctx)
	defer shutdownTracing()

	weaviateClient, err := newWeaviateClient()
	if err != nil {
		slog.Error("failed to create Weaviate client", "error", err)
		os.Exit(1)
	}
	if err := datatypes.EnsureBaseSchema(weaviateClient); err != nil {
		slog.Error("failed to ensure base schema", "error", err)
		os.Exit(1)
	}

	llmClient, err := llm.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"))
	if err != nil {
		slog.Error("failed to create LLM client", "error", err)
		os.Exit(1)
	}

	accountStore := accounts.NewStore(weaviateClient)
	historyStore := history.NewStore(weaviateClient)
	issuer := handlers.NewTokenIssuer(tokenSecret())

	exchangeRate := prompt.DefaultExchangeRate
	if raw := os.Getenv("USD_PLN_RATE"); raw != "" {
		if rate, err := strconv.ParseFloat(raw, 64); err == nil && rate > 0 {
			exchangeRate = rate
		} else {
			slog.Warn("ignoring invalid USD_PLN_RATE", "value", raw)
		}
	}

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))
	routes.SetupRoutes(router, accountStore, historyStore, llmClient, issuer, exchangeRate)

	port := os.Getenv("FABLEFORGE_PORT")
	if port == "" {
		port = "8090"
	}

	slog.Info("starting FableForge", "port", port)
	if err := router.Run(":" + port); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// newWeaviateClient builds the shared store client from WEAVIATE_URL and
// an optional WEAVIATE_API_KEY.
func newWeaviateClient() (*weaviate.Client, error) {
	rawURL := os.Getenv("WEAVIATE_URL")
	if rawURL == "" {
		rawURL = "http://localhost:8080"
	}

	scheme := "http"
	host := rawURL
	if before, after, found := strings.Cut(rawURL, "://"); found {
		scheme = before
		host = after
	}

	cfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if apiKey := os.Getenv("WEAVIATE_API_KEY"); apiKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: apiKey}
	}

	return weaviate.NewClient(cfg)
}

// tokenSecret returns the HMAC secret for session tokens. Without
// AUTH_TOKEN_SECRET a random secret is generated, which invalidates all
// sessions on restart.
func tokenSecret() []byte {
	if secret := os.Getenv("AUTH_TOKEN_SECRET"); secret != "" {
		return []byte(secret)
	}

	slog.Warn("AUTH_TOKEN_SECRET is not set, sessions will not survive a restart")
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		slog.Error("failed to generate session secret", "error", err)
		os.Exit(1)
	}
	return secret
}

// initTracing sets up the OTLP trace exporter when an endpoint is
// configured, and returns a shutdown function.
func initTracing(ctx context.Context) func() {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return func() {}
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		slog.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return func() {}
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	return func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			slog.Warn("failed to shut down tracer provider", "error", err)
		}
	}
}
