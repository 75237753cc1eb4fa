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
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/FableForge/services/fableforge/datatypes"
	"github.com/AleutianAI/FableForge/services/fableforge/prompt"
	"github.com/AleutianAI/FableForge/services/llm"
)

var generateTracer = otel.Tracer("fableforge.handlers")

// generationTemperature keeps completions creative without drifting off
// the problem statement.
const generationTemperature float32 = 0.7

// HistoryStore is the record persistence the generation handlers need.
type HistoryStore interface {
	Append(ctx context.Context, account, recordType, prompt, generatedText string, costUSD, costPLN float64) (string, error)
	ListAll(ctx context.Context, account string) ([]datatypes.StoryRecord, error)
}

type GenerateRequest struct {
	Problem string `json:"problem" binding:"required"`
	Mode    string `json:"mode" binding:"required"`
	Style   string `json:"style"`
}

type GenerateResponse struct {
	RecordID      string  `json:"record_id,omitempty"`
	Prompt        string  `json:"prompt"`
	GeneratedText string  `json:"generated_text"`
	CostUSD       float64 `json:"cost_usd"`
	CostPLN       float64 `json:"cost_pln"`
	Saved         bool    `json:"saved"`
}

// Generate turns a problem statement into a story or joke, estimates the
// call cost, and appends the interaction to the account's history. A failed
// completion is the caller's error; a failed history write is not, the
// response then just reports saved=false.
func Generate(llmClient llm.LLMClient, store HistoryStore, exchangeRate float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := generateTracer.Start(c.Request.Context(), "handlers.Generate")
		defer span.End()

		var req GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "problem and mode are required"})
			return
		}

		account := accountFromContext(c)
		promptText := prompt.Build(req.Problem, req.Mode, req.Style)

		temperature := generationTemperature
		generated, err := llmClient.Generate(ctx, promptText, llm.GenerationParams{
			Temperature: &temperature,
		})
		if err != nil {
			slog.Error("completion failed", "account", account, "mode", req.Mode, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "text generation failed"})
			return
		}

		costUSD, costPLN := prompt.Estimate(promptText, generated, exchangeRate)

		resp := GenerateResponse{
			Prompt:        promptText,
			GeneratedText: generated,
			CostUSD:       costUSD,
			CostPLN:       costPLN,
		}

		recordID, err := store.Append(ctx, account, req.Mode, promptText, generated, costUSD, costPLN)
		if err != nil {
			// The user already has their text; losing the record is worth a
			// warning, not a failed request.
			slog.Warn("failed to persist generation record", "account", account, "error", err)
		} else {
			resp.RecordID = recordID
			resp.Saved = true
		}

		c.JSON(http.StatusOK, resp)
	}
}

// History returns every stored generation record of the authenticated
// account, newest first.
func History(store HistoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := accountFromContext(c)

		records, err := store.ListAll(c.Request.Context(), account)
		if err != nil {
			slog.Error("failed to load history", "account", account, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"count": len(records), "records": records})
	}
}
