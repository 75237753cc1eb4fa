// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prompt

import "unicode/utf8"

// Per-token prices derived from the published per-million rates
// ($2.50 / 1M prompt tokens, $10.00 / 1M output tokens).
const (
	promptCostPerToken = 2.5 / 1_000_000
	outputCostPerToken = 10.0 / 1_000_000
)

// DefaultExchangeRate converts USD to PLN when no rate is configured.
const DefaultExchangeRate = 4.0

// ApproxTokens estimates the token count of text, assuming an average of
// four characters per token, never less than one.
func ApproxTokens(text string) int {
	n := utf8.RuneCountInString(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// Estimate approximates the USD cost of one completion call from the prompt
// and the generated text, and converts it at the given exchange rate.
func Estimate(promptText, generatedText string, exchangeRate float64) (costUSD, costLocal float64) {
	costUSD = float64(ApproxTokens(promptText))*promptCostPerToken +
		float64(ApproxTokens(generatedText))*outputCostPerToken
	return costUSD, costUSD * exchangeRate
}
