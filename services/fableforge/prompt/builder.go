// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prompt builds completion prompts from user problems and estimates
// the cost of the resulting API calls.
package prompt

import (
	"fmt"
	"strings"
)

// Generation modes selecting the prompt template.
const (
	ModeFavoriteUniverse = "favorite-universe"
	ModeFunny            = "funny"
)

// Build maps a problem statement, a generation mode and an optional style
// reference onto the completion prompt. An unknown mode degrades to the bare
// problem statement; the literal problem is always appended on its own line.
func Build(problem, mode, style string) string {
	var b strings.Builder

	switch mode {
	case ModeFavoriteUniverse:
		b.WriteString("Turn this problem into a detailed explanatory story for someone who does not understand it.")
		if style != "" {
			b.WriteString(fmt.Sprintf(" Tell it in the narrative style of %s.", style))
		}
	case ModeFunny:
		b.WriteString("Turn this problem into a long, multi-level explanatory joke, " +
			"funny enough for a try-not-to-laugh, that explains it thoroughly and " +
			"in plain human terms, with no other asides or commentary.")
	}

	b.WriteString("\nProblem: " + problem)
	return b.String()
}
