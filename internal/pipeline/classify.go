// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/robotsdev/robots-tui/internal/model"
)

// =============================================================================
// SENTINELS
// =============================================================================

// ContinueSentinel replaces an empty model response. The [[CONTINUE]] tag
// lets the UI style it as a resume prompt rather than agent prose.
const ContinueSentinel = "[[CONTINUE]] I seem to have stalled. Send another message and I'll pick up where I left off."

// delayTag formats the live countdown message.
func delayTag(remaining int) string {
	return "[[DELAY:" + strconv.Itoa(remaining) + "]]"
}

// delayPattern matches the provider backoff convention embedded in a
// response ("⏳ Waiting 5 seconds").
var delayPattern = regexp.MustCompile(`⏳\s*Waiting\s+(\d+)\s+seconds?`)

// parseDelay returns the requested backoff in seconds, or 0 when absent.
func parseDelay(text string) int {
	m := delayPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// =============================================================================
// QUOTA PATTERNS
// =============================================================================

// quotaPatterns are provider-quota markers that can arrive as a 200 body.
var quotaPatterns = []string{
	"ResourceExhausted",
	"API Quota Exceeded",
	"Rate Limit Reached",
}

// isQuotaText reports whether the response body carries a quota marker.
func isQuotaText(text string) bool {
	for _, p := range quotaPatterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// =============================================================================
// ATTACHMENT MARKERS
// =============================================================================

var (
	imageMarker = regexp.MustCompile(`\{image_path:\s*'([^']*)'\}`)
	videoMarker = regexp.MustCompile(`\{video_path:\s*'([^']*)'\}`)
)

// extractAttachment strips an embedded media marker and returns the message
// type, the media path, and the cleaned text. Type is TypeText when no
// marker is present.
func extractAttachment(text string) (model.MessageType, string, string) {
	if m := imageMarker.FindStringSubmatch(text); m != nil {
		cleaned := strings.TrimSpace(imageMarker.ReplaceAllString(text, ""))
		return model.TypeImage, m[1], cleaned
	}
	if m := videoMarker.FindStringSubmatch(text); m != nil {
		cleaned := strings.TrimSpace(videoMarker.ReplaceAllString(text, ""))
		return model.TypeVideo, m[1], cleaned
	}
	return model.TypeText, "", text
}
