// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPrepareSpeechShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "Hello there.", PrepareSpeech("Hello there."))
}

func TestPrepareSpeechStripsFormatting(t *testing.T) {
	got := PrepareSpeech("**Bold** and `code` and __underline__")
	assert.Equal(t, "Bold and code and underline", got)
}

func TestPrepareSpeechStripsHeadings(t *testing.T) {
	got := PrepareSpeech("## Summary\nAll good.")
	assert.Equal(t, "Summary\nAll good.", got)
}

func TestPrepareSpeechReplacesCodeBlocks(t *testing.T) {
	text := "Here is the fix:\n```go\nfunc main() {}\n```\nDone."
	got := PrepareSpeech(text)
	assert.Contains(t, got, "Code block omitted.")
	assert.NotContains(t, got, "func main")
	assert.Contains(t, got, "Done.")
}

func TestPrepareSpeechEmpty(t *testing.T) {
	assert.Equal(t, "", PrepareSpeech(""))
	assert.Equal(t, "", PrepareSpeech("   \n\t "))
}

func TestPrepareSpeechTruncatesAtSentence(t *testing.T) {
	sentence := "This sentence pads out the clip nicely. "
	text := strings.Repeat(sentence, 200) // well past the limit
	got := PrepareSpeech(text)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxSpeakChars)
	assert.True(t, strings.HasSuffix(got, "."), "expected sentence-final cut, got tail %q", got[len(got)-20:])
}

func TestPrepareSpeechTruncatesAtWordWithoutSentences(t *testing.T) {
	text := strings.Repeat("word ", 2000) // no sentence punctuation at all
	got := PrepareSpeech(text)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxSpeakChars)
	assert.True(t, strings.HasSuffix(got, "word"), "expected word-boundary cut")
}
