package security

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// MaxPromptLength caps sanitized prompts, in runes.
const MaxPromptLength = 2000

// injectionPatterns are known prompt-injection sequences. Matches are
// deleted, not escaped.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+previous\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+everything`),
	regexp.MustCompile(`(?i)new\s+instructions`),
	regexp.MustCompile(`(?i)system\s*:`),
	regexp.MustCompile(`(?i)assistant\s*:`),
	regexp.MustCompile(`(?i)user\s*:`),
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)data\s*:`),
	regexp.MustCompile(`(?i)vbscript\s*:`),
}

// SanitizePrompt cleans instruction text before it is sent to the model:
// control characters are stripped, known injection sequences removed, and the
// result truncated to MaxPromptLength runes. It never fails; empty input maps
// to empty output.
func SanitizePrompt(prompt string, logger logrus.FieldLogger) string {
	if prompt == "" {
		return ""
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	prompt = strings.Map(func(r rune) rune {
		if r <= 0x1F || (r >= 0x7F && r <= 0x9F) {
			return -1
		}
		return r
	}, prompt)

	for _, pattern := range injectionPatterns {
		prompt = pattern.ReplaceAllString(prompt, "")
	}

	if runes := []rune(prompt); len(runes) > MaxPromptLength {
		prompt = string(runes[:MaxPromptLength])
		logger.Warn("prompt truncated due to length")
	}

	return strings.TrimSpace(prompt)
}
