package gemini_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Machai17/EG-AI/internal/catalog"
	"github.com/Machai17/EG-AI/internal/gemini"
)

func TestSanitizeForSpeech(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text unchanged",
			input:    "Lave as mãos antes do procedimento.",
			expected: "Lave as mãos antes do procedimento.",
		},
		{
			name:     "strips markdown emphasis",
			input:    "**Atenção**: dose _máxima_ de 4g",
			expected: "Atenção: dose máxima de 4g",
		},
		{
			name:     "strips headings lists and links",
			input:    "# Protocolo\n> citação\n[fonte](https://example.com)",
			expected: "Protocolo\n citação\nfontehttps://example.com",
		},
		{
			name:     "strips code ticks and tildes",
			input:    "use `soro` ~fisiológico~",
			expected: "use soro fisiológico",
		},
		{
			name:     "trims surrounding whitespace",
			input:    "  texto  ",
			expected: "texto",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := gemini.SanitizeForSpeech(tc.input)
			if got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestSanitizeForSpeechTruncation(t *testing.T) {
	t.Parallel()

	// Multi-byte runes make sure the cap counts runes, not bytes.
	long := strings.Repeat("ã", gemini.MaxSpeechChars+50)
	got := gemini.SanitizeForSpeech(long)

	if n := utf8.RuneCountInString(got); n != gemini.MaxSpeechChars {
		t.Errorf("expected %d runes after truncation, got %d", gemini.MaxSpeechChars, n)
	}

	short := strings.Repeat("a", gemini.MaxSpeechChars)
	if got := gemini.SanitizeForSpeech(short); got != short {
		t.Error("text at the limit should pass through unmodified")
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	req := gemini.ReplyRequest{Prompt: "o que é sepse?"}

	if got := gemini.BuildPrompt(req); got != req.Prompt {
		t.Errorf("plain prompt should pass through, got %q", got)
	}

	req.DeepDive = true
	got := gemini.BuildPrompt(req)
	if !strings.Contains(got, "o que é sepse?") {
		t.Errorf("deep-dive prompt lost the original text: %q", got)
	}
	if !strings.Contains(got, "APROFUNDAMENTO") {
		t.Errorf("deep-dive prompt missing elaboration directive: %q", got)
	}
}

func TestBuildSystemInstruction(t *testing.T) {
	t.Parallel()

	req := gemini.ReplyRequest{
		UserName:   "Maria",
		Profession: catalog.ProfessionNurse,
		Country:    "Brasil",
		Language:   catalog.LanguagePortuguese,
	}

	got := gemini.BuildSystemInstruction(req)

	for _, want := range []string{"Maria", "Enfermeiro", "Brasil", "pt-BR"} {
		if !strings.Contains(got, want) {
			t.Errorf("instruction missing %q", want)
		}
	}
	for _, placeholder := range []string{"{userName}", "{profession}", "{country}", "{lang}"} {
		if strings.Contains(got, placeholder) {
			t.Errorf("instruction contains unsubstituted placeholder %q", placeholder)
		}
	}
}

func TestVoiceForLanguage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		lang     catalog.Language
		expected string
	}{
		{catalog.LanguageEnglish, "Puck"},
		{catalog.LanguagePortuguese, "Kore"},
		{catalog.LanguageSpanish, "Kore"},
		{catalog.LanguageFrench, "Kore"},
	}

	for _, tc := range testCases {
		if got := gemini.VoiceForLanguage(tc.lang); got != tc.expected {
			t.Errorf("VoiceForLanguage(%q) = %q, expected %q", tc.lang, got, tc.expected)
		}
	}
}
