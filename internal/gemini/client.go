// Package gemini implements integration with Google's Gemini AI API.
// It provides reply generation and speech synthesis for the assistant.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Machai17/EG-AI/internal/catalog"
	"github.com/Machai17/EG-AI/internal/config"
)

// MaxSpeechChars bounds the text length forwarded to the speech model.
const MaxSpeechChars = 1000

// Citation references a grounding source returned alongside a reply.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Reply is the result of a text generation request: the model's free-text
// response plus any grounding citations.
type Reply struct {
	Text    string     `json:"text"`
	Sources []Citation `json:"sources,omitempty"`
}

// ReplyRequest carries the prompt and the user context used to parameterize
// the system instruction.
type ReplyRequest struct {
	Prompt     string
	UserName   string
	Profession catalog.Profession
	Country    string
	Language   catalog.Language

	// DeepDive rewrites the prompt into a request for an exhaustive
	// elaboration of the prior content rather than a fresh answer.
	DeepDive bool
}

// Client defines the interface for AI operations used throughout the
// application: reply generation and speech synthesis.
type Client interface {
	GenerateReply(ctx context.Context, req ReplyRequest) (*Reply, error)

	// SynthesizeSpeech returns raw 24 kHz mono 16-bit PCM audio for text.
	SynthesizeSpeech(ctx context.Context, text string, lang catalog.Language) ([]byte, error)
}

type sdkClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	temperature float32
	textModel   string
	speechModel string
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new Gemini AI client with the provided configuration.
// It initializes the connection to the Gemini API and sets up necessary parameters.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "text_model", cfg.TextModel, "speech_model", cfg.SpeechModel)
	return &sdkClient{
		genaiClient: gi,
		log:         logger,
		temperature: cfg.Temperature,
		textModel:   cfg.TextModel,
		speechModel: cfg.SpeechModel,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

// BuildSystemInstruction substitutes the user context into the assistant
// system instruction template.
func BuildSystemInstruction(req ReplyRequest) string {
	return strings.NewReplacer(
		"{userName}", req.UserName,
		"{profession}", string(req.Profession),
		"{country}", req.Country,
		"{lang}", string(req.Language),
	).Replace(AssistantSystemInstruction)
}

// BuildPrompt returns the effective prompt text, applying the deep-dive
// rewrite when requested.
func BuildPrompt(req ReplyRequest) string {
	if req.DeepDive {
		return fmt.Sprintf(DeepDivePromptFormat, req.Prompt)
	}
	return req.Prompt
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, modelName string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var genAiAPIError *genai.APIError
		if errors.As(err, &genAiAPIError) && (genAiAPIError.Code == 500 || genAiAPIError.Code == 503) { // Retriable HTTP codes
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call due to retriable APIError", "delay", c.retryDelay, "code", genAiAPIError.Code)
				time.Sleep(c.retryDelay)
				continue
			}
			c.log.ErrorContext(ctx, "Gemini API call failed after max retries with APIError", "error", err, "code", genAiAPIError.Code)
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w", c.maxRetries, genAiAPIError.Code, err)
		}

		c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err)
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return nil, err
}

func (c *sdkClient) GenerateReply(ctx context.Context, req ReplyRequest) (*Reply, error) {
	c.log.DebugContext(ctx, "Generating reply", "lang", req.Language, "deep_dive", req.DeepDive)

	contents := []*genai.Content{
		genai.NewContentFromText(BuildPrompt(req), genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: &c.temperature,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: BuildSystemInstruction(req)}},
		},
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	resp, err := c.generateContentWithRetries(ctx, c.textModel, contents, cfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini reply generation failed", "error", err)
		return nil, fmt.Errorf("gemini reply generation failed: %w", err)
	}

	text, err := c.extractTextFromResponse(ctx, resp)
	if err != nil {
		return nil, err
	}

	return &Reply{
		Text:    text,
		Sources: extractCitations(resp),
	}, nil
}

// speechMarkupPattern matches the Markdown characters stripped before speech
// synthesis.
var speechMarkupPattern = regexp.MustCompile("[*#_>`~\\[\\]()]")

// SanitizeForSpeech strips markup characters and truncates the text to
// MaxSpeechChars so the speech model receives plain, bounded input.
func SanitizeForSpeech(text string) string {
	clean := strings.TrimSpace(speechMarkupPattern.ReplaceAllString(text, ""))
	runes := []rune(clean)
	if len(runes) > MaxSpeechChars {
		return string(runes[:MaxSpeechChars])
	}
	return clean
}

// VoiceForLanguage selects the prebuilt voice profile for a language.
func VoiceForLanguage(lang catalog.Language) string {
	if lang == catalog.LanguageEnglish {
		return "Puck"
	}
	return "Kore"
}

func (c *sdkClient) SynthesizeSpeech(ctx context.Context, text string, lang catalog.Language) ([]byte, error) {
	clean := SanitizeForSpeech(text)
	if clean == "" {
		return nil, fmt.Errorf("no speakable text after sanitization")
	}

	c.log.DebugContext(ctx, "Synthesizing speech", "lang", lang, "chars", len(clean))

	contents := []*genai.Content{
		genai.NewContentFromText(clean, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: VoiceForLanguage(lang),
				},
			},
		},
	}

	resp, err := c.generateContentWithRetries(ctx, c.speechModel, contents, cfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini speech synthesis failed", "error", err)
		return nil, fmt.Errorf("gemini speech synthesis failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		c.log.WarnContext(ctx, "Speech response missing candidates or content")
		return nil, fmt.Errorf("speech synthesis returned no content")
	}

	part := resp.Candidates[0].Content.Parts[0]
	if part.InlineData == nil || len(part.InlineData.Data) == 0 {
		c.log.WarnContext(ctx, "Speech response part has no inline audio data")
		return nil, fmt.Errorf("speech synthesis returned no audio data")
	}

	return part.InlineData.Data, nil
}

func extractCitations(resp *genai.GenerateContentResponse) []Citation {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}

	var sources []Citation
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		sources = append(sources, Citation{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return sources
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reasonMsg)
		return "", fmt.Errorf("request blocked by safety filter: %s", reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("model returned no content, finish reason: %s", finishReason)
	}

	text := resp.Text()
	if text == "" {
		c.log.WarnContext(ctx, "Gemini response text is empty")
		return "", fmt.Errorf("model returned empty text")
	}

	return text, nil
}
