// Package speech synthesizes spoken prompts through an OpenAI-compatible
// audio endpoint.
package speech

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// voiceOptions lists the voices each omni model accepts. Unknown models
// fall back to the qwen3-omni-flash set.
var voiceOptions = map[string][]string{
	"qwen3-omni-flash": {"Cherry", "Ethan", "Nofish", "Jennifer", "Ryan", "Katerina", "Elias", "Jada", "Dylan", "Sunny", "li", "Marcus", "Roy", "Peter", "Rocky", "Kiki", "Eric"},
	"qwen-omni-turbo":  {"Cherry", "Serena", "Ethan", "Chelsie"},
	"qwen2.5-omni-7b":  {"Ethan", "Chelsie"},
}

// ValidateVoice rejects voices the model cannot speak. Called at
// startup so a bad voice fails the process instead of every session.
func ValidateVoice(model, voice string) error {
	voices, ok := voiceOptions[model]
	if !ok {
		voices = voiceOptions["qwen3-omni-flash"]
	}
	if slices.Contains(voices, voice) {
		return nil
	}
	return fmt.Errorf("voice %q is not available for %s (options: %s)", voice, model, strings.Join(voices, ", "))
}

// Client calls the speech endpoint of an OpenAI-compatible API.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// NewClient creates a speech client. baseURL selects the provider;
// empty keeps the library default.
func NewClient(baseURL, apiKey, model string, timeout time.Duration, log zerolog.Logger) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   model,
		timeout: timeout,
		log:     log.With().Str("component", "speech").Logger(),
	}
}

// Synthesize returns MP3 bytes for the given text and voice.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis request: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}

	c.log.Debug().
		Str("voice", voice).
		Int("text_len", len(text)).
		Int("bytes", len(audio)).
		Dur("took", time.Since(started)).
		Msg("Synthesized speech")
	return audio, nil
}
