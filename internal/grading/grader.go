// Package grading scores submitted answers with an omni model over an
// OpenAI-compatible API. Spoken answers are attached as audio input
// parts so the model hears the student directly; no transcription step
// sits in between.
package grading

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/echoexam/echo-backend/internal/model"
)

// suggestionThreshold drops the suggested answer for scores at or
// above it; the correction is only shown when the student fell short.
const suggestionThreshold = 0.7

// Client is the grading collaborator implementation.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// NewClient creates a grading client. baseURL selects the provider;
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
		log:     log.With().Str("component", "grading").Logger(),
	}
}

// Grade scores one answer. Any failure comes back as an error; the
// caller owns the degraded-result fallback.
func (c *Client) Grade(ctx context.Context, q model.Question, answer model.Answer) (*model.GradingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: userPrompt(q, answer)},
	}
	if q.Type.SpokenAnswer() {
		if len(answer.Audio) == 0 {
			return nil, errors.New("spoken answer has no audio")
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeInputAudio,
			InputAudio: &openai.ChatMessageInputAudio{
				Data:   base64.StdEncoding.EncodeToString(answer.Audio),
				Format: "mp3",
			},
		})
	}

	started := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(q.Type)},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("grading request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("grading response has no choices")
	}

	payload, err := decodeResult(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	result := &model.GradingResult{
		Score:       clampScore(payload.Score),
		Feedback:    payload.Feedback,
		Explanation: payload.Explanation,
		IsCorrect:   payload.IsCorrect,
	}
	if result.Score < suggestionThreshold {
		result.SuggestedAnswer = payload.SuggestedAnswer
	}
	if q.Type == model.QuestionTypeMultipleChoice {
		result.StudentAnswer = answer.Text
	}

	c.log.Debug().
		Str("question_id", q.ID).
		Str("type", string(q.Type)).
		Float64("score", result.Score).
		Dur("took", time.Since(started)).
		Msg("Graded answer")
	return result, nil
}
