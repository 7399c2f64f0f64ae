package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grana/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

const classifierSystemInstruction = `You are a financial transaction classifier for Brazilian bank statements.
You receive bank-transaction descriptions, mostly in Portuguese, and assign each one a spending category.
Always answer with machine-readable JSON only, never with prose or markdown.`

// LLMService wraps the GigaChat client behind the single text-generation
// operation the classifier needs.
type LLMService struct {
	client *gigago.Client
	model  *gigago.GenerativeModel
	logger *zap.Logger
}

func NewLLMService(cfg *config.GigaChatConfig, logger *zap.Logger) (*LLMService, error) {
	if !cfg.Configured() {
		return nil, errors.New("GIGACHAT_API_KEY is not set")
	}

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(context.Background(), cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = classifierSystemInstruction
	model.Temperature = 0.1

	return &LLMService{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Generate sends one prompt to the model and returns the raw reply text.
func (s *LLMService) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := s.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from LLM")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
