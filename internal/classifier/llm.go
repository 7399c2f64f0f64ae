package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"grana/internal/models"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Generator is the single operation required from the hosted text model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CacheStore memoizes description -> category assignments so a merchant
// string is classified externally at most once.
type CacheStore interface {
	Lookup(ctx context.Context, descriptions []string) (map[string]models.TransactionCategory, error)
	Upsert(ctx context.Context, entries map[string]models.TransactionCategory) error
}

const (
	defaultLLMBatchSize = 20
	defaultLLMTimeout   = 60 * time.Second
	llmMaxRetries       = 2
)

// LLMStrategy classifies descriptions through a hosted language model,
// short-circuiting through the classification cache. Descriptions left
// unresolved by a failed batch default to OTHER; the per-batch errors are
// reported back joined, not swallowed.
type LLMStrategy struct {
	gen       Generator
	cache     CacheStore
	batchSize int
	timeout   time.Duration
	logger    *zap.Logger
}

func NewLLMStrategy(gen Generator, cache CacheStore, batchSize int, timeout time.Duration, logger *zap.Logger) *LLMStrategy {
	if batchSize <= 0 {
		batchSize = defaultLLMBatchSize
	}
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	return &LLMStrategy{
		gen:       gen,
		cache:     cache,
		batchSize: batchSize,
		timeout:   timeout,
		logger:    logger,
	}
}

func (s *LLMStrategy) Name() string { return "llm" }

func (s *LLMStrategy) Classify(ctx context.Context, batch []*models.Transaction) ([]*models.Transaction, error) {
	if len(batch) == 0 {
		return batch, nil
	}

	// Unique descriptions, first-seen order.
	var descriptions []string
	seen := make(map[string]struct{})
	for _, tx := range batch {
		if _, ok := seen[tx.Description]; ok {
			continue
		}
		seen[tx.Description] = struct{}{}
		descriptions = append(descriptions, tx.Description)
	}

	resolved, err := s.cache.Lookup(ctx, descriptions)
	if err != nil {
		s.logger.Warn("Classification cache lookup failed", zap.Error(err))
		resolved = make(map[string]models.TransactionCategory)
	}

	var pending []string
	for _, desc := range descriptions {
		if _, ok := resolved[desc]; !ok {
			pending = append(pending, desc)
		}
	}

	var batchErrs []error
	for start := 0; start < len(pending); start += s.batchSize {
		end := start + s.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[start:end]

		labels, err := s.classifyChunk(ctx, chunk)
		if err != nil {
			// One failed batch must not discard already-resolved ones.
			s.logger.Warn("Classification batch failed",
				zap.Int("size", len(chunk)),
				zap.Error(err),
			)
			batchErrs = append(batchErrs, err)
			continue
		}

		entries := make(map[string]models.TransactionCategory, len(chunk))
		for i, desc := range chunk {
			resolved[desc] = labels[i]
			entries[desc] = labels[i]
		}
		// Persist each batch before moving on: a crash mid-run loses at
		// most the in-flight batch.
		if err := s.cache.Upsert(ctx, entries); err != nil {
			s.logger.Warn("Classification cache write failed", zap.Error(err))
		}
	}

	for _, tx := range batch {
		category, ok := resolved[tx.Description]
		if !ok {
			category = models.CategoryOther
		}
		setCategory(tx, category, nil)
	}
	return batch, errors.Join(batchErrs...)
}

func (s *LLMStrategy) classifyChunk(ctx context.Context, descriptions []string) ([]models.TransactionCategory, error) {
	prompt, err := buildPrompt(descriptions)
	if err != nil {
		return nil, &ClassificationError{Reason: "building prompt", Err: err}
	}

	var reply string
	op := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		var genErr error
		reply, genErr = s.gen.Generate(reqCtx, prompt)
		return genErr
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), llmMaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, &ClassificationError{Reason: "generation request failed", Err: err}
	}

	labels, err := parseLabels(reply, len(descriptions))
	if err != nil {
		return nil, err
	}

	out := make([]models.TransactionCategory, len(labels))
	for i, label := range labels {
		category := models.TransactionCategory(strings.ToUpper(strings.TrimSpace(label)))
		if !models.ValidCategory(category) {
			s.logger.Warn("Model returned unknown category, using OTHER",
				zap.String("label", label),
			)
			category = models.CategoryOther
		}
		out[i] = category
	}
	return out, nil
}

func buildPrompt(descriptions []string) (string, error) {
	categories := make([]string, len(models.DefaultCategories))
	for i, c := range models.DefaultCategories {
		categories[i] = string(c)
	}
	catJSON, err := json.Marshal(categories)
	if err != nil {
		return "", err
	}
	descJSON, err := json.Marshal(descriptions)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Classify each bank-transaction description into exactly ONE of the categories below.
Reply ONLY with a JSON array of strings, one category per description, in the same order.
No markdown, no comments before or after the JSON.

Categories: %s

Descriptions: %s`, catJSON, descJSON), nil
}

// parseLabels extracts the JSON array from the model reply, tolerating
// markdown fences and surrounding prose. Anything that does not decode to
// a string array of the expected length is a ClassificationError.
func parseLabels(reply string, want int) ([]string, error) {
	content := strings.TrimSpace(reply)

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, &ClassificationError{Reason: fmt.Sprintf("no JSON array in response: %.120s", content)}
	}
	jsonStr := content[start : end+1]

	var labels []string
	if err := json.Unmarshal([]byte(jsonStr), &labels); err != nil {
		jsonStr = strings.TrimSpace(jsonStr)
		jsonStr = strings.TrimPrefix(jsonStr, "```json")
		jsonStr = strings.TrimPrefix(jsonStr, "```")
		jsonStr = strings.TrimSuffix(jsonStr, "```")
		jsonStr = strings.TrimSpace(jsonStr)
		if err := json.Unmarshal([]byte(jsonStr), &labels); err != nil {
			return nil, &ClassificationError{Reason: "response is not a JSON string array", Err: err}
		}
	}

	if len(labels) != want {
		return nil, &ClassificationError{
			Reason: fmt.Sprintf("expected %d labels, got %d", want, len(labels)),
		}
	}
	return labels, nil
}
