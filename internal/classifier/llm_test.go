package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"grana/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	replies []string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

type memCache struct {
	entries map[string]models.TransactionCategory
	upserts int
	lookErr error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]models.TransactionCategory)}
}

func (m *memCache) Lookup(ctx context.Context, descriptions []string) (map[string]models.TransactionCategory, error) {
	if m.lookErr != nil {
		return nil, m.lookErr
	}
	out := make(map[string]models.TransactionCategory)
	for _, d := range descriptions {
		if c, ok := m.entries[d]; ok {
			out[d] = c
		}
	}
	return out, nil
}

func (m *memCache) Upsert(ctx context.Context, entries map[string]models.TransactionCategory) error {
	m.upserts++
	for d, c := range entries {
		m.entries[d] = c
	}
	return nil
}

func newTestLLM(gen Generator, cache CacheStore) *LLMStrategy {
	return NewLLMStrategy(gen, cache, 2, time.Second, zap.NewNop())
}

func TestLLMClassify(t *testing.T) {
	gen := &fakeGenerator{replies: []string{`["FOOD", "TRANSPORT"]`}}
	cache := newMemCache()
	s := newTestLLM(gen, cache)

	batch := []*models.Transaction{tx("IFOOD PEDIDO"), tx("UBER TRIP")}
	_, err := s.Classify(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, models.CategoryFood, *batch[0].AICategory)
	assert.Equal(t, models.CategoryTransport, *batch[1].AICategory)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 1, cache.upserts)
	assert.Equal(t, models.CategoryFood, cache.entries["IFOOD PEDIDO"])
}

func TestLLMCacheShortCircuit(t *testing.T) {
	gen := &fakeGenerator{replies: []string{`[]`}}
	cache := newMemCache()
	cache.entries["IFOOD PEDIDO"] = models.CategoryFood
	s := newTestLLM(gen, cache)

	batch := []*models.Transaction{tx("IFOOD PEDIDO"), tx("IFOOD PEDIDO")}
	_, err := s.Classify(context.Background(), batch)
	require.NoError(t, err)

	assert.Zero(t, gen.calls)
	assert.Equal(t, models.CategoryFood, *batch[0].AICategory)
	assert.Equal(t, models.CategoryFood, *batch[1].AICategory)
}

func TestLLMMarkdownFencedReply(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"Here you go:\n```json\n[\"HOUSING\"]\n```"}}
	s := newTestLLM(gen, newMemCache())

	batch := []*models.Transaction{tx("ALUGUEL JANEIRO")}
	_, err := s.Classify(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryHousing, *batch[0].AICategory)
}

func TestLLMMalformedReplyDefaultsToOther(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"sorry, I cannot help with that"}}
	s := newTestLLM(gen, newMemCache())

	batch := []*models.Transaction{tx("LOJA X")}
	_, err := s.Classify(context.Background(), batch)
	require.Error(t, err)

	var ce *ClassificationError
	assert.ErrorAs(t, err, &ce)
	require.NotNil(t, batch[0].AICategory)
	assert.Equal(t, models.CategoryOther, *batch[0].AICategory)
}

func TestLLMOneFailedBatchKeepsOthers(t *testing.T) {
	// Batch size 2 and three descriptions: first chunk succeeds, second
	// returns the wrong label count.
	gen := &fakeGenerator{replies: []string{`["FOOD", "TRANSPORT"]`, `["FOOD", "FOOD"]`}}
	cache := newMemCache()
	s := newTestLLM(gen, cache)

	batch := []*models.Transaction{tx("A"), tx("B"), tx("C")}
	_, err := s.Classify(context.Background(), batch)
	require.Error(t, err)

	assert.Equal(t, models.CategoryFood, *batch[0].AICategory)
	assert.Equal(t, models.CategoryTransport, *batch[1].AICategory)
	assert.Equal(t, models.CategoryOther, *batch[2].AICategory)
	assert.Equal(t, models.CategoryFood, cache.entries["A"])
}

func TestLLMUnknownLabelBecomesOther(t *testing.T) {
	gen := &fakeGenerator{replies: []string{`["GROCERIES"]`}}
	s := newTestLLM(gen, newMemCache())

	batch := []*models.Transaction{tx("LOJA X")}
	_, err := s.Classify(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryOther, *batch[0].AICategory)
}

func TestLLMLookupFailureDegrades(t *testing.T) {
	gen := &fakeGenerator{replies: []string{`["FOOD"]`}}
	cache := newMemCache()
	cache.lookErr = errors.New("db down")
	s := newTestLLM(gen, cache)

	batch := []*models.Transaction{tx("IFOOD PEDIDO")}
	_, err := s.Classify(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryFood, *batch[0].AICategory)
}

func TestParseLabels(t *testing.T) {
	labels, err := parseLabels(`noise ["FOOD","OTHER"] trailing`, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"FOOD", "OTHER"}, labels)

	_, err = parseLabels(`["FOOD"]`, 2)
	require.Error(t, err)

	_, err = parseLabels(`[1, 2]`, 2)
	require.Error(t, err)
}
