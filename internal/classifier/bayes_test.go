package classifier

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"grana/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSampleSource struct {
	samples []Sample
	err     error
}

func (f *fakeSampleSource) RecentManualSamples(ctx context.Context, limit int) ([]Sample, error) {
	return f.samples, f.err
}

func newTestBayes(t *testing.T, samples SampleSource) *BayesStrategy {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	return NewBayesStrategy(NewKeywordStrategy(), samples, 0, path, zap.NewNop())
}

func TestBayesTrainAndPredict(t *testing.T) {
	s := newTestBayes(t, nil)
	require.NoError(t, s.Train(context.Background()))
	assert.True(t, s.Trained())

	batch := []*models.Transaction{tx("UBER VIAGEM CENTRO")}
	_, err := s.Classify(context.Background(), batch)
	require.NoError(t, err)
	require.NotNil(t, batch[0].AICategory)
	assert.Equal(t, models.CategoryTransport, *batch[0].AICategory)
	require.NotNil(t, batch[0].AIConfidence)
	assert.Greater(t, *batch[0].AIConfidence, 0.0)
	assert.LessOrEqual(t, *batch[0].AIConfidence, 1.0)
}

func TestBayesAutoTrainsOnFirstClassify(t *testing.T) {
	s := newTestBayes(t, nil)
	assert.False(t, s.Trained())

	batch := []*models.Transaction{tx("RESTAURANTE BOM SABOR")}
	_, err := s.Classify(context.Background(), batch)
	require.NoError(t, err)
	assert.True(t, s.Trained())
	assert.Equal(t, models.CategoryFood, *batch[0].AICategory)
}

func TestBayesManualSamplesJoinCorpus(t *testing.T) {
	src := &fakeSampleSource{samples: []Sample{
		{Description: "zyxcorp mensalidade clube", Category: models.CategoryLeisure},
		{Description: "zyxcorp clube socios", Category: models.CategoryLeisure},
		{Description: "zyxcorp clube anuidade", Category: models.CategoryLeisure},
	}}
	s := newTestBayes(t, src)
	require.NoError(t, s.Train(context.Background()))

	batch := []*models.Transaction{tx("ZYXCORP CLUBE")}
	_, err := s.Classify(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryLeisure, *batch[0].AICategory)
}

func TestBayesUnknownTokensFallBack(t *testing.T) {
	s := newTestBayes(t, nil)
	require.NoError(t, s.Train(context.Background()))

	batch := []*models.Transaction{tx("qqqq wwww 9999")}
	_, err := s.Classify(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryOther, *batch[0].AICategory)
	assert.Nil(t, batch[0].AIConfidence)
}

func TestBayesMarkDirtyRetrains(t *testing.T) {
	s := newTestBayes(t, nil)
	require.NoError(t, s.Train(context.Background()))
	require.True(t, s.Trained())

	s.MarkDirty()
	assert.False(t, s.Trained())

	_, err := s.Classify(context.Background(), []*models.Transaction{tx("UBER")})
	require.NoError(t, err)
	assert.True(t, s.Trained())
}

func TestBayesSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	first := NewBayesStrategy(NewKeywordStrategy(), nil, 0, path, zap.NewNop())
	require.NoError(t, first.Train(context.Background()))

	second := NewBayesStrategy(NewKeywordStrategy(), nil, 0, path, zap.NewNop())
	assert.False(t, second.Trained())
	second.Load()
	assert.True(t, second.Trained())

	batch := []*models.Transaction{tx("FARMACIA POPULAR")}
	_, err := second.Classify(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryHealth, *batch[0].AICategory)
}

func TestBayesLoadCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewBayesStrategy(NewKeywordStrategy(), nil, 0, path, zap.NewNop())
	s.Load()
	assert.False(t, s.Trained())
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("PIX p/ João da Silva 123,45 LTDA")
	assert.Equal(t, []string{"pix", "joão", "silva"}, tokens)
}
