package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"grana/internal/models"

	"go.uber.org/zap"
)

// Sample is one labeled training example for the trained classifier.
type Sample struct {
	Description string
	Category    models.TransactionCategory
}

// SampleSource supplies previously manually-classified descriptions to
// enrich the synthetic keyword corpus. Optional.
type SampleSource interface {
	RecentManualSamples(ctx context.Context, limit int) ([]Sample, error)
}

const (
	defaultVocabularyCap = 800
	manualSampleLimit    = 100
	minTokenLen          = 3
)

var stopWords = map[string]struct{}{
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {}, "em": {}, "no": {},
	"na": {}, "nos": {}, "nas": {}, "com": {}, "para": {}, "por": {},
	"um": {}, "uma": {}, "os": {}, "as": {}, "ao": {}, "aos": {}, "que": {},
	"se": {}, "sem": {}, "sob": {}, "the": {}, "and": {}, "ltda": {},
}

// BayesStrategy is a bag-of-words multinomial naive Bayes classifier
// trained from the keyword lists plus a bounded sample of manually
// classified descriptions. Process-wide, read-mostly: predictions share a
// read lock, retraining takes the write lock.
type BayesStrategy struct {
	mu        sync.RWMutex
	keywords  *KeywordStrategy
	samples   SampleSource
	vocabCap  int
	modelPath string
	logger    *zap.Logger

	model *bayesModel
	dirty bool
}

type bayesModel struct {
	Vocabulary  map[string]int                       `json:"vocabulary"`
	WordCounts  map[models.TransactionCategory][]int `json:"word_counts"`
	ClassTokens map[models.TransactionCategory]int   `json:"class_tokens"`
	ClassDocs   map[models.TransactionCategory]int   `json:"class_docs"`
	TotalDocs   int                                  `json:"total_docs"`
	TrainedAt   time.Time                            `json:"trained_at"`
}

func NewBayesStrategy(keywords *KeywordStrategy, samples SampleSource, vocabCap int, modelPath string, logger *zap.Logger) *BayesStrategy {
	if vocabCap <= 0 {
		vocabCap = defaultVocabularyCap
	}
	return &BayesStrategy{
		keywords:  keywords,
		samples:   samples,
		vocabCap:  vocabCap,
		modelPath: modelPath,
		logger:    logger,
	}
}

func (s *BayesStrategy) Name() string { return "bayes" }

func (s *BayesStrategy) Classify(ctx context.Context, batch []*models.Transaction) ([]*models.Transaction, error) {
	if err := s.ensureTrained(ctx); err != nil {
		// A failed (re)train falls back to OTHER per description rather
		// than aborting the batch.
		s.logger.Warn("Classifier training failed, defaulting batch to OTHER", zap.Error(err))
		for _, tx := range batch {
			setCategory(tx, models.CategoryOther, nil)
		}
		return batch, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tx := range batch {
		category, confidence := s.model.predict(tx.Description)
		setCategory(tx, category, confidence)
	}
	return batch, nil
}

// MarkDirty schedules a retrain before the next prediction; called when
// keyword data changes.
func (s *BayesStrategy) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Trained reports whether a usable model is loaded.
func (s *BayesStrategy) Trained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model != nil && !s.dirty
}

func (s *BayesStrategy) ensureTrained(ctx context.Context) error {
	s.mu.RLock()
	ready := s.model != nil && !s.dirty
	s.mu.RUnlock()
	if ready {
		return nil
	}
	return s.Train(ctx)
}

// Train rebuilds the model from scratch: every keyword/category pair is
// one example, plus up to manualSampleLimit recent manually classified
// descriptions. The trained model is snapshotted to disk.
func (s *BayesStrategy) Train(ctx context.Context) error {
	corpus := s.keywords.TrainingSamples()
	if s.samples != nil {
		manual, err := s.samples.RecentManualSamples(ctx, manualSampleLimit)
		if err != nil {
			s.logger.Warn("Failed to load manual classification samples", zap.Error(err))
		} else {
			corpus = append(corpus, manual...)
		}
	}
	if len(corpus) == 0 {
		return errors.New("no training samples")
	}

	model := buildModel(corpus, s.vocabCap)

	s.mu.Lock()
	s.model = model
	s.dirty = false
	s.mu.Unlock()

	if err := s.Save(); err != nil {
		s.logger.Warn("Failed to persist classifier model", zap.Error(err))
	}
	s.logger.Info("Classifier trained",
		zap.Int("samples", len(corpus)),
		zap.Int("vocabulary", len(model.Vocabulary)),
	)
	return nil
}

// Save writes the current model snapshot to the configured path.
func (s *BayesStrategy) Save() error {
	s.mu.RLock()
	model := s.model
	s.mu.RUnlock()
	if model == nil || s.modelPath == "" {
		return nil
	}

	data, err := json.Marshal(model)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.modelPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.modelPath, data, 0o644)
}

// Load restores a previously saved model. A missing or corrupt snapshot
// is treated as "no cached model", never as a fatal error.
func (s *BayesStrategy) Load() {
	if s.modelPath == "" {
		return
	}
	data, err := os.ReadFile(s.modelPath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read classifier model", zap.Error(err))
		}
		return
	}

	var model bayesModel
	if err := json.Unmarshal(data, &model); err != nil || len(model.Vocabulary) == 0 || model.TotalDocs == 0 {
		s.logger.Warn("Discarding corrupt classifier model", zap.String("path", s.modelPath))
		return
	}

	s.mu.Lock()
	s.model = &model
	s.dirty = false
	s.mu.Unlock()
	s.logger.Info("Classifier model loaded",
		zap.String("path", s.modelPath),
		zap.Time("trained_at", model.TrainedAt),
	)
}

func buildModel(corpus []Sample, vocabCap int) *bayesModel {
	// Pass 1: term frequencies for the vocabulary cut.
	freq := make(map[string]int)
	tokenized := make([][]string, len(corpus))
	for i, sample := range corpus {
		tokens := tokenize(sample.Description)
		tokenized[i] = tokens
		for _, tok := range tokens {
			freq[tok]++
		}
	}

	terms := make([]string, 0, len(freq))
	for term := range freq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > vocabCap {
		terms = terms[:vocabCap]
	}

	model := &bayesModel{
		Vocabulary:  make(map[string]int, len(terms)),
		WordCounts:  make(map[models.TransactionCategory][]int),
		ClassTokens: make(map[models.TransactionCategory]int),
		ClassDocs:   make(map[models.TransactionCategory]int),
		TrainedAt:   time.Now(),
	}
	for i, term := range terms {
		model.Vocabulary[term] = i
	}

	// Pass 2: per-class counts.
	for i, sample := range corpus {
		model.ClassDocs[sample.Category]++
		model.TotalDocs++
		counts := model.WordCounts[sample.Category]
		if counts == nil {
			counts = make([]int, len(terms))
			model.WordCounts[sample.Category] = counts
		}
		for _, tok := range tokenized[i] {
			if id, ok := model.Vocabulary[tok]; ok {
				counts[id]++
				model.ClassTokens[sample.Category]++
			}
		}
	}
	return model
}

// predict returns the maximum-posterior category and its probability.
// Descriptions with no vocabulary token fall back to OTHER.
func (m *bayesModel) predict(description string) (models.TransactionCategory, *float64) {
	var ids []int
	for _, tok := range tokenize(description) {
		if id, ok := m.Vocabulary[tok]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return models.CategoryOther, nil
	}

	vocabSize := float64(len(m.Vocabulary))
	scores := make(map[models.TransactionCategory]float64, len(m.ClassDocs))
	for category, docs := range m.ClassDocs {
		score := math.Log(float64(docs) / float64(m.TotalDocs))
		counts := m.WordCounts[category]
		total := float64(m.ClassTokens[category])
		for _, id := range ids {
			var c float64
			if counts != nil {
				c = float64(counts[id])
			}
			score += math.Log((c + 1) / (total + vocabSize))
		}
		scores[category] = score
	}

	best := models.CategoryOther
	bestScore := math.Inf(-1)
	for category, score := range scores {
		if score > bestScore || (score == bestScore && category < best) {
			best = category
			bestScore = score
		}
	}

	// Normalize log scores into the max posterior for the confidence.
	var sum float64
	for _, score := range scores {
		sum += math.Exp(score - bestScore)
	}
	confidence := 1 / sum
	return best, &confidence
}

// tokenize lowercases, strips digits and everything that is neither a
// letter nor a space (accented letters survive), then drops stop-words
// and tokens shorter than minTokenLen runes.
func tokenize(s string) []string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return ' '
		}
	}, s)

	var tokens []string
	for _, tok := range strings.Fields(mapped) {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if len([]rune(tok)) < minTokenLen {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
