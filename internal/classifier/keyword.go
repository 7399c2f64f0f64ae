package classifier

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"grana/internal/models"
)

// defaultKeywords holds the curated keyword lists per built-in category.
// Matching is accent and case insensitive; enumeration order for
// tie-breaking comes from models.DefaultCategories.
func defaultKeywords() map[models.TransactionCategory][]string {
	return map[models.TransactionCategory][]string{
		models.CategoryFood: {
			"restaurante", "mercado", "supermercado", "padaria", "lanche",
			"ifood", "delivery", "comida", "cafe", "almoco", "jantar", "acougue",
			"feira", "hortifruti", "bakery", "food", "starbucks", "mcdonalds",
		},
		models.CategoryTransport: {
			"uber", "taxi", "onibus", "metro", "combustivel", "estacionamento",
			"posto", "gasolina", "etanol", "diesel", "pedagio", "uber eats",
			"99", "cabify", "aluguel carro", "locadora", "ipva", "licenciamento",
		},
		models.CategoryHousing: {
			"aluguel", "condominio", "luz", "agua", "energia", "internet",
			"telefone", "gas", "iptu", "reforma", "manutencao", "limpeza",
			"eletropaulo", "sabesp", "vivo", "claro", "oi", "tim", "net",
		},
		models.CategoryHealth: {
			"farmacia", "hospital", "medico", "plano", "remedio", "consulta",
			"dentista", "laboratorio", "exame", "academia", "fisioterapia", "psicologo",
			"drogaria", "drogasil", "raia", "pague menos", "unimed", "amil", "bradesco saude",
		},
		models.CategoryEducation: {
			"curso", "faculdade", "livro", "material", "escola", "universidade",
			"mensalidade", "matricula", "cursinho", "ingles", "espanhol", "professor",
			"fatec", "senac", "senai", "cultura inglesa", "wizard",
		},
		models.CategoryLeisure: {
			"cinema", "shopping", "viagem", "hotel", "netflix", "spotify", "streaming",
			"show", "teatro", "parque", "praia", "festival", "disney", "ingresso",
			"hbo", "prime video", "disney+", "youtube premium",
		},
		models.CategoryClothing: {
			"roupa", "calcado", "loja", "moda", "tenis", "camisa",
			"calca", "vestido", "sapato", "sandalia", "bolsa", "acessorio",
			"renner", "riachuelo", "c&a", "marisa", "zara", "h&m",
		},
		models.CategoryServices: {
			"conta", "imposto", "tarifa", "assinatura", "conserto",
			"seguro", "financiamento", "taxa", "juros", "multa",
			"irpf", "darj", "das", "gnre",
		},
		models.CategorySalary: {
			"salario", "pagamento", "rendimento", "pro-labore", "dividendo", "provento",
			"beneficio", "adicional", "bonificacao", "13o", "ferias", "rescisao",
		},
		models.CategoryTransfer: {
			"transferencia", "pix", "ted", "doc", "recebimento",
			"envio", "deposito", "saque", "boleto", "debito automatico",
		},
		models.CategoryInvestment: {
			"aplicacao", "investimento", "renda fixa", "tesouro direto", "cdb",
			"lci", "lca", "fii", "acoes", "bolsa", "b3", "corretora", "xp",
			"rico", "btg", "clear", "inter", "nubank", "modalmais",
		},
		models.CategoryOther: {},
	}
}

// KeywordStrategy matches descriptions against per-category keyword lists.
// Deterministic and offline; ties resolve to the first category in the
// stable enumeration order.
type KeywordStrategy struct {
	mu       sync.RWMutex
	keywords map[models.TransactionCategory][]string
}

func NewKeywordStrategy() *KeywordStrategy {
	return &KeywordStrategy{keywords: defaultKeywords()}
}

func (s *KeywordStrategy) Name() string { return "keyword" }

func (s *KeywordStrategy) Classify(ctx context.Context, batch []*models.Transaction) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range batch {
		setCategory(tx, s.match(tx.Description), nil)
	}
	return batch, nil
}

func (s *KeywordStrategy) match(description string) models.TransactionCategory {
	haystack := " " + wordsOf(description) + " "
	for _, category := range models.DefaultCategories {
		for _, keyword := range s.keywords[category] {
			if strings.Contains(haystack, " "+wordsOf(keyword)+" ") {
				return category
			}
		}
	}
	return models.CategoryOther
}

// wordsOf folds case and accents and collapses every run of
// non-alphanumeric characters to a single space. Keywords match whole
// words only; short entries like "oi" or "gas" must not fire inside
// unrelated merchant names.
func wordsOf(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, fold(s))
	return strings.Join(strings.Fields(mapped), " ")
}

// Keywords returns a copy of the keyword list for a category.
func (s *KeywordStrategy) Keywords(category models.TransactionCategory) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.keywords[category]...)
}

// AddKeyword appends a keyword to a category's list. Returns false when
// the category is unknown or the keyword is already present.
func (s *KeywordStrategy) AddKeyword(category models.TransactionCategory, keyword string) bool {
	if !models.ValidCategory(category) {
		return false
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.keywords[category] {
		if strings.EqualFold(existing, keyword) {
			return false
		}
	}
	s.keywords[category] = append(s.keywords[category], keyword)
	return true
}

// TrainingSamples exposes every keyword/category pair, which doubles as
// the synthetic training corpus for the trained classifier.
func (s *KeywordStrategy) TrainingSamples() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var samples []Sample
	for _, category := range models.DefaultCategories {
		for _, keyword := range s.keywords[category] {
			samples = append(samples, Sample{Description: keyword, Category: category})
		}
	}
	return samples
}
