package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	GigaChat   GigaChatConfig
	Classifier ClassifierConfig
	Upload     UploadConfig
	Logger     LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

// Configured reports whether a service credential is present. Without it
// the LLM classification strategy is unavailable.
func (c *GigaChatConfig) Configured() bool {
	return c.APIKey != ""
}

type ClassifierConfig struct {
	// Strategy selects the default category-assignment strategy for
	// uploads that do not name one: keyword, bayes or llm.
	Strategy string
	// LLMBatchSize is the number of descriptions sent per request to the
	// hosted model.
	LLMBatchSize int
	// LLMTimeout bounds each external classification request.
	LLMTimeout time.Duration
	// VocabularyCap limits the bag-of-words vocabulary of the trained
	// classifier to the most frequent terms.
	VocabularyCap int
	// ModelPath is where the trained classifier snapshot is persisted.
	ModelPath string
}

type UploadConfig struct {
	MaxMB int
}

func Load() (*Config, error) {
	// Try to load .env from the current directory or the project root;
	// environment variables alone are fine (Docker/K8s).
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	llmBatch, _ := strconv.Atoi(getEnv("CLASSIFIER_LLM_BATCH", "20"))
	llmTimeout, _ := strconv.Atoi(getEnv("CLASSIFIER_LLM_TIMEOUT", "60"))
	vocabCap, _ := strconv.Atoi(getEnv("CLASSIFIER_VOCAB_CAP", "800"))
	maxUpload, _ := strconv.Atoi(getEnv("MAX_UPLOAD_MB", "10"))
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "grana"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
			InsecureSkipVerify: insecureSkipVerify,
		},
		Classifier: ClassifierConfig{
			Strategy:      getEnv("CLASSIFIER_STRATEGY", "keyword"),
			LLMBatchSize:  llmBatch,
			LLMTimeout:    time.Duration(llmTimeout) * time.Second,
			VocabularyCap: vocabCap,
			ModelPath:     getEnv("CLASSIFIER_MODEL_PATH", "data/classifier.json"),
		},
		Upload: UploadConfig{
			MaxMB: maxUpload,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
