package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from text-embedding-3-small
	DefaultEmbeddingDimensions = 1536
	// DefaultGenerationModel is the chat model used for answer synthesis
	DefaultGenerationModel = openai.GPT4oMini

	generationTemperature = 0.2

	systemPrompt = "You are a compliance-focused RAG assistant. Answer only with provided context and cite chunk_ids."
)

var (
	// ErrEmptyBatch is returned when no texts are supplied for embedding
	ErrEmptyBatch = errors.New("embedding batch cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when no API key is configured
	ErrNoAPIKey = errors.New("openai api key not set")
)

// API defines the slice of the OpenAI surface the client depends on.
type API interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds client configuration.
type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	GenerationModel     string
}

// Client wraps the OpenAI API for batch embedding and answer generation.
// Generation calls run behind a circuit breaker so that a flapping upstream
// trips fast instead of stalling every query.
type Client struct {
	api             API
	embeddingModel  openai.EmbeddingModel
	dimensions      int
	generationModel string
	breaker         *gobreaker.CircuitBreaker[string]
}

// NewClient creates a new OpenAI client with explicit configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.EmbeddingDimensions <= 0 {
		cfg.EmbeddingDimensions = DefaultEmbeddingDimensions
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = DefaultGenerationModel
	}
	return newClient(openai.NewClient(cfg.APIKey), cfg), nil
}

func newClient(api API, cfg Config) *Client {
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name: "openai-generation",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &Client{
		api:             api,
		embeddingModel:  cfg.EmbeddingModel,
		dimensions:      cfg.EmbeddingDimensions,
		generationModel: cfg.GenerationModel,
		breaker:         breaker,
	}
}

// EmbedBatch generates one embedding per input text.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		if len(item.Embedding) != c.dimensions {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, c.dimensions, len(item.Embedding))
		}
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

// Generate synthesizes an answer to the question from the context block.
func (c *Client) Generate(ctx context.Context, question, contextBlock string) (string, error) {
	answer, err := c.breaker.Execute(func() (string, error) {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.generationModel,
			Temperature: generationTemperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{
					Role: openai.ChatMessageRoleUser,
					Content: fmt.Sprintf("Question: %s\nContext:\n%s\nFormat answers with citations like [chunk_id].",
						question, contextBlock),
				},
			},
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("no completion choices returned")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}
