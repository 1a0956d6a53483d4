package openai

import (
	"context"
	"errors"
	"testing"

	sdkopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) CreateEmbeddings(ctx context.Context, req sdkopenai.EmbeddingRequestConverter) (sdkopenai.EmbeddingResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(sdkopenai.EmbeddingResponse), args.Error(1)
}

func (m *mockAPI) CreateChatCompletion(ctx context.Context, req sdkopenai.ChatCompletionRequest) (sdkopenai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(sdkopenai.ChatCompletionResponse), args.Error(1)
}

func testClient(api API) *Client {
	return newClient(api, Config{
		EmbeddingModel:      DefaultEmbeddingModel,
		EmbeddingDimensions: 3,
		GenerationModel:     DefaultGenerationModel,
	})
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestEmbedBatch_Success(t *testing.T) {
	api := new(mockAPI)
	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(sdkopenai.EmbeddingResponse{
		Data: []sdkopenai.Embedding{
			{Embedding: []float32{0.1, 0.2, 0.3}},
			{Embedding: []float32{0.4, 0.5, 0.6}},
		},
	}, nil)

	client := testClient(api)
	vectors, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}, vectors)
	api.AssertExpectations(t)
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	client := testClient(new(mockAPI))

	_, err := client.EmbedBatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestEmbedBatch_WrongDimensions(t *testing.T) {
	api := new(mockAPI)
	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(sdkopenai.EmbeddingResponse{
		Data: []sdkopenai.Embedding{{Embedding: []float32{0.1}}},
	}, nil)

	client := testClient(api)
	_, err := client.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	api := new(mockAPI)
	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(sdkopenai.EmbeddingResponse{
		Data: []sdkopenai.Embedding{{Embedding: []float32{0.1, 0.2, 0.3}}},
	}, nil)

	client := testClient(api)
	_, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestGenerate_Success(t *testing.T) {
	api := new(mockAPI)
	api.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req sdkopenai.ChatCompletionRequest) bool {
		return len(req.Messages) == 2 &&
			req.Messages[0].Role == sdkopenai.ChatMessageRoleSystem &&
			req.Messages[1].Role == sdkopenai.ChatMessageRoleUser
	})).Return(sdkopenai.ChatCompletionResponse{
		Choices: []sdkopenai.ChatCompletionChoice{
			{Message: sdkopenai.ChatCompletionMessage{Content: "Two days [c1]."}},
		},
	}, nil)

	client := testClient(api)
	answer, err := client.Generate(context.Background(), "How long?", "[c1] context")
	require.NoError(t, err)

	assert.Equal(t, "Two days [c1].", answer)
	api.AssertExpectations(t)
}

func TestGenerate_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	api := new(mockAPI)
	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(
		sdkopenai.ChatCompletionResponse{}, errors.New("upstream error"))

	client := testClient(api)
	for i := 0; i < 3; i++ {
		_, err := client.Generate(context.Background(), "q", "ctx")
		require.Error(t, err)
	}

	// Breaker is open now: the API must not be called again.
	_, err := client.Generate(context.Background(), "q", "ctx")
	require.Error(t, err)
	api.AssertNumberOfCalls(t, "CreateChatCompletion", 3)
}

func TestGenerate_NoChoices(t *testing.T) {
	api := new(mockAPI)
	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(
		sdkopenai.ChatCompletionResponse{}, nil)

	client := testClient(api)
	_, err := client.Generate(context.Background(), "q", "ctx")
	assert.Error(t, err)
}
