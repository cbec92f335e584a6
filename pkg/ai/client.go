package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

var log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

// rateLimitRetryDelay — пауза перед единственным повтором после 429.
const rateLimitRetryDelay = 1500 * time.Millisecond

// generator скрывает конкретный SDK провайдера. Нужен, чтобы политика
// повторов проверялась в тестах без сетевых вызовов.
type generator interface {
	generateText(ctx context.Context, model, prompt string) (string, error)
	generateImage(ctx context.Context, model, prompt, aspectRatio string) ([]byte, error)
}

// Client предоставляет доступ к генеративному API Gemini.
type Client struct {
	gen        generator
	retryDelay time.Duration
}

// New создает новый экземпляр клиента. Ключ API не проверяется здесь:
// он разрешается из окружения при каждом вызове.
func New() *Client {
	return &Client{
		gen:        &genaiGenerator{},
		retryDelay: rateLimitRetryDelay,
	}
}

// GenerateText выполняет текстовую генерацию. При ошибке rate limit
// делает ровно один повтор после фиксированной паузы; повторная неудача
// и любые другие классы ошибок отдаются вызывающему как есть.
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	text, err := c.gen.generateText(ctx, model, prompt)
	if err == nil {
		return strings.TrimSpace(text), nil
	}
	if !IsRateLimited(err) {
		return "", err
	}

	log.Warn().Str("model", model).Msg("rate limit от провайдера, повтор через фиксированную паузу")
	select {
	case <-time.After(c.retryDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	text, err = c.gen.generateText(ctx, model, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// GenerateImage выполняет генерацию изображения. Повторов нет:
// обработка rate limit остаётся на слое оркестрации.
func (c *Client) GenerateImage(ctx context.Context, model, prompt, aspectRatio string) ([]byte, error) {
	return c.gen.generateImage(ctx, model, prompt, aspectRatio)
}

// genaiGenerator — реализация generator поверх google.golang.org/genai.
type genaiGenerator struct{}

// apiKey возвращает первый непустой ключ из принятых переменных окружения.
func apiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

func newGenaiClient(ctx context.Context) (*genai.Client, error) {
	key := apiKey()
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

func (g *genaiGenerator) generateText(ctx context.Context, model, prompt string) (string, error) {
	client, err := newGenaiClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty response from provider")
	}
	return text, nil
}

func (g *genaiGenerator) generateImage(ctx context.Context, model, prompt, aspectRatio string) ([]byte, error) {
	client, err := newGenaiClient(ctx)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	}
	if aspectRatio != "" {
		cfg.AspectRatio = aspectRatio
	}

	resp, err := client.Models.GenerateImages(ctx, model, prompt, cfg)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, errors.New("empty image response from provider")
	}
	return resp.GeneratedImages[0].Image.ImageBytes, nil
}
