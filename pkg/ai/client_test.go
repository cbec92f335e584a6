package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator отдает заранее подготовленные ответы по очереди.
type fakeGenerator struct {
	textCalls  int
	texts      []string
	errs       []error
	imageCalls int
	imageData  []byte
	imageErr   error
}

func (f *fakeGenerator) generateText(ctx context.Context, model, prompt string) (string, error) {
	i := f.textCalls
	f.textCalls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.texts) {
		return f.texts[i], nil
	}
	return "", errors.New("unexpected call")
}

func (f *fakeGenerator) generateImage(ctx context.Context, model, prompt, aspectRatio string) ([]byte, error) {
	f.imageCalls++
	return f.imageData, f.imageErr
}

func newTestClient(gen generator) *Client {
	// Укороченная пауза, чтобы тесты не ждали реальные 1.5 секунды
	return &Client{gen: gen, retryDelay: time.Millisecond}
}

func rateLimitErr() error {
	return fmt.Errorf("%w: quota exceeded", ErrRateLimited)
}

func TestGenerateText_Success(t *testing.T) {
	gen := &fakeGenerator{texts: []string{"  a story  "}}

	text, err := newTestClient(gen).GenerateText(context.Background(), "gemini-2.5-flash", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "a story", text)
	assert.Equal(t, 1, gen.textCalls)
}

func TestGenerateText_RetriesOnceOnRateLimit(t *testing.T) {
	// Первый вызов упирается в rate limit, повтор успешен — ошибка
	// не должна дойти до вызывающего.
	gen := &fakeGenerator{
		errs:  []error{rateLimitErr(), nil},
		texts: []string{"", "recovered story"},
	}

	text, err := newTestClient(gen).GenerateText(context.Background(), "m", "p")
	require.NoError(t, err)
	assert.Equal(t, "recovered story", text)
	assert.Equal(t, 2, gen.textCalls)
}

func TestGenerateText_SecondRateLimitPropagates(t *testing.T) {
	gen := &fakeGenerator{errs: []error{rateLimitErr(), rateLimitErr()}}

	_, err := newTestClient(gen).GenerateText(context.Background(), "m", "p")
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	// Ровно один повтор, не больше
	assert.Equal(t, 2, gen.textCalls)
}

func TestGenerateText_ClientErrorNotRetried(t *testing.T) {
	gen := &fakeGenerator{errs: []error{&ClientError{Code: 400, Message: "bad request"}}}

	_, err := newTestClient(gen).GenerateText(context.Background(), "m", "p")
	require.Error(t, err)

	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, 400, clientErr.Code)
	assert.Equal(t, 1, gen.textCalls)
}

func TestGenerateText_MissingKeyNotRetried(t *testing.T) {
	gen := &fakeGenerator{errs: []error{ErrMissingAPIKey}}

	_, err := newTestClient(gen).GenerateText(context.Background(), "m", "p")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, 1, gen.textCalls)
}

func TestGenerateImage_NoRetry(t *testing.T) {
	gen := &fakeGenerator{imageErr: rateLimitErr()}

	_, err := newTestClient(gen).GenerateImage(context.Background(), "imagen", "p", "1:1")
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	// Политика повторов на изображения не распространяется
	assert.Equal(t, 1, gen.imageCalls)
}

func TestClassifyError_TextualRateLimit(t *testing.T) {
	// Транспортная ошибка без APIError, но с кодом 429 в тексте,
	// тоже классифицируется как rate limit.
	err := classifyError(errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED"))
	assert.True(t, IsRateLimited(err))
}

func TestClassifyError_Nil(t *testing.T) {
	assert.NoError(t, classifyError(nil))
}
