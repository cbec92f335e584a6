package ai

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ErrMissingAPIKey возвращается, когда в окружении нет ни GEMINI_API_KEY,
// ни GOOGLE_API_KEY. Это ошибка конфигурации процесса, а не провайдера.
var ErrMissingAPIKey = errors.New("missing GEMINI_API_KEY or GOOGLE_API_KEY in environment/.env")

// ErrRateLimited сигнализирует об исчерпании квоты провайдера (429).
var ErrRateLimited = errors.New("provider rate limit exceeded")

// ClientError — прочие клиентские (4xx) ошибки провайдера.
type ClientError struct {
	Code    int
	Message string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("provider client error %d: %s", e.Code, e.Message)
}

// ServerError — серверные (5xx) ошибки провайдера.
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("provider server error %d: %s", e.Code, e.Message)
}

// classifyError переводит ошибку genai в типизированную ошибку клиента.
// Порядок проверок: сначала rate limit, затем остальные 4xx, затем 5xx.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED":
			return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		case apiErr.Code >= 400 && apiErr.Code < 500:
			return &ClientError{Code: apiErr.Code, Message: apiErr.Message}
		case apiErr.Code >= 500:
			return &ServerError{Code: apiErr.Code, Message: apiErr.Message}
		}
	}

	// Транспортные ошибки не всегда доходят как APIError,
	// поэтому дополнительно смотрим на текст.
	s := err.Error()
	if strings.Contains(s, "429") || strings.Contains(s, "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%w: %s", ErrRateLimited, s)
	}

	return err
}

// IsRateLimited сообщает, является ли ошибка ошибкой исчерпания квоты.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
