package ai

import (
	"regexp"
	"strings"
)

// Парсинг ответов модели. Формат ответа задаётся промптом, но модель
// может его нарушить, поэтому отсутствие маркера — не ошибка: каждая
// функция возвращает либо найденное значение, либо запасное.

const (
	// FallbackTitle подставляется, когда в ответе нет секции [Title].
	FallbackTitle = "Untitled Story"
	// FallbackChapterTitle подставляется, когда нет секции [Chapter Title].
	FallbackChapterTitle = "Next Chapter"

	// maxTitleLen ограничивает длину извлечённого названия в символах.
	maxTitleLen = 120
)

var (
	titleRe        = regexp.MustCompile(`\[Title\]\s*\n(.+)`)
	chapterTitleRe = regexp.MustCompile(`\[Chapter Title\]\s*\n(.+)`)
)

// ExtractTitle ищет маркер [Title] и берёт следующую непустую строку,
// обрезая её до maxTitleLen символов. Второй результат сообщает, был ли
// маркер найден.
func ExtractTitle(text string) (string, bool) {
	m := titleRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	title := strings.TrimSpace(m[1])
	if title == "" {
		return "", false
	}
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen])
	}
	return title, true
}

// TitleOrFallback возвращает извлечённое название либо FallbackTitle.
func TitleOrFallback(text string) string {
	if title, ok := ExtractTitle(text); ok {
		return title
	}
	return FallbackTitle
}

// ExtractChapter разбирает ответ продолжения. Название берётся из
// секции [Chapter Title], текст главы — весь ответ целиком: секция
// [Chapter] из окружающих не вырезается, и [Cliffhanger] остаётся
// в теле дословно. Это известная шероховатость формата, сохранённая
// намеренно.
func ExtractChapter(text string) (title, body string) {
	body = strings.TrimSpace(text)
	if m := chapterTitleRe.FindStringSubmatch(text); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if title == "" {
		title = FallbackChapterTitle
	}
	return title, body
}
