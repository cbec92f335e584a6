package export

import (
	"fmt"
	"regexp"
	"strings"

	"story-server/internal/model"
)

// Markdown детерминированно собирает markdown-документ истории:
// заголовок, секция опций, полный текст первой генерации, опциональный
// иллюстрационный промпт и главы по порядку индексов. Повторный вызов
// с теми же данными даёт побайтово идентичный результат.
func Markdown(story model.Story, chapters []model.Chapter) string {
	lines := []string{}
	lines = append(lines, fmt.Sprintf("# %s\n", story.Title))
	lines = append(lines, "## Options\n")
	for _, kv := range story.Options.Pairs() {
		lines = append(lines, fmt.Sprintf("- **%s**: %s", kv[0], kv[1]))
	}
	lines = append(lines, "\n---\n")
	lines = append(lines, strings.TrimSpace(story.FullText))

	if story.IllustrationPrompt != nil && *story.IllustrationPrompt != "" {
		lines = append(lines, "\n---\n")
		lines = append(lines, "## Illustration Prompt\n")
		lines = append(lines, strings.TrimSpace(*story.IllustrationPrompt))
	}

	if len(chapters) > 0 {
		lines = append(lines, "\n---\n")
		lines = append(lines, "## Chapters\n")
		for _, ch := range chapters {
			lines = append(lines, fmt.Sprintf("\n### Chapter %d: %s\n", ch.Index, ch.Title))
			lines = append(lines, strings.TrimSpace(ch.Text))
		}
	}

	return strings.Join(lines, "\n")
}

// PlainText превращает markdown в простой текст, срезая префиксы заголовков.
func PlainText(markdown string) string {
	txt := strings.ReplaceAll(markdown, "# ", "")
	txt = strings.ReplaceAll(txt, "## ", "")
	txt = strings.ReplaceAll(txt, "### ", "")
	return txt
}

// Символы, допустимые в имени скачиваемого файла: латиница, цифры,
// тайский диапазон, пробел, подчёркивание и дефис.
var filenameRe = regexp.MustCompile(`[^a-zA-Z0-9ก-๙ _-]+`)

// maxFilenameLen ограничивает длину базового имени файла в символах.
const maxFilenameLen = 80

// Filename строит безопасное базовое имя файла из названия истории.
// Пустой после очистки результат заменяется на story_{id}.
func Filename(title string, storyID int64) string {
	base := strings.TrimSpace(filenameRe.ReplaceAllString(title, ""))
	if base == "" {
		base = fmt.Sprintf("story_%d", storyID)
	}
	if r := []rune(base); len(r) > maxFilenameLen {
		base = string(r[:maxFilenameLen])
	}
	return base
}
