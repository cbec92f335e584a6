package model

import (
	"strings"
	"time"
)

// Story представляет сгенерированную историю вместе с её первой главой.
// Поля options, title и full_text записываются один раз при создании
// и больше не изменяются — накапливаются только главы.
type Story struct {
	ID                 int64        `json:"id" db:"id"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
	Options            StoryOptions `json:"options" db:"options"`
	Title              string       `json:"title" db:"title"`
	FullText           string       `json:"full_text" db:"full_text"`
	IllustrationPrompt *string      `json:"illustration_prompt" db:"illustration_prompt"`
}

// StorySummary — укороченное представление истории для списков.
type StorySummary struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Chapter представляет главу истории. Глава 1 всегда соответствует
// full_text самой истории, последующие главы получают индексы от 2 и выше.
type Chapter struct {
	Index     int       `json:"index" db:"chapter_index"`
	Title     string    `json:"title" db:"chapter_title"`
	Text      string    `json:"text" db:"chapter_text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Character описывает персонажа, заданного пользователем при генерации.
type Character struct {
	Name   string `json:"name"`
	Traits string `json:"traits"`
}

// StoryOptions — параметры генерации в том виде, в котором они были
// разрешены на момент создания истории (человекочитаемые значения,
// а не ключи из запроса).
type StoryOptions struct {
	Genre         string      `json:"genre"`
	Tone          string      `json:"tone"`
	Age           string      `json:"age"`
	Length        string      `json:"length"`
	Setting       string      `json:"setting"`
	Theme         string      `json:"theme"`
	Characters    []Character `json:"characters"`
	Relationships string      `json:"relationships"`
}

// Pairs возвращает пары ключ/значение опций в фиксированном порядке.
// Используется при сборке markdown, чтобы вывод был детерминированным.
func (o StoryOptions) Pairs() [][2]string {
	characters := make([]string, 0, len(o.Characters))
	for _, c := range o.Characters {
		characters = append(characters, c.Name+" ("+c.Traits+")")
	}
	return [][2]string{
		{"genre", o.Genre},
		{"tone", o.Tone},
		{"age", o.Age},
		{"length", o.Length},
		{"setting", o.Setting},
		{"theme", o.Theme},
		{"characters", strings.Join(characters, ", ")},
		{"relationships", o.Relationships},
	}
}

// GenerateRequest — тело запроса POST /api/generate.
type GenerateRequest struct {
	Idea                   string      `json:"idea"`
	Genre                  string      `json:"genre"`
	Tone                   string      `json:"tone"`
	Length                 string      `json:"length"`
	Age                    string      `json:"age"`
	Outline                string      `json:"outline"`
	Setting                string      `json:"setting"`
	Theme                  string      `json:"theme"`
	Characters             []Character `json:"characters"`
	Relationships          string      `json:"relationships"`
	WantIllustrationPrompt *bool       `json:"want_illustration_prompt"`
}

// GenerateResponse — ответ на POST /api/generate.
type GenerateResponse struct {
	StoryID            int64   `json:"story_id"`
	Title              string  `json:"title"`
	Text               string  `json:"text"`
	IllustrationPrompt *string `json:"illustration_prompt"`
}

// OutlineRequest — тело запроса POST /api/outline.
type OutlineRequest struct {
	Idea       string      `json:"idea"`
	Genre      string      `json:"genre"`
	Tone       string      `json:"tone"`
	Length     string      `json:"length"`
	Age        string      `json:"age"`
	Setting    string      `json:"setting"`
	Theme      string      `json:"theme"`
	Characters []Character `json:"characters"`
}

// OutlineResponse — ответ на POST /api/outline.
type OutlineResponse struct {
	Outline string `json:"outline"`
}

// NextChapterRequest — тело запроса POST /api/next.
type NextChapterRequest struct {
	StoryID       int64  `json:"story_id"`
	UserDirection string `json:"user_direction"`
}

// NextChapterResponse — ответ на POST /api/next.
type NextChapterResponse struct {
	ChapterIndex int    `json:"chapter_index"`
	ChapterTitle string `json:"chapter_title"`
	ChapterText  string `json:"chapter_text"`
}

// IllustrateRequest — тело запроса POST /api/illustrate.
type IllustrateRequest struct {
	StoryID     int64  `json:"story_id"`
	AspectRatio string `json:"aspect_ratio"`
}

// IllustrateResponse — ответ на POST /api/illustrate.
type IllustrateResponse struct {
	ImageURL string `json:"image_url"`
}

// StoryDetailResponse — ответ на GET /api/story/{id}.
type StoryDetailResponse struct {
	Story    Story     `json:"story"`
	Chapters []Chapter `json:"chapters"`
}

// StoryListResponse — ответ на GET /api/stories.
type StoryListResponse struct {
	Items []StorySummary `json:"items"`
}
