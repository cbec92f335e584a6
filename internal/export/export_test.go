package export_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"story-server/internal/export"
	"story-server/internal/model"
)

func sampleStory() model.Story {
	prompt := "a brave rabbit under a mango tree"
	return model.Story{
		ID:    42,
		Title: "กระต่ายผู้กล้า",
		Options: model.StoryOptions{
			Genre:   "ผจญภัย",
			Tone:    "อบอุ่น",
			Age:     "4-6 ปี",
			Length:  "สั้น",
			Setting: "หมู่บ้านเล็กๆใกล้ป่า",
			Theme:   "มิตรภาพและความพยายาม",
			Characters: []model.Character{
				{Name: "มะลิ", Traits: "ใจดี ช่างสงสัย กล้าหาญนิดๆ"},
			},
			Relationships: "เพื่อนรัก",
		},
		FullText:           "  [Title]\nกระต่ายผู้กล้า\n\nกาลครั้งหนึ่ง...  ",
		IllustrationPrompt: &prompt,
	}
}

func sampleChapters() []model.Chapter {
	return []model.Chapter{
		{Index: 1, Title: "Chapter 1", Text: "กาลครั้งหนึ่ง..."},
		{Index: 2, Title: "การเดินทาง", Text: "  วันต่อมา...  "},
	}
}

func TestMarkdown_SectionOrder(t *testing.T) {
	md := export.Markdown(sampleStory(), sampleChapters())

	// Секции идут в фиксированном порядке
	idxTitle := strings.Index(md, "# กระต่ายผู้กล้า")
	idxOptions := strings.Index(md, "## Options")
	idxIllustration := strings.Index(md, "## Illustration Prompt")
	idxChapters := strings.Index(md, "## Chapters")

	require.GreaterOrEqual(t, idxTitle, 0)
	assert.Greater(t, idxOptions, idxTitle)
	assert.Greater(t, idxIllustration, idxOptions)
	assert.Greater(t, idxChapters, idxIllustration)

	assert.Contains(t, md, "- **genre**: ผจญภัย")
	assert.Contains(t, md, "- **characters**: มะลิ (ใจดี ช่างสงสัย กล้าหาญนิดๆ)")
	assert.Contains(t, md, "### Chapter 1: Chapter 1")
	assert.Contains(t, md, "### Chapter 2: การเดินทาง")
	// Текст глав и истории попадает в документ без хвостовых пробелов
	assert.Contains(t, md, "วันต่อมา...")
	assert.NotContains(t, md, "  วันต่อมา")
}

func TestMarkdown_Deterministic(t *testing.T) {
	story := sampleStory()
	chapters := sampleChapters()

	first := export.Markdown(story, chapters)
	second := export.Markdown(story, chapters)
	assert.Equal(t, first, second)
}

func TestMarkdown_NoIllustrationPrompt(t *testing.T) {
	story := sampleStory()
	story.IllustrationPrompt = nil

	md := export.Markdown(story, nil)
	assert.NotContains(t, md, "## Illustration Prompt")
	assert.NotContains(t, md, "## Chapters")
}

func TestPlainText_StripsHeadings(t *testing.T) {
	md := export.Markdown(sampleStory(), sampleChapters())
	txt := export.PlainText(md)

	assert.NotContains(t, txt, "# ")
	assert.Contains(t, txt, "กระต่ายผู้กล้า")
	assert.Contains(t, txt, "Options")
}

func TestFilename_KeepsThaiAndLatin(t *testing.T) {
	assert.Equal(t, "กระต่ายผู้กล้า - Part 2", export.Filename("กระต่ายผู้กล้า - Part 2!?", 1))
}

func TestFilename_FallbackWhenEmpty(t *testing.T) {
	assert.Equal(t, "story_42", export.Filename("!!!???", 42))
	assert.Equal(t, "story_7", export.Filename("   ", 7))
}

func TestFilename_Truncates(t *testing.T) {
	long := strings.Repeat("ก", 200)
	got := export.Filename(long, 1)
	assert.Equal(t, 80, len([]rune(got)))
	assert.Equal(t, strings.Repeat("ก", 80), got)
}

func TestFilename_Unique(t *testing.T) {
	// Разные истории без пригодного названия не должны коллидировать
	a := export.Filename("", 1)
	b := export.Filename("", 2)
	assert.NotEqual(t, a, b)
	assert.Equal(t, fmt.Sprintf("story_%d", 1), a)
}
