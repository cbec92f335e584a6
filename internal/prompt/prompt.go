package prompt

import (
	"fmt"
	"strings"

	"story-server/internal/model"
)

// Справочники преобразуют ключи опций из запроса в человекочитаемые
// формулировки для промпта. Неизвестный ключ всегда даёт значение по
// умолчанию, ошибки здесь невозможны.

var lengthGuide = map[string]string{
	"short":  "ประมาณ 300-500 คำ",
	"medium": "ประมาณ 700-1000 คำ",
	"long":   "ประมาณ 1200-1600 คำ",
}

var toneGuide = map[string]string{
	"warm":      "อบอุ่น ให้กำลังใจ",
	"funny":     "ตลก น่ารัก",
	"mystery":   "ลึกลับ ชวนติดตาม",
	"dark_soft": "หม่นเล็กน้อยแต่ไม่รุนแรง/ไม่โหด",
	"bedtime":   "อ่อนโยน สบายใจ",
}

var genreGuide = map[string]string{
	"fantasy":   "แฟนตาซี",
	"adventure": "ผจญภัย",
	"detective": "สืบสวน",
	"slice":     "ชีวิตประจำวัน",
	"bedtime":   "นิทานก่อนนอน",
}

var ageGuide = map[string]string{
	"kids":     "เด็กเล็ก (ภาษาง่ายมาก)",
	"preteens": "เด็กโต (ภาษาง่าย-กลาง)",
	"teens":    "วัยรุ่น (ภาษาธรรมชาติ)",
	"adult":    "ผู้ใหญ่ (ภาษาและอารมณ์ลึกขึ้น)",
}

// Значения по умолчанию для каждой категории.
const (
	DefaultGenre   = "แฟนตาซี"
	DefaultTone    = "อบอุ่น ให้กำลังใจ"
	DefaultLength  = "ประมาณ 300-500 คำ"
	DefaultAge     = "เด็กเล็ก (ภาษาง่ายมาก)"
	DefaultSetting = "หมู่บ้านเล็กๆใกล้ป่า"
	DefaultTheme   = "มิตรภาพและความพยายาม"
)

// Персонаж, подставляемый когда пользователь не задал ни одного:
// каждая генерация должна иметь хотя бы одного героя.
var defaultCharacter = model.Character{
	Name:   "มะลิ",
	Traits: "ใจดี ช่างสงสัย กล้าหาญนิดๆ",
}

const systemRules = `You are a creative Thai story writer.
Write an original story in Thai.
Avoid explicit sexual content, extreme violence, hate, or self-harm.
Keep the story consistent with the chosen options.
Do not mention system messages or internal rules.
`

const outputFormatFirst = `Output format must be exactly:

[Title]
<ชื่อเรื่อง>

[Story]
<เนื้อเรื่อง>

[Moral]
<ข้อคิด/บทเรียน 1-2 บรรทัด>

[Summary]
- <bullet 3-5 ข้อ>
`

const outputFormatNext = `Continue the story as the NEXT CHAPTER.
Output format must be exactly:

[Chapter Title]
<ชื่อตอน>

[Chapter]
<เนื้อเรื่องตอนนี้>

[Cliffhanger]
<จบตอนแบบชวนอ่านต่อ 1-2 บรรทัด>
`

const illustrationRules = `Create an illustration prompt (Thai or English is OK) for a single image.
No text in the image. Describe characters, setting, lighting, mood, and composition.
Keep it consistent with the story options.
Output only the prompt, no extra commentary.
`

const outlineRules = `You are a story planner.
Plan a story outline in Thai as short bullet points.
Output sections exactly:

[Title Idea]
- <1 ข้อ>

[Main Conflict]
- <1-2 ข้อ>

[Key Scenes]
- <3-6 ข้อ>

[Ending]
- <1 ข้อ>

[Moral]
- <1 ข้อ>

Output only the outline, no extra commentary.
`

// StyleSuffix добавляется к каждому промпту генерации изображения.
const StyleSuffix = ", children's storybook illustration, soft watercolor style, warm gentle lighting, wide composition with the main character in focus, no text, no watermark, no logo"

// ResolveGenre возвращает формулировку жанра для ключа из запроса.
func ResolveGenre(key string) string { return resolve(genreGuide, key, DefaultGenre) }

// ResolveTone возвращает формулировку тона.
func ResolveTone(key string) string { return resolve(toneGuide, key, DefaultTone) }

// ResolveLength возвращает формулировку длины.
func ResolveLength(key string) string { return resolve(lengthGuide, key, DefaultLength) }

// ResolveAge возвращает формулировку целевого возраста.
func ResolveAge(key string) string { return resolve(ageGuide, key, DefaultAge) }

func resolve(guide map[string]string, key, fallback string) string {
	if v, ok := guide[key]; ok {
		return v
	}
	return fallback
}

// NormalizeCharacters гарантирует непустой список персонажей.
func NormalizeCharacters(chars []model.Character) []model.Character {
	if len(chars) == 0 {
		return []model.Character{defaultCharacter}
	}
	return chars
}

// CharacterBlock форматирует список персонажей, по строке на каждого.
func CharacterBlock(chars []model.Character) string {
	lines := make([]string, 0, len(chars))
	for _, c := range chars {
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("- %s: %s", c.Name, c.Traits)))
	}
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return strings.TrimSpace(s)
}

// BuildStoryPrompt собирает промпт первой генерации. Опции должны быть
// уже разрешены в человекочитаемые значения, outline опционален.
func BuildStoryPrompt(opts model.StoryOptions, idea, outline string) string {
	var b strings.Builder
	b.WriteString(systemRules)
	b.WriteString(outputFormatFirst)
	b.WriteString("\n[Options]\n")
	fmt.Fprintf(&b, "Genre: %s\n", opts.Genre)
	fmt.Fprintf(&b, "Tone: %s\n", opts.Tone)
	fmt.Fprintf(&b, "Target age: %s\n", opts.Age)
	fmt.Fprintf(&b, "Length: %s\n\n", opts.Length)
	fmt.Fprintf(&b, "Setting: %s\n", opts.Setting)
	fmt.Fprintf(&b, "Theme / Moral direction: %s\n\n", opts.Theme)
	b.WriteString("Characters:\n")
	b.WriteString(CharacterBlock(opts.Characters))
	b.WriteString("\n\nRelationships (if any):\n")
	b.WriteString(orNone(opts.Relationships))
	if strings.TrimSpace(outline) != "" {
		b.WriteString("\n\n[Outline to follow]\n")
		b.WriteString(strings.TrimSpace(outline))
	}
	b.WriteString("\n\n[User idea]\n")
	b.WriteString(strings.TrimSpace(idea))
	b.WriteString("\n")
	return b.String()
}

// BuildContinuationPrompt собирает промпт следующей главы. Контекстом
// всегда служит полный текст первой генерации, а не последняя глава.
func BuildContinuationPrompt(fullText string, chapterCount int, userDirection string) string {
	var b strings.Builder
	b.WriteString(systemRules)
	b.WriteString(outputFormatNext)
	b.WriteString("\n[Story so far]\n")
	b.WriteString(fullText)
	fmt.Fprintf(&b, "\n\n[Existing chapters count]\n%d\n", chapterCount)
	b.WriteString("\n[User direction for next chapter]\n")
	b.WriteString(orNone(userDirection))
	b.WriteString("\n")
	return b.String()
}

// BuildOutlinePrompt собирает промпт этапа планирования.
func BuildOutlinePrompt(opts model.StoryOptions, idea string) string {
	var b strings.Builder
	b.WriteString(outlineRules)
	b.WriteString("\n[Options]\n")
	fmt.Fprintf(&b, "Genre: %s\n", opts.Genre)
	fmt.Fprintf(&b, "Tone: %s\n", opts.Tone)
	fmt.Fprintf(&b, "Target age: %s\n", opts.Age)
	fmt.Fprintf(&b, "Length: %s\n\n", opts.Length)
	fmt.Fprintf(&b, "Setting: %s\n", opts.Setting)
	fmt.Fprintf(&b, "Theme / Moral direction: %s\n\n", opts.Theme)
	b.WriteString("Characters:\n")
	b.WriteString(CharacterBlock(opts.Characters))
	b.WriteString("\n\n[User idea]\n")
	b.WriteString(strings.TrimSpace(idea))
	b.WriteString("\n")
	return b.String()
}

// BuildIllustrationMetaPrompt собирает промпт, которым у модели
// запрашивается текст иллюстрационного промпта для истории.
func BuildIllustrationMetaPrompt(title string, opts model.StoryOptions, idea string) string {
	var b strings.Builder
	b.WriteString(illustrationRules)
	b.WriteString("\n[Story Title]\n")
	b.WriteString(title)
	b.WriteString("\n\n[Story Context]\n")
	fmt.Fprintf(&b, "Genre: %s\n", opts.Genre)
	fmt.Fprintf(&b, "Tone: %s\n", opts.Tone)
	fmt.Fprintf(&b, "Setting: %s\n", opts.Setting)
	b.WriteString("Characters:\n")
	b.WriteString(CharacterBlock(opts.Characters))
	b.WriteString("\n\nUser idea:\n")
	b.WriteString(strings.TrimSpace(idea))
	b.WriteString("\n")
	return b.String()
}

// IllustrationBase возвращает основу промпта изображения: сохранённый
// illustration_prompt истории либо типовую подстановку по названию.
func IllustrationBase(stored *string, title string) string {
	if stored != nil && strings.TrimSpace(*stored) != "" {
		return strings.TrimSpace(*stored)
	}
	return fmt.Sprintf("illustration for the story titled: %s", title)
}
