package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"story-server/internal/config"
	"story-server/internal/model"
	"story-server/internal/prompt"
	"story-server/internal/repository"
	"story-server/pkg/ai"
)

// ErrEmptyIdea возвращается, когда в запросе генерации нет идеи сюжета.
var ErrEmptyIdea = errors.New("idea text must not be empty")

// StoryStore — контракт хранилища историй, который нужен сервису.
type StoryStore interface {
	CreateStory(ctx context.Context, opts model.StoryOptions, title, fullText string, illustrationPrompt *string) (int64, error)
	AddChapter(ctx context.Context, storyID int64, index int, title, text string) (int64, error)
	GetStory(ctx context.Context, id int64) (model.Story, error)
	ListChapters(ctx context.Context, storyID int64) ([]model.Chapter, error)
	ListStories(ctx context.Context, limit int) ([]model.StorySummary, error)
	DeleteStory(ctx context.Context, id int64) (bool, error)
}

// Generator — контракт провайдера генерации текста и изображений.
type Generator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
	GenerateImage(ctx context.Context, model, prompt, aspectRatio string) ([]byte, error)
}

// StoryService оркестрирует конвейер генерации: сборка промпта, вызов
// провайдера, разбор ответа, сохранение. Это единственный компонент
// с побочными эффектами и в сети, и в хранилище.
type StoryService struct {
	store        StoryStore
	gen          Generator
	aiCfg        config.AIConfig
	generatedDir string
}

// NewStoryService создает новый экземпляр сервиса историй
func NewStoryService(store StoryStore, gen Generator, aiCfg config.AIConfig, generatedDir string) *StoryService {
	return &StoryService{
		store:        store,
		gen:          gen,
		aiCfg:        aiCfg,
		generatedDir: generatedDir,
	}
}

// resolveOptions переводит ключи запроса в человекочитаемые значения.
// Именно разрешённые значения сохраняются вместе с историей.
func resolveOptions(genre, tone, length, age, setting, theme string, chars []model.Character, relationships string) model.StoryOptions {
	if strings.TrimSpace(setting) == "" {
		setting = prompt.DefaultSetting
	}
	if strings.TrimSpace(theme) == "" {
		theme = prompt.DefaultTheme
	}
	return model.StoryOptions{
		Genre:         prompt.ResolveGenre(genre),
		Tone:          prompt.ResolveTone(tone),
		Age:           prompt.ResolveAge(age),
		Length:        prompt.ResolveLength(length),
		Setting:       setting,
		Theme:         theme,
		Characters:    prompt.NormalizeCharacters(chars),
		Relationships: strings.TrimSpace(relationships),
	}
}

// Generate создает новую историю: первая генерация всегда становится
// полным текстом истории и её первой главой с фиксированным названием.
func (s *StoryService) Generate(ctx context.Context, req model.GenerateRequest) (model.GenerateResponse, error) {
	idea := strings.TrimSpace(req.Idea)
	if idea == "" {
		return model.GenerateResponse{}, ErrEmptyIdea
	}

	opts := resolveOptions(req.Genre, req.Tone, req.Length, req.Age, req.Setting, req.Theme, req.Characters, req.Relationships)

	storyPrompt := prompt.BuildStoryPrompt(opts, idea, req.Outline)
	fullText, err := s.gen.GenerateText(ctx, s.aiCfg.TextModel, storyPrompt)
	if err != nil {
		return model.GenerateResponse{}, err
	}

	title := ai.TitleOrFallback(fullText)

	// Иллюстрационный промпт запрашивается по умолчанию, если клиент
	// явно не отказался.
	var illustrationPrompt *string
	if req.WantIllustrationPrompt == nil || *req.WantIllustrationPrompt {
		metaPrompt := prompt.BuildIllustrationMetaPrompt(title, opts, idea)
		p, err := s.gen.GenerateText(ctx, s.aiCfg.TextModel, metaPrompt)
		if err != nil {
			return model.GenerateResponse{}, err
		}
		illustrationPrompt = &p
	}

	storyID, err := s.store.CreateStory(ctx, opts, title, fullText, illustrationPrompt)
	if err != nil {
		return model.GenerateResponse{}, err
	}

	if _, err := s.store.AddChapter(ctx, storyID, 1, "Chapter 1", fullText); err != nil {
		return model.GenerateResponse{}, err
	}

	log.Info().Int64("story_id", storyID).Str("title", title).Msg("история сгенерирована")

	return model.GenerateResponse{
		StoryID:            storyID,
		Title:              title,
		Text:               fullText,
		IllustrationPrompt: illustrationPrompt,
	}, nil
}

// Outline генерирует план истории. Ничего не сохраняет.
func (s *StoryService) Outline(ctx context.Context, req model.OutlineRequest) (model.OutlineResponse, error) {
	idea := strings.TrimSpace(req.Idea)
	if idea == "" {
		return model.OutlineResponse{}, ErrEmptyIdea
	}

	opts := resolveOptions(req.Genre, req.Tone, req.Length, req.Age, req.Setting, req.Theme, req.Characters, "")

	text, err := s.gen.GenerateText(ctx, s.aiCfg.TextModel, prompt.BuildOutlinePrompt(opts, idea))
	if err != nil {
		return model.OutlineResponse{}, err
	}
	return model.OutlineResponse{Outline: strings.TrimSpace(text)}, nil
}

// Continue генерирует следующую главу. Контекстом продолжения всегда
// служит full_text истории: каждая глава опирается на исходный текст,
// а не на предыдущую главу. Конкурентные вызовы для одной истории
// могут вычислить одинаковый индекс, эта гонка принята осознанно:
// уникального ограничения на (story_id, chapter_index) нет.
func (s *StoryService) Continue(ctx context.Context, req model.NextChapterRequest) (model.NextChapterResponse, error) {
	story, err := s.store.GetStory(ctx, req.StoryID)
	if err != nil {
		return model.NextChapterResponse{}, err
	}

	chapters, err := s.store.ListChapters(ctx, req.StoryID)
	if err != nil {
		return model.NextChapterResponse{}, err
	}

	nextIndex := 2
	if len(chapters) > 0 {
		nextIndex = chapters[len(chapters)-1].Index + 1
	}

	contPrompt := prompt.BuildContinuationPrompt(story.FullText, len(chapters), req.UserDirection)
	text, err := s.gen.GenerateText(ctx, s.aiCfg.TextModel, contPrompt)
	if err != nil {
		return model.NextChapterResponse{}, err
	}

	chapterTitle, chapterText := ai.ExtractChapter(text)

	if _, err := s.store.AddChapter(ctx, req.StoryID, nextIndex, chapterTitle, chapterText); err != nil {
		return model.NextChapterResponse{}, err
	}

	log.Info().Int64("story_id", req.StoryID).Int("chapter_index", nextIndex).Msg("добавлена новая глава")

	return model.NextChapterResponse{
		ChapterIndex: nextIndex,
		ChapterTitle: chapterTitle,
		ChapterText:  chapterText,
	}, nil
}

// Illustrate генерирует изображение для истории и сохраняет его в
// директорию артефактов. Имя файла включает id истории и текущее
// время, поэтому конкурентные вызовы не конфликтуют на диске.
func (s *StoryService) Illustrate(ctx context.Context, req model.IllustrateRequest) (model.IllustrateResponse, error) {
	story, err := s.store.GetStory(ctx, req.StoryID)
	if err != nil {
		return model.IllustrateResponse{}, err
	}

	base := prompt.IllustrationBase(story.IllustrationPrompt, story.Title)
	fullPrompt := base + prompt.StyleSuffix

	aspectRatio := req.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}

	imageData, err := s.gen.GenerateImage(ctx, s.aiCfg.ImageModel, fullPrompt, aspectRatio)
	if err != nil {
		return model.IllustrateResponse{}, err
	}

	if err := os.MkdirAll(s.generatedDir, 0o755); err != nil {
		return model.IllustrateResponse{}, fmt.Errorf("failed to create generated dir: %w", err)
	}

	fileName := fmt.Sprintf("story_%d_%d.png", story.ID, time.Now().UnixNano())
	filePath := filepath.Join(s.generatedDir, fileName)
	if err := os.WriteFile(filePath, imageData, 0o644); err != nil {
		return model.IllustrateResponse{}, fmt.Errorf("failed to save image: %w", err)
	}

	log.Info().Int64("story_id", story.ID).Str("path", filePath).Msg("иллюстрация сохранена")

	return model.IllustrateResponse{ImageURL: "/generated/" + fileName}, nil
}

// GetStory возвращает историю вместе с её главами.
func (s *StoryService) GetStory(ctx context.Context, id int64) (model.StoryDetailResponse, error) {
	story, err := s.store.GetStory(ctx, id)
	if err != nil {
		return model.StoryDetailResponse{}, err
	}
	chapters, err := s.store.ListChapters(ctx, id)
	if err != nil {
		return model.StoryDetailResponse{}, err
	}
	return model.StoryDetailResponse{Story: story, Chapters: chapters}, nil
}

// ListStories возвращает последние истории.
func (s *StoryService) ListStories(ctx context.Context, limit int) (model.StoryListResponse, error) {
	items, err := s.store.ListStories(ctx, limit)
	if err != nil {
		return model.StoryListResponse{}, err
	}
	return model.StoryListResponse{Items: items}, nil
}

// Delete удаляет историю по id.
func (s *StoryService) Delete(ctx context.Context, id int64) error {
	ok, err := s.store.DeleteStory(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("story %d: %w", id, repository.ErrNotFound)
	}
	return nil
}
