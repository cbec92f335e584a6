package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"story-server/internal/model"
)

// ErrNotFound возвращается, когда истории с запрошенным id не существует.
var ErrNotFound = errors.New("story not found")

// StoryRepository предоставляет доступ к данным историй и глав.
// Это единственный владелец сохранённого состояния: остальные слои
// получают копии и не изменяют записи напрямую.
type StoryRepository struct {
	pool *pgxpool.Pool
	db   *sqlx.DB
}

// NewStoryRepository создает новый экземпляр репозитория историй
func NewStoryRepository(pool *pgxpool.Pool, db *sqlx.DB) *StoryRepository {
	return &StoryRepository{
		pool: pool,
		db:   db,
	}
}

// CreateStory сохраняет новую историю и возвращает присвоенный id.
// Запись атомарна: один INSERT, подтверждённый до возврата.
func (r *StoryRepository) CreateStory(ctx context.Context, opts model.StoryOptions, title, fullText string, illustrationPrompt *string) (int64, error) {
	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return 0, fmt.Errorf("ошибка маршалинга options: %w", err)
	}

	query := `
		INSERT INTO stories (created_at, options, title, full_text, illustration_prompt)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err = r.pool.QueryRow(ctx, query, time.Now().UTC(), optsJSON, title, fullText, illustrationPrompt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании истории: %w", err)
	}
	return id, nil
}

// AddChapter сохраняет главу истории и возвращает присвоенный id.
func (r *StoryRepository) AddChapter(ctx context.Context, storyID int64, index int, title, text string) (int64, error) {
	query := `
		INSERT INTO chapters (story_id, chapter_index, chapter_title, chapter_text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query, storyID, index, title, text, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка при добавлении главы: %w", err)
	}
	return id, nil
}

// GetStory возвращает историю по id либо ErrNotFound.
func (r *StoryRepository) GetStory(ctx context.Context, id int64) (model.Story, error) {
	query := `
		SELECT id, created_at, options, title, full_text, illustration_prompt
		FROM stories
		WHERE id = $1
	`

	var story model.Story
	var optsJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&story.ID,
		&story.CreatedAt,
		&optsJSON,
		&story.Title,
		&story.FullText,
		&story.IllustrationPrompt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Story{}, ErrNotFound
		}
		return model.Story{}, fmt.Errorf("ошибка при получении истории %d: %w", id, err)
	}

	if err := json.Unmarshal(optsJSON, &story.Options); err != nil {
		return model.Story{}, fmt.Errorf("ошибка разбора options истории %d: %w", id, err)
	}
	return story, nil
}

// ListChapters возвращает главы истории по возрастанию индекса.
func (r *StoryRepository) ListChapters(ctx context.Context, storyID int64) ([]model.Chapter, error) {
	query := `
		SELECT chapter_index, chapter_title, chapter_text, created_at
		FROM chapters
		WHERE story_id = $1
		ORDER BY chapter_index ASC
	`

	chapters := []model.Chapter{}
	if err := r.db.SelectContext(ctx, &chapters, query, storyID); err != nil {
		return nil, fmt.Errorf("ошибка при получении глав истории %d: %w", storyID, err)
	}
	return chapters, nil
}

// ListStories возвращает последние истории, не более limit.
func (r *StoryRepository) ListStories(ctx context.Context, limit int) ([]model.StorySummary, error) {
	query := `
		SELECT id, title, created_at
		FROM stories
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	stories := []model.StorySummary{}
	if err := r.db.SelectContext(ctx, &stories, query, limit); err != nil {
		return nil, fmt.Errorf("ошибка при получении списка историй: %w", err)
	}
	return stories, nil
}

// DeleteStory удаляет историю по id. Главы не трогаются: FK на
// chapters нет, осиротевшие главы допустимы.
func (r *StoryRepository) DeleteStory(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("ошибка при удалении истории %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
