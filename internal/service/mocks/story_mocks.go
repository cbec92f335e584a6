package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"story-server/internal/model"
	"story-server/internal/service"
)

// StoryStore is a mock type for the service.StoryStore interface
type StoryStore struct {
	mock.Mock
}

func (_m *StoryStore) CreateStory(ctx context.Context, opts model.StoryOptions, title, fullText string, illustrationPrompt *string) (int64, error) {
	ret := _m.Called(ctx, opts, title, fullText, illustrationPrompt)
	return ret.Get(0).(int64), ret.Error(1)
}

func (_m *StoryStore) AddChapter(ctx context.Context, storyID int64, index int, title, text string) (int64, error) {
	ret := _m.Called(ctx, storyID, index, title, text)
	return ret.Get(0).(int64), ret.Error(1)
}

func (_m *StoryStore) GetStory(ctx context.Context, id int64) (model.Story, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(model.Story), ret.Error(1)
}

func (_m *StoryStore) ListChapters(ctx context.Context, storyID int64) ([]model.Chapter, error) {
	ret := _m.Called(ctx, storyID)
	var r0 []model.Chapter
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Chapter)
	}
	return r0, ret.Error(1)
}

func (_m *StoryStore) ListStories(ctx context.Context, limit int) ([]model.StorySummary, error) {
	ret := _m.Called(ctx, limit)
	var r0 []model.StorySummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.StorySummary)
	}
	return r0, ret.Error(1)
}

func (_m *StoryStore) DeleteStory(ctx context.Context, id int64) (bool, error) {
	ret := _m.Called(ctx, id)
	return ret.Bool(0), ret.Error(1)
}

// Generator is a mock type for the service.Generator interface
type Generator struct {
	mock.Mock
}

func (_m *Generator) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	ret := _m.Called(ctx, model, prompt)
	return ret.String(0), ret.Error(1)
}

func (_m *Generator) GenerateImage(ctx context.Context, model, prompt, aspectRatio string) ([]byte, error) {
	ret := _m.Called(ctx, model, prompt, aspectRatio)
	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}
	return r0, ret.Error(1)
}

var _ service.StoryStore = (*StoryStore)(nil)
var _ service.Generator = (*Generator)(nil)
