package mocks

import (
	"context"
	"time"

	"galleryapi/internal/model"
	"galleryapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockGalleryService struct {
	mock.Mock
}

func (m *MockGalleryService) Upload(ctx context.Context, files []service.UploadFile) ([]model.Image, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Image), args.Error(1)
}

func (m *MockGalleryService) List(ctx context.Context) ([]service.ImageView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ImageView), args.Error(1)
}

func (m *MockGalleryService) Get(ctx context.Context, id string) (*model.Image, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Image), args.Error(1)
}

func (m *MockGalleryService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGalleryService) PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, id, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockGalleryService) Download(ctx context.Context, id string) (*service.DownloadResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadResult), args.Error(1)
}

type MockCleanupRunner struct {
	mock.Mock
}

func (m *MockCleanupRunner) Run(ctx context.Context) service.CleanupSummary {
	args := m.Called(ctx)
	return args.Get(0).(service.CleanupSummary)
}
