package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/stagepass/storefront/internal/model"
)

// MockAPI is a mock implementation of upstream.API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) ListConcerts(ctx context.Context, pageIndex, pageSize int, sort model.SortSpec) (model.Page[model.Concert], error) {
	args := m.Called(ctx, pageIndex, pageSize, sort)
	return args.Get(0).(model.Page[model.Concert]), args.Error(1)
}

func (m *MockAPI) SearchConcerts(ctx context.Context, keyword string) ([]model.Concert, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Concert), args.Error(1)
}

func (m *MockAPI) FilterConcerts(ctx context.Context, criteria model.FilterCriteria) ([]model.Concert, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Concert), args.Error(1)
}

func (m *MockAPI) GetConcert(ctx context.Context, id uint64) (*model.Concert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Concert), args.Error(1)
}

func (m *MockAPI) GetAISummary(ctx context.Context, id uint64) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) RegenerateAISummary(ctx context.Context, sellerID, concertID uint64) (string, error) {
	args := m.Called(ctx, sellerID, concertID)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) CreateBooking(ctx context.Context, seatIDs []string, payment model.PaymentDetails) (*model.BookingConfirmation, error) {
	args := m.Called(ctx, seatIDs, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingConfirmation), args.Error(1)
}
