package upstream

import (
	"context"

	"github.com/stagepass/storefront/internal/model"
)

// API is the abstract collaborator the coordination layer talks to. Every
// method honors context cancellation; a cancelled call returns the context
// error without waiting for the response. Controllers accept this
// interface so tests can substitute gated fakes and mocks.
type API interface {
	ListConcerts(ctx context.Context, pageIndex, pageSize int, sort model.SortSpec) (model.Page[model.Concert], error)
	SearchConcerts(ctx context.Context, keyword string) ([]model.Concert, error)
	FilterConcerts(ctx context.Context, criteria model.FilterCriteria) ([]model.Concert, error)
	GetConcert(ctx context.Context, id uint64) (*model.Concert, error)
	GetAISummary(ctx context.Context, id uint64) (string, error)
	RegenerateAISummary(ctx context.Context, sellerID, concertID uint64) (string, error)
	CreateBooking(ctx context.Context, seatIDs []string, payment model.PaymentDetails) (*model.BookingConfirmation, error)
}
