package port

import (
	"context"

	"portfolio_tracker/internal/domain/entity"
)

// PortfolioService produces merged portfolio views.
type PortfolioService interface {
	// Snapshot returns the most recently published view. It never blocks
	// on in-flight fetches; before the first cycle completes it returns a
	// view with every entry pending.
	Snapshot() entity.PortfolioView

	// Refresh triggers a new refresh cycle. It is safe to call while a
	// previous cycle is still outstanding; in-flight calls are not
	// cancelled and superseded results are discarded on publication.
	Refresh(ctx context.Context)

	// Fetch aggregates a one-shot view for an explicit owner address,
	// bypassing the background snapshot.
	Fetch(ctx context.Context, ownerAddress string) entity.PortfolioView
}
