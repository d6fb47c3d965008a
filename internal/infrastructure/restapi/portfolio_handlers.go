package restapi

import (
	"net/http"
	"strings"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/app/service"
	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// EntryResponse is the API representation of one portfolio entry,
// extended with display-formatted fields.
type EntryResponse struct {
	entity.PortfolioEntry
	ValueDisplay  string `json:"valueDisplay"`
	ChangeDisplay string `json:"changeDisplay"`
}

// PortfolioResponse is the consumer-facing portfolio contract:
// the entry list, the summary and the two overall state flags.
type PortfolioResponse struct {
	OwnerAddress   string                  `json:"ownerAddress"`
	Entries        []EntryResponse         `json:"entries"`
	Summary        entity.PortfolioSummary `json:"summary"`
	TotalDisplay   string                  `json:"totalDisplay"`
	OverallLoading bool                    `json:"overallLoading"`
	OverallError   bool                    `json:"overallError"`
	RefreshedAt    time.Time               `json:"refreshedAt,omitempty"`
}

// PortfolioHandler handles portfolio-related HTTP requests.
type PortfolioHandler struct {
	portfolioService port.PortfolioService
	catalog          port.CatalogProvider
	logger           port.Logger
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(ps port.PortfolioService, catalog port.CatalogProvider, logger port.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: ps,
		catalog:          catalog,
		logger:           logger,
	}
}

// GetPortfolioHandler serves the current snapshot. An optional
// ?network= query parameter (network identifier or chain id name)
// narrows the entries to one chain; the summary is recomputed over the
// filtered set.
func (h *PortfolioHandler) GetPortfolioHandler(c *gin.Context) {
	view := h.portfolioService.Snapshot()

	if networkFilter := c.Query("network"); networkFilter != "" {
		chainID, ok := h.resolveNetwork(networkFilter)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown network: " + networkFilter})
			return
		}
		filtered := make([]entity.PortfolioEntry, 0, len(view.Entries))
		for _, e := range view.Entries {
			if e.Asset.ChainID == chainID {
				filtered = append(filtered, e)
			}
		}
		view.Entries = filtered
		view.Summary = service.Summarize(filtered)
	}

	c.JSON(http.StatusOK, toResponse(view))
}

// RefreshPortfolioHandler triggers a background refresh cycle and
// returns immediately.
func (h *PortfolioHandler) RefreshPortfolioHandler(c *gin.Context) {
	h.portfolioService.Refresh(c.Request.Context())
	c.JSON(http.StatusAccepted, gin.H{"status": "refresh scheduled"})
}

// GetOwnerPortfolioHandler aggregates a one-shot view for an explicit
// owner address.
func (h *PortfolioHandler) GetOwnerPortfolioHandler(c *gin.Context) {
	ownerAddress := c.Param("ownerAddress")
	if !common.IsHexAddress(ownerAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner address: " + ownerAddress})
		return
	}

	view := h.portfolioService.Fetch(c.Request.Context(), ownerAddress)
	c.JSON(http.StatusOK, toResponse(view))
}

// ListAssetsHandler lists the loaded asset catalog.
func (h *PortfolioHandler) ListAssetsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"networks": h.catalog.Networks(),
		"assets":   h.catalog.Assets(),
	})
}

// resolveNetwork maps a network identifier or name to its chain id.
func (h *PortfolioHandler) resolveNetwork(nameOrIdentifier string) (uint64, bool) {
	needle := strings.ToLower(nameOrIdentifier)
	for _, net := range h.catalog.Networks() {
		if strings.ToLower(net.Identifier) == needle || strings.ToLower(net.Name) == needle {
			return net.ChainID, true
		}
	}
	return 0, false
}

func toResponse(view entity.PortfolioView) PortfolioResponse {
	entries := make([]EntryResponse, len(view.Entries))
	for i, e := range view.Entries {
		entries[i] = EntryResponse{
			PortfolioEntry: e,
			ValueDisplay:   utils.FormatUSDValue(e.ValueUSD),
			ChangeDisplay:  utils.FormatPriceChange(e.Change24hPct),
		}
	}
	return PortfolioResponse{
		OwnerAddress:   view.OwnerAddress,
		Entries:        entries,
		Summary:        view.Summary,
		TotalDisplay:   utils.FormatUSDValue(view.Summary.TotalValueUSD),
		OverallLoading: view.Loading,
		OverallError:   view.Critical,
		RefreshedAt:    view.RefreshedAt,
	}
}
