package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/automarketer/internal/httpx/response"
)

const defaultTrendQuery = "marketing"

// TrendSource lists trending topics for a query
type TrendSource interface {
	Trending(ctx context.Context, query string) ([]string, error)
}

// BusinessIndustry resolves the industry of a business, empty if unknown
type BusinessIndustry interface {
	Industry(ctx context.Context, businessID string) (string, error)
}

// TrendsHandler exposes the trending-topics collaborator
type TrendsHandler struct {
	trends     TrendSource
	businesses BusinessIndustry
}

// NewTrendsHandler creates a new trends handler. businesses may be nil.
func NewTrendsHandler(trends TrendSource, businesses BusinessIndustry) *TrendsHandler {
	return &TrendsHandler{trends: trends, businesses: businesses}
}

// RegisterRoutes registers trend routes
func (h *TrendsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/trends", h.List())
}

// TrendsResponse is the body of GET /trends
type TrendsResponse struct {
	Query  string   `json:"query"`
	Topics []string `json:"topics"`
}

// List handles GET /trends?query=&business_id=
// An explicit query wins over the business industry.
func (h *TrendsHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		query := strings.TrimSpace(q.Get("query"))
		if query == "" && h.businesses != nil && q.Get("business_id") != "" {
			industry, err := h.businesses.Industry(r.Context(), q.Get("business_id"))
			if err != nil {
				handleDomainError(w, err)
				return
			}
			query = industry
		}
		if query == "" {
			query = defaultTrendQuery
		}

		topics, err := h.trends.Trending(r.Context(), query)
		if err != nil {
			slog.Warn("fetching trending topics failed", "query", query, "error", err)
			response.ServiceUnavailable(w, "trending topics unavailable")
			return
		}
		if topics == nil {
			topics = []string{}
		}

		response.OK(w, TrendsResponse{Query: query, Topics: topics})
	}
}
