package handler

import (
	"context"
	"net/http"

	"github.com/ahemkaric/cashflow-monitoring/internal/adapter/http/dto"
	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
)

// CompanyDirectory defines the behavior needed by CompanyHandler.
type CompanyDirectory interface {
	ListAll(ctx context.Context, limit, afterID int) ([]domain.Company, error)
}

// CompanyHandler handles company directory HTTP requests.
type CompanyHandler struct {
	directory CompanyDirectory
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(directory CompanyDirectory) *CompanyHandler {
	return &CompanyHandler{directory: directory}
}

// List returns directory entries, paginated by limit and after-id.
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 0)
	afterID := parseIntQuery(r, "after-id", 0)

	companies, err := h.directory.ListAll(r.Context(), limit, afterID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list companies", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CompaniesFromDomain(companies))
}
