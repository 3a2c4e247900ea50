package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mwantia/fdatracker/internal/validation"
)

const maxValidationItems = 500

type validateRequest struct {
	Items []validation.Item `json:"items"`
}

type validateResponse struct {
	Results []validation.Result `json:"results"`
}

func (s *Server) validate(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Items) > maxValidationItems {
		return echo.NewHTTPError(http.StatusBadRequest, "too many items")
	}

	results, err := s.validator.Validate(c.Request().Context(), req.Items)
	if err != nil {
		return echo.NewHTTPError(http.StatusGatewayTimeout, "validation cancelled")
	}
	if results == nil {
		results = []validation.Result{}
	}
	return c.JSON(http.StatusOK, validateResponse{Results: results})
}
