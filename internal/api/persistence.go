package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mwantia/fdatracker/internal/auth"
	"github.com/mwantia/fdatracker/internal/persistence"
	"github.com/mwantia/fdatracker/pkg/approval"
)

func (s *Server) persist(c echo.Context) error {
	var req approval.PersistenceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, approval.SaveResponse{Error: "invalid request body"})
	}

	ctx := c.Request().Context()

	switch req.Action {
	case approval.ActionLoad:
		snapshot, err := s.persistence.Load(ctx)
		if err != nil {
			s.log.Error("Failed to load published dataset: %v", err)
			return c.JSON(http.StatusInternalServerError, approval.PersistenceResponse{Error: "failed to load data"})
		}
		if snapshot == nil {
			return c.JSON(http.StatusOK, approval.PersistenceResponse{Success: true})
		}

		updatedAt := snapshot.UpdatedAt
		return c.JSON(http.StatusOK, approval.PersistenceResponse{
			Success:   true,
			Data:      snapshot.Records,
			Version:   snapshot.Version,
			UpdatedAt: &updatedAt,
		})

	case approval.ActionSave:
		if req.Data == nil {
			return c.JSON(http.StatusBadRequest, approval.SaveResponse{Error: "save requires data"})
		}

		version, err := s.persistence.Save(ctx, req.Data, req.Notes)
		switch {
		case errors.Is(err, auth.ErrUnauthenticated):
			return c.JSON(http.StatusUnauthorized, approval.SaveResponse{Error: "authentication required"})
		case errors.Is(err, auth.ErrForbidden):
			return c.JSON(http.StatusForbidden, approval.SaveResponse{Error: "admin role required"})
		case errors.Is(err, persistence.ErrNoData):
			return c.JSON(http.StatusBadRequest, approval.SaveResponse{Error: "save requires data"})
		case err != nil:
			s.log.Error("Failed to save dataset: %v", err)
			return c.JSON(http.StatusInternalServerError, approval.SaveResponse{Error: "failed to save data"})
		}
		return c.JSON(http.StatusOK, approval.SaveResponse{Success: true, Version: version})

	default:
		return c.JSON(http.StatusBadRequest, approval.SaveResponse{Error: "unknown action"})
	}
}

func (s *Server) listVersions(c echo.Context) error {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}

	versions, err := s.persistence.Versions(c.Request().Context(), limit)
	if err != nil {
		s.log.Error("Failed to list versions: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list versions")
	}
	return c.JSON(http.StatusOK, map[string]any{"versions": versions})
}

func (s *Server) health(c echo.Context) error {
	if err := s.persistence.Health(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"dataset": s.controller.State().Status,
	})
}
