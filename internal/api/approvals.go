package api

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mwantia/fdatracker/internal/auth"
	"github.com/mwantia/fdatracker/internal/cloudsync"
	"github.com/mwantia/fdatracker/internal/importer"
	"github.com/mwantia/fdatracker/pkg/approval"
	"github.com/mwantia/fdatracker/pkg/filter"
)

const maxUploadBytes = 16 << 20

type listResponse struct {
	Data     []approval.DrugApproval `json:"data"`
	Count    int                     `json:"count"`
	Criteria filter.Criteria         `json:"criteria"`
}

type uploadResponse struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Added    int `json:"added"`
}

type saveRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) listApprovals(c echo.Context) error {
	criteria, err := filter.ParseQuery(c.QueryParams())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	records := s.controller.Filter(criteria, s.now())
	return c.JSON(http.StatusOK, listResponse{
		Data:     records,
		Count:    len(records),
		Criteria: criteria,
	})
}

func (s *Server) approvalOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, filter.Options(s.controller.Records()))
}

func (s *Server) approvalSummary(c echo.Context) error {
	criteria, err := filter.ParseQuery(c.QueryParams())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, filter.Summarize(s.controller.Filter(criteria, s.now())))
}

func (s *Server) approvalStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.controller.State())
}

// uploadApprovals accepts a CSV either as multipart field "file" or as the
// raw request body.
func (s *Server) uploadApprovals(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxUploadBytes)
	var body io.Reader = req.Body

	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		header, err := c.FormFile("file")
		if err != nil {
			if tooLarge(err) {
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "upload too large")
			}
			return echo.NewHTTPError(http.StatusBadRequest, "missing upload field 'file'")
		}
		if header.Size > maxUploadBytes {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "upload too large")
		}
		file, err := header.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unable to read upload")
		}
		defer file.Close()
		body = file
	}

	result, err := importer.Parse(body)
	if err != nil {
		if tooLarge(err) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "upload too large")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	added, err := s.controller.ApplyUpload(result.Records)
	if err != nil {
		return controllerError(err)
	}

	s.log.Info("Upload accepted %d, rejected %d, added %d records", result.Accepted, result.Rejected, added)
	return c.JSON(http.StatusOK, uploadResponse{
		Accepted: result.Accepted,
		Rejected: result.Rejected,
		Added:    added,
	})
}

func (s *Server) upsertApproval(c echo.Context) error {
	var record approval.DrugApproval
	if err := c.Bind(&record); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record")
	}
	if record.ApprovalMonth == "" {
		record.ApprovalMonth = approval.Month(record)
	}

	created, err := s.controller.Upsert(record)
	if err != nil {
		return controllerError(err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, record)
}

func (s *Server) deleteApproval(c echo.Context) error {
	key, err := url.PathUnescape(c.Param("key"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid key")
	}
	removed, err := s.controller.Remove(key)
	if err != nil {
		return controllerError(err)
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) saveApprovals(c echo.Context) error {
	var req saveRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}

	version, err := s.controller.Save(c.Request().Context(), req.Notes)
	if err != nil {
		return controllerError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"version": version,
		"state":   s.controller.State(),
	})
}

func (s *Server) reloadApprovals(c echo.Context) error {
	s.controller.Init(c.Request().Context())
	return c.JSON(http.StatusOK, s.controller.State())
}

func controllerError(err error) error {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrForbidden):
		return auth.HTTPError(err)
	case errors.Is(err, cloudsync.ErrSaveInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, cloudsync.ErrNotReady):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, cloudsync.ErrInvalidRecord):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}
