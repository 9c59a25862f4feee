package workflow

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/corlab/corlab/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/cases/:id/ownership", h.TakeOwnership)
	api.DELETE("/cases/:id/ownership", h.ReleaseOwnership)
	api.POST("/cases/:id/close", h.CloseCase)

	api.GET("/cases/:id/report", h.GetReport)
	api.PUT("/cases/:id/report", h.UpsertReport)
	api.POST("/cases/:id/diagnoses", h.AddDiagnosis)
	api.POST("/diagnoses/:id/signature", h.SignDiagnosis)
}

func httpError(err error) error {
	var unsigned *UnsignedDiagnosisError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyOwner), errors.Is(err, ErrOwnershipConflict),
		errors.Is(err, ErrCaseCompleted), errors.Is(err, ErrAlreadyCompleted),
		errors.Is(err, ErrAlreadySigned):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNoReport), errors.Is(err, ErrNoDiagnoses), errors.As(err, &unsigned):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func doctorID(c echo.Context) (uuid.UUID, error) {
	id := auth.DoctorIDFromContext(c.Request().Context())
	if id == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing doctor identity")
	}
	return id, nil
}

func (h *Handler) TakeOwnership(c echo.Context) error {
	caseID, err := pathID(c)
	if err != nil {
		return err
	}
	docID, err := doctorID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.TakeOwnership(c.Request().Context(), caseID, docID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) ReleaseOwnership(c echo.Context) error {
	caseID, err := pathID(c)
	if err != nil {
		return err
	}
	docID, err := doctorID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.ReleaseOwnership(c.Request().Context(), caseID, docID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) CloseCase(c echo.Context) error {
	caseID, err := pathID(c)
	if err != nil {
		return err
	}
	docID, err := doctorID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.Close(c.Request().Context(), caseID, docID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) GetReport(c echo.Context) error {
	caseID, err := pathID(c)
	if err != nil {
		return err
	}
	report, err := h.svc.GetReport(c.Request().Context(), caseID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

type upsertReportRequest struct {
	AttachedGlassIDs []uuid.UUID `json:"attached_glass_ids"`
}

func (h *Handler) UpsertReport(c echo.Context) error {
	caseID, err := pathID(c)
	if err != nil {
		return err
	}
	var req upsertReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	report, err := h.svc.UpsertReport(c.Request().Context(), caseID, req.AttachedGlassIDs)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) AddDiagnosis(c echo.Context) error {
	caseID, err := pathID(c)
	if err != nil {
		return err
	}
	docID, err := doctorID(c)
	if err != nil {
		return err
	}
	docName := auth.DoctorNameFromContext(c.Request().Context())

	var in DiagnosisInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.AddDiagnosis(c.Request().Context(), caseID, docID, docName, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) SignDiagnosis(c echo.Context) error {
	diagID, err := pathID(c)
	if err != nil {
		return err
	}
	docID, err := doctorID(c)
	if err != nil {
		return err
	}
	sig, err := h.svc.SignDiagnosis(c.Request().Context(), diagID, docID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sig)
}
