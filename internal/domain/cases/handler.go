package cases

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/corlab/corlab/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/cases", h.CreateCases)
	api.GET("/cases", h.ListCases)
	api.GET("/cases/:id", h.GetCase)
	api.DELETE("/cases/:id", h.DeleteCase)
	api.GET("/cases/by-code/:code", h.GetCaseByCode)
	api.PATCH("/cases/:id/code-suffix", h.ReassignSuffix)
	api.PATCH("/cases/:id/parameters", h.UpdateParameters)
	api.PATCH("/cases/:id/text", h.UpdateCaseText)
	api.PATCH("/cases/:id/printed-qr", h.SetQRPrinted)
	api.POST("/cases/:id/print-all", h.PrintAllCase)

	api.POST("/cases/:id/samples", h.AddSamples)
	api.GET("/samples/:id", h.GetSample)
	api.PATCH("/samples/:id", h.UpdateSample)
	api.POST("/samples/:id/print-all", h.PrintAllSample)
	api.DELETE("/samples", h.DeleteSamples)

	api.POST("/samples/:id/cassettes", h.AddCassettes)
	api.PATCH("/cassettes/:id/comment", h.UpdateCassetteComment)
	api.PATCH("/cassettes/:id/printed", h.SetCassettePrinted)
	api.DELETE("/cassettes", h.DeleteCassettes)

	api.POST("/cassettes/:id/glasses", h.AddGlasses)
	api.PATCH("/glasses/:id/staining", h.UpdateGlassStaining)
	api.PATCH("/glasses/:id/printed", h.SetGlassPrinted)
	api.GET("/glasses/:id/label", h.GetGlassLabel)
	api.DELETE("/glasses", h.DeleteGlasses)
}

// httpError translates domain errors to HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateCaseCode), errors.Is(err, ErrCaseCompleted):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidSuffix), errors.Is(err, ErrInvalidUrgency),
		errors.Is(err, ErrInvalidMaterial), errors.Is(err, ErrInvalidStaining):
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

// -- Case Handlers --

type createCasesRequest struct {
	PatientID  uuid.UUID    `json:"patient_id"`
	NumCases   int          `json:"num_cases"`
	NumSamples int          `json:"num_samples"`
	Urgency    UrgencyType  `json:"urgency"`
	Material   MaterialType `json:"material_type"`
}

func (h *Handler) CreateCases(c echo.Context) error {
	var req createCasesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	created, err := h.svc.CreateCaseBatch(c.Request().Context(), req.PatientID, req.NumCases, req.NumSamples, req.Urgency, req.Material)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListCases(c echo.Context) error {
	pid, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListCasesByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetCase(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.GetCase(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) GetCaseByCode(c echo.Context) error {
	cs, err := h.svc.GetCaseByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) DeleteCase(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteCase(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type suffixRequest struct {
	Suffix string `json:"suffix"`
}

func (h *Handler) ReassignSuffix(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req suffixRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cs, err := h.svc.ReassignSuffix(c.Request().Context(), id, req.Suffix)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cs)
}

type parametersRequest struct {
	Urgency  UrgencyType  `json:"urgency"`
	Material MaterialType `json:"material_type"`
}

func (h *Handler) UpdateParameters(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req parametersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cs, err := h.svc.UpdateCaseParameters(c.Request().Context(), id, req.Urgency, req.Material)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) UpdateCaseText(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var upd CaseTextUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cs, err := h.svc.UpdateCaseText(c.Request().Context(), id, upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cs)
}

type printedRequest struct {
	Printed bool `json:"printed"`
}

func (h *Handler) SetQRPrinted(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req printedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cs, err := h.svc.SetCaseQRPrinted(c.Request().Context(), id, req.Printed)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) PrintAllCase(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.PrintAllCase(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Sample Handlers --

type countRequest struct {
	Count int `json:"count"`
}

func (h *Handler) AddSamples(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req countRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	samples, err := h.svc.AddSamples(c.Request().Context(), id, req.Count)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, samples)
}

func (h *Handler) GetSample(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	sample, err := h.svc.GetSample(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sample)
}

func (h *Handler) UpdateSample(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var upd SampleUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sample, err := h.svc.UpdateSample(c.Request().Context(), id, upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sample)
}

func (h *Handler) PrintAllSample(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.PrintAllSample(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type deleteRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func (h *Handler) DeleteSamples(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.DeleteSamples(c.Request().Context(), req.IDs)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// -- Cassette Handlers --

func (h *Handler) AddCassettes(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req countRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cassettes, err := h.svc.AddCassettes(c.Request().Context(), id, req.Count)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, cassettes)
}

type commentRequest struct {
	Comment string `json:"comment"`
}

func (h *Handler) UpdateCassetteComment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cs, err := h.svc.UpdateCassetteComment(c.Request().Context(), id, req.Comment)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) SetCassettePrinted(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req printedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cs, err := h.svc.SetCassettePrinted(c.Request().Context(), id, req.Printed)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) DeleteCassettes(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.DeleteCassettes(c.Request().Context(), req.IDs)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// -- Glass Handlers --

type addGlassesRequest struct {
	Count    int          `json:"count"`
	Staining StainingType `json:"staining"`
}

func (h *Handler) AddGlasses(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req addGlassesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	glasses, err := h.svc.AddGlasses(c.Request().Context(), id, req.Count, req.Staining)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, glasses)
}

type stainingRequest struct {
	Staining StainingType `json:"staining"`
}

func (h *Handler) UpdateGlassStaining(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req stainingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	g, err := h.svc.UpdateGlassStaining(c.Request().Context(), id, req.Staining)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) SetGlassPrinted(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req printedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	g, err := h.svc.SetGlassPrinted(c.Request().Context(), id, req.Printed)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) GetGlassLabel(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	label, err := h.svc.BuildGlassLabel(c.Request().Context(), id,
		c.QueryParam("clinic"), c.QueryParam("hopper"), c.QueryParam("patient_identifier"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"label": label})
}

func (h *Handler) DeleteGlasses(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.DeleteGlasses(c.Request().Context(), req.IDs)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}
