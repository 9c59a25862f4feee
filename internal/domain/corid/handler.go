package corid

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/identifiers", h.MintIdentifier)
	api.GET("/patients/identifiers/:id", h.DecodeIdentifier)
}

type mintRequest struct {
	BirthYear int    `json:"birth_year"`
	Sex       string `json:"sex"`
}

func (h *Handler) MintIdentifier(c echo.Context) error {
	var req mintRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, err := h.svc.Mint(c.Request().Context(), req.BirthYear, req.Sex)
	if err != nil {
		switch {
		case errors.Is(err, ErrMalformedIdentifier):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrSequenceExhausted):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, map[string]string{"identifier": id})
}

func (h *Handler) DecodeIdentifier(c echo.Context) error {
	decoded, err := h.svc.Decode(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrMalformedIdentifier) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, decoded)
}
