package billing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/chirohq/chiro/internal/platform/auth"
	"github.com/chirohq/chiro/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "front_desk"))
	g.POST("/claims", h.CreateClaim)
	g.GET("/claims", h.ListClaims)
	g.GET("/claims/:id", h.GetClaim)
	g.POST("/claims/:id/lines", h.AddLine)
	g.POST("/claims/:id/submit", h.Submit)
	g.POST("/claims/:id/pay", h.MarkPaid)
	g.POST("/claims/:id/deny", h.Deny)
	g.POST("/claims/:id/resubmit", h.Resubmit)
	g.GET("/invoices/:id", h.GetInvoice)
	g.GET("/invoices", h.ListInvoices)
	g.POST("/invoices/:id/pay", h.PayInvoice)
}

func claimError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return echo.NewHTTPError(http.StatusNotFound, "claim not found")
	case errors.Is(err, ErrBadTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) CreateClaim(c echo.Context) error {
	var claim Claim
	if err := c.Bind(&claim); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateClaim(c.Request().Context(), &claim); err != nil {
		return claimError(err)
	}
	return c.JSON(http.StatusCreated, claim)
}

func (h *Handler) GetClaim(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	claim, err := h.svc.GetClaim(c.Request().Context(), id)
	if err != nil {
		return claimError(err)
	}
	return c.JSON(http.StatusOK, claim)
}

func (h *Handler) ListClaims(c echo.Context) error {
	pg := pagination.FromContext(c)

	if status := c.QueryParam("status"); status != "" {
		items, total, err := h.svc.ListClaimsByStatus(c.Request().Context(), status, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id or status is required")
	}
	items, total, err := h.svc.ListClaimsByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) AddLine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var line ClaimLine
	if err := c.Bind(&line); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddLine(c.Request().Context(), id, &line); err != nil {
		return claimError(err)
	}
	return c.JSON(http.StatusCreated, line)
}

func (h *Handler) Submit(c echo.Context) error {
	return h.lifecycle(c, func(ctx echo.Context, id uuid.UUID) error {
		return h.svc.Submit(ctx.Request().Context(), id)
	})
}

func (h *Handler) Resubmit(c echo.Context) error {
	return h.lifecycle(c, func(ctx echo.Context, id uuid.UUID) error {
		return h.svc.Resubmit(ctx.Request().Context(), id)
	})
}

func (h *Handler) MarkPaid(c echo.Context) error {
	return h.lifecycle(c, func(ctx echo.Context, id uuid.UUID) error {
		var body struct {
			PatientResponsibilityCents int `json:"patient_responsibility_cents"`
		}
		if err := ctx.Bind(&body); err != nil {
			return err
		}
		return h.svc.MarkPaid(ctx.Request().Context(), id, body.PatientResponsibilityCents)
	})
}

func (h *Handler) Deny(c echo.Context) error {
	return h.lifecycle(c, func(ctx echo.Context, id uuid.UUID) error {
		var body struct {
			DenialCode string `json:"denial_code"`
		}
		if err := ctx.Bind(&body); err != nil {
			return err
		}
		return h.svc.Deny(ctx.Request().Context(), id, body.DenialCode)
	})
}

func (h *Handler) lifecycle(c echo.Context, fn func(echo.Context, uuid.UUID) error) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := fn(c, id); err != nil {
		return claimError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) ListInvoices(c echo.Context) error {
	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListInvoicesByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) PayInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.PayInvoice(c.Request().Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return echo.NewHTTPError(http.StatusConflict, "invoice is not open")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
