package scheduling

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/chirohq/chiro/internal/platform/auth"
	"github.com/chirohq/chiro/pkg/pagination"
)

const conflictMessage = "This time slot is no longer available"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Patients book, cancel and view their own appointments through the
	// portal; staff roles manage the rest.
	patientOK := api.Group("", auth.RequireRole("admin", "provider", "front_desk", "patient"))
	patientOK.POST("/appointments/book", h.Book)
	patientOK.GET("/appointments/:id", h.GetAppointment)
	patientOK.GET("/appointments", h.ListAppointments)
	patientOK.POST("/appointments/:id/cancel", h.Cancel)
	patientOK.POST("/appointments/:id/reschedule", h.Reschedule)

	staff := api.Group("", auth.RequireRole("admin", "provider", "front_desk"))
	staff.PUT("/appointments/:id/status", h.UpdateStatus)
	staff.GET("/appointment-types", h.ListTypes)
	staff.GET("/appointment-types/:id", h.GetType)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/appointment-types", h.CreateType)
	admin.PUT("/appointment-types/:id", h.UpdateType)
	admin.DELETE("/appointment-types/:id", h.DeleteType)
}

func (h *Handler) Book(c echo.Context) error {
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appt, err := h.svc.Book(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return echo.NewHTTPError(http.StatusConflict, conflictMessage)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	at, _ := h.svc.GetType(c.Request().Context(), appt.AppointmentTypeID)
	title := "Appointment"
	if at != nil {
		title = at.Name
	}

	return c.JSON(http.StatusCreated, BookingResponse{
		Success:     true,
		Appointment: appt,
		CalendarEvent: CalendarEvent{
			Title:     title,
			StartTime: appt.StartTime,
			EndTime:   appt.EndTime,
		},
	})
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	appt, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	ctx := c.Request().Context()

	if pid := c.QueryParam("provider_id"); pid != "" {
		providerID, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid provider_id")
		}
		from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from must be RFC3339")
		}
		to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "to must be RFC3339")
		}
		items, err := h.svc.ListByProvider(ctx, providerID, from, to)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, items)
	}

	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id or provider_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(ctx, patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Cancel(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		StartTime time.Time `json:"start_time"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appt, err := h.svc.Reschedule(c.Request().Context(), id, body.StartTime)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return echo.NewHTTPError(http.StatusConflict, conflictMessage)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateStatus(c.Request().Context(), id, body.Status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Appointment type handlers --

func (h *Handler) CreateType(c echo.Context) error {
	var at AppointmentType
	if err := c.Bind(&at); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateType(c.Request().Context(), &at); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, at)
}

func (h *Handler) GetType(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	at, err := h.svc.GetType(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment type not found")
	}
	return c.JSON(http.StatusOK, at)
}

func (h *Handler) UpdateType(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var at AppointmentType
	if err := c.Bind(&at); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	at.ID = id
	if err := h.svc.UpdateType(c.Request().Context(), &at); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, at)
}

func (h *Handler) DeleteType(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteType(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListTypes(c echo.Context) error {
	items, err := h.svc.ListTypes(c.Request().Context(), c.QueryParam("active") == "true")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
