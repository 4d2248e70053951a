package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carebook/booking-api/internal/middleware"
	"github.com/carebook/booking-api/internal/service/appointment"
	"github.com/carebook/booking-api/internal/service/user"
	"github.com/carebook/booking-api/pkg/httputil"
)

type Handler struct {
	userSvc        *user.Service
	appointmentSvc *appointment.Service
}

func NewHandler(userSvc *user.Service, appointmentSvc *appointment.Service) *Handler {
	return &Handler{userSvc: userSvc, appointmentSvc: appointmentSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.GET("/users", h.ListUsers)
		admin.DELETE("/users/:id", h.DeleteUser)
		admin.GET("/appointments", h.ListAppointments)
	}
}

func (h *Handler) ListUsers(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	users, err := h.userSvc.List(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, users)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{
			Status:  "error",
			Message: "invalid user id",
		})
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) ListAppointments(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	appointments, err := h.appointmentSvc.ListAll(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}
