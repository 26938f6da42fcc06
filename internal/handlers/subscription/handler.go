package subscription

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weatherapp/weather-reminder-api/internal/apperrors"
	"github.com/weatherapp/weather-reminder-api/internal/handlers/middleware"
	"github.com/weatherapp/weather-reminder-api/internal/models"
)

type subscriber interface {
	Subscribe(ctx context.Context, userID int64, cityName string, periodHours int) (models.Subscription, error)
	Update(ctx context.Context, userID int64, cityName string, periodHours int) (models.Subscription, error)
	Unsubscribe(ctx context.Context, userID int64, cityName string) error
	List(ctx context.Context, userID int64) ([]models.Subscription, error)
}

type Handler struct {
	Service subscriber
}

func NewHandler(svc subscriber) *Handler {
	return &Handler{Service: svc}
}

// Subscribe
// @Summary Subscribe to weather updates
// @Description Creates a subscription for the caller to a city with a period in hours.
// @Tags subscription
// @Produce json
// @Param cityName path string true "City name"
// @Param periodHours path int true "Period of notification in hours"
// @Success 201 {object} models.Subscription
// @Failure 400
// @Failure 401
// @Failure 409
// @Router /subscriptions/{cityName}/{periodHours} [post]
func (h *Handler) Subscribe(c *gin.Context) {
	city, period, ok := cityAndPeriod(c)
	if !ok {
		return
	}

	sub, err := h.Service.Subscribe(c.Request.Context(), middleware.UserID(c), city, period)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Update
// @Summary Update a subscription
// @Description Changes the period of the caller's subscription to a city.
// @Tags subscription
// @Produce json
// @Param cityName path string true "City name"
// @Param periodHours path int true "Period of notification in hours"
// @Success 200 {object} models.Subscription
// @Failure 400
// @Failure 401
// @Failure 404
// @Router /subscriptions/{cityName}/{periodHours} [put]
func (h *Handler) Update(c *gin.Context) {
	city, period, ok := cityAndPeriod(c)
	if !ok {
		return
	}

	sub, err := h.Service.Update(c.Request.Context(), middleware.UserID(c), city, period)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Unsubscribe
// @Summary Delete a subscription
// @Description Removes the caller's subscription to a city.
// @Tags subscription
// @Produce json
// @Param cityName path string true "City name"
// @Success 200
// @Failure 401
// @Failure 404
// @Router /subscriptions/{cityName} [delete]
func (h *Handler) Unsubscribe(c *gin.Context) {
	if err := h.Service.Unsubscribe(c.Request.Context(), middleware.UserID(c), c.Param("cityName")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription has been deleted"})
}

// List
// @Summary List subscriptions
// @Description Returns all of the caller's subscriptions.
// @Tags subscription
// @Produce json
// @Success 200 {array} models.Subscription
// @Failure 401
// @Router /subscriptions [get]
func (h *Handler) List(c *gin.Context) {
	subs, err := h.Service.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func cityAndPeriod(c *gin.Context) (string, int, bool) {
	city := c.Param("cityName")
	period, err := strconv.Atoi(c.Param("periodHours"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period of notification must be an integer"})
		return "", 0, false
	}
	return city, period, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrEmptyCity), errors.Is(err, apperrors.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrSubscriptionExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
