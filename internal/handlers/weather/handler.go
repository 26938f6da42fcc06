package weather

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weatherapp/weather-reminder-api/internal/apperrors"
	"github.com/weatherapp/weather-reminder-api/internal/models"
)

type weatherServicer interface {
	GetByCity(ctx context.Context, city string) (models.WeatherSnapshot, error)
}

type Handler struct {
	Service weatherServicer
}

func NewHandler(svc weatherServicer) *Handler {
	return &Handler{Service: svc}
}

// GetWeather
// @Summary Get current weather
// @Description Fetches, records and returns the current weather for a city.
// @Tags weather
// @Produce json
// @Param cityName path string true "City name"
// @Success 201 {object} models.WeatherSnapshot
// @Failure 400
// @Failure 404
// @Failure 502
// @Router /weather/{cityName} [get]
func (h *Handler) GetWeather(c *gin.Context) {
	city := c.Param("cityName")

	snap, err := h.Service.GetByCity(c.Request.Context(), city)
	if err != nil {
		status, msg := mapProviderError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, snap)
}

func mapProviderError(err error) (int, string) {
	if errors.Is(err, apperrors.ErrEmptyCity) {
		return http.StatusBadRequest, apperrors.ErrEmptyCity.Error()
	}
	if errors.Is(err, apperrors.ErrIncompleteData) {
		return http.StatusBadRequest, apperrors.ErrIncompleteData.Error()
	}
	if perr, ok := apperrors.AsProvider(err); ok {
		switch perr.Kind {
		case apperrors.KindNotFound:
			return http.StatusNotFound, perr.Kind.String()
		case apperrors.KindBadRequest:
			return http.StatusBadRequest, perr.Kind.String()
		default:
			return http.StatusBadGateway, perr.Kind.String()
		}
	}
	return http.StatusBadGateway, "error fetching weather data"
}
