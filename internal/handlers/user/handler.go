package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/weatherapp/weather-reminder-api/internal/apperrors"
	"github.com/weatherapp/weather-reminder-api/internal/models"
)

type userCreator interface {
	Create(ctx context.Context, username, email, passwordHash string) (models.User, error)
}

type Handler struct {
	Users userCreator
}

func NewHandler(users userCreator) *Handler {
	return &Handler{Users: users}
}

// Register
// @Summary Register a new user
// @Description Creates an account. Tokens are issued by the auth edge, not here.
// @Tags user
// @Accept json
// @Produce json
// @Param credentials body models.Credentials true "Registration payload"
// @Success 201 {object} models.User
// @Failure 400
// @Failure 409
// @Router /register [post]
func (h *Handler) Register(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid registration fields"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	created, err := h.Users.Create(c.Request.Context(), creds.Username, creds.Email, string(hash))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": created, "message": "User Created Successfully."})
}
