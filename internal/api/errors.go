package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sd-transit/internal/auth"
	"sd-transit/internal/db"
	"sd-transit/internal/planner"
	"sd-transit/internal/sim"
	"sd-transit/internal/transit"
)

// Client-facing messages are in Spanish, matching the app.
const (
	msgMissingFields      = "Por favor completa todos los campos"
	msgMissingLogin       = "Por favor ingresa tu correo electrónico y contraseña"
	msgMissingEndpoint    = "Por favor completa el origen y destino"
	msgSameEndpoints      = "El origen y destino no pueden ser iguales"
	msgInvalidTrip        = "Solicitud de viaje inválida"
	msgInvalidHour        = "La hora debe ser un número entre 0 y 23"
	msgRouteNotFound      = "Ruta no encontrada"
	msgVehicleNotFound    = "Vehículo no encontrado"
	msgEmailTaken         = "El correo electrónico ya está registrado"
	msgInvalidCredentials = "Correo electrónico o contraseña incorrectos"
	msgMissingToken       = "Debes iniciar sesión"
	msgInvalidToken       = "Sesión inválida o expirada"
	msgInternal           = "Error interno del servidor"
)

// statusFor maps a domain error onto its HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest, msgMissingFields
	case errors.Is(err, planner.ErrMissingEndpoint):
		return http.StatusBadRequest, msgMissingEndpoint
	case errors.Is(err, planner.ErrSameEndpoints):
		return http.StatusBadRequest, msgSameEndpoints
	case errors.Is(err, transit.ErrRouteNotFound),
		errors.Is(err, transit.ErrPathNotFound):
		return http.StatusNotFound, msgRouteNotFound
	case errors.Is(err, sim.ErrVehicleNotFound):
		return http.StatusNotFound, msgVehicleNotFound
	case errors.Is(err, db.ErrEmailTaken):
		return http.StatusConflict, msgEmailTaken
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, msgInvalidToken
	}
	return http.StatusInternalServerError, msgInternal
}

// abortWithError writes the error response. Server errors use the {error}
// shape and are attached to the context for the access log.
func (h *handler) abortWithError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, gin.H{"error": msg})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch status, _ := statusFor(err); status {
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnauthorized:
		return "unauthorized"
	}
	return "error"
}
