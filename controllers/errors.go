package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/services"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondServiceError -> memetakan error dari service ke status HTTP
func respondServiceError(c *gin.Context, op string, err error) {
	var validationErr *services.ValidationError
	var notFoundErr *services.NotFoundError
	var conflictErr *services.ConflictError

	switch {
	case errors.As(err, &validationErr):
		utils.RespondValidation(c, validationErr.Fields)
	case errors.As(err, &notFoundErr):
		utils.RespondError(c, http.StatusNotFound, notFoundErr)
	case errors.As(err, &conflictErr):
		utils.RespondError(c, http.StatusConflict, conflictErr)
	case errors.Is(err, services.ErrUpstreamUnavailable):
		utils.ErrorLogger.WithFields(logrus.Fields{
			"operation": op,
			"path":      c.Request.URL.Path,
			"error":     err.Error(),
		}).Warn("Upstream service unavailable")
		utils.RespondFailure(c, http.StatusServiceUnavailable, "Service temporarily unavailable, please try again", err)
	default:
		utils.ErrorLogger.WithFields(logrus.Fields{
			"operation": op,
			"path":      c.Request.URL.Path,
			"params":    c.Params,
			"query":     c.Request.URL.RawQuery,
			"error":     err.Error(),
		}).Error("Request failed")
		utils.RespondFailure(c, http.StatusInternalServerError, "Failed to "+op, err)
	}
}

// paramID -> parse :id, kirim 400 jika bukan angka positif
func paramID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.RespondValidation(c, []services.FieldError{{Field: name, Message: "Invalid id"}})
		return 0, false
	}
	return uint(id), true
}

// bindJSON -> body JSON yang rusak dilaporkan sebagai validation error
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.RespondValidation(c, []services.FieldError{{Field: "body", Message: "Invalid JSON body: " + err.Error()}})
		return false
	}
	return true
}
