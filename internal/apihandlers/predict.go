package apihandlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"bookgenre/pkg/genre"
)

// PredictRequest is the body of POST /predict. Missing fields are empty.
type PredictRequest struct {
	Title       string `json:"title"`
	Authors     string `json:"authors"`
	Description string `json:"description"`
}

// PredictHandler handles POST /predict?view=flat|ranked.
func (h *APIHandler) PredictHandler(c *gin.Context) {
	view, err := genre.ParseView(c.Query("view"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	in := genre.Input{Title: req.Title, Authors: req.Authors, Description: req.Description}
	pred, err := h.Predictions.Predict(c.Request.Context(), in)
	if err != nil {
		log.WithError(err).Warn("Answering /predict with fallback")
		writeDegraded(c, err)
		return
	}
	c.JSON(http.StatusOK, pred.View(view))
}
