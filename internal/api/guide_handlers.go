package api

import (
	"github.com/gin-gonic/gin"
)

func ListSpecies(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		species, err := app.Manager().ListSpecies(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, "storage failure")
			return
		}
		HandleSuccess(c, app.Logger(), species, nil)
	}
}

func GetSpeciesInfo(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := app.Manager().SpeciesInfo(c.Request.Context(), c.Param("species"))
		if err != nil {
			HandleError(c, app.Logger(), err, "storage failure")
			return
		}
		HandleSuccess(c, app.Logger(), info, nil)
	}
}

// GetGuide answers 200 with null data when the catalog has no entry for the day.
func GetGuide(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, err := app.Manager().DayContent(c.Request.Context(), c.Query("species"), c.Query("day"))
		if err != nil {
			HandleError(c, app.Logger(), err, "storage failure")
			return
		}
		HandleSuccess(c, app.Logger(), entry, nil)
	}
}
