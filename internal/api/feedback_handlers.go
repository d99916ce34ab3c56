package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/aquaguide/internal/service"
)

func PostFeedback(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.FeedbackRequest
		if err := bindJSON(c, &req); err != nil {
			HandleError(c, app.Logger(), err, "failed to record feedback")
			return
		}
		rec, err := app.Manager().RecordFeedback(c.Request.Context(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, "storage failure")
			return
		}
		HandleSuccess(c, app.Logger(), rec, nil)
	}
}

func ListFeedback(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := app.Manager().ListFeedback(c.Request.Context(), c.Query("species"), c.Query("run_start_date"))
		if err != nil {
			HandleError(c, app.Logger(), err, "storage failure")
			return
		}
		HandleSuccess(c, app.Logger(), records, map[string]any{"count": len(records)})
	}
}
