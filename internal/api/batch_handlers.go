package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/aquaguide/internal/service"
)

func StartBatch(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.StartBatchRequest
		if err := bindJSON(c, &req); err != nil {
			HandleError(c, app.Logger(), err, "failed to start batch")
			return
		}
		batch, err := app.Manager().Start(c.Request.Context(), userID(c), req.Species)
		if err != nil {
			HandleError(c, app.Logger(), err, "storage failure")
			return
		}
		HandleSuccess(c, app.Logger(), batch, nil)
	}
}

func GetBatch(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		batch, err := app.Manager().Active(c.Request.Context(), userID(c))
		if err != nil {
			HandleError(c, app.Logger(), err, "storage failure")
			return
		}
		HandleSuccess(c, app.Logger(), batch, nil)
	}
}

func ClearBatch(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Manager().Clear(c.Request.Context(), userID(c)); err != nil {
			HandleError(c, app.Logger(), err, "storage failure")
			return
		}
		HandleSuccess(c, app.Logger(), nil, map[string]any{"cleared": true})
	}
}

func GetProgress(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		progress, err := app.Manager().Progress(c.Request.Context(), userID(c))
		if err != nil {
			HandleError(c, app.Logger(), err, "storage failure")
			return
		}
		HandleSuccess(c, app.Logger(), progress, nil)
	}
}

func CompleteBatch(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CompleteBatchRequest
		if err := bindJSON(c, &req); err != nil {
			HandleError(c, app.Logger(), err, "failed to complete batch")
			return
		}
		rec, err := app.Manager().Complete(c.Request.Context(), userID(c), req.Species)
		if err != nil {
			HandleError(c, app.Logger(), err, "storage failure")
			return
		}
		HandleSuccess(c, app.Logger(), rec, nil)
	}
}

func ListCompleted(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := app.Manager().ListCompleted(c.Request.Context(), userID(c))
		if err != nil {
			HandleError(c, app.Logger(), err, "storage failure")
			return
		}
		HandleSuccess(c, app.Logger(), records, map[string]any{"count": len(records)})
	}
}
