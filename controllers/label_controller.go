// controllers/label_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"Gin_postgres_redis_swab_tracker/app"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LabelController struct{ *Srv }

func NewLabelController(s *Srv) *LabelController { return &LabelController{Srv: s} }

// LabelPNG 出标签图：SKU 必须真实存在；磁盘缓存没失效就直接回文件
func (lc *LabelController) LabelPNG(c *gin.Context) {
	sku := strings.TrimSuffix(strings.TrimSpace(c.Param("sku")), ".png")
	if sku == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid sku"})
		return
	}

	ctx := c.Request.Context()
	if _, err := lc.Repo.FindSwabBySKU(ctx, sku); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "unknown sku: " + sku})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	bs, err := lc.Repo.GetBarcodeSettings(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	hash, err := lc.Repo.GetBarcodeSettingsHash(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	path, err := lc.Labels.EnsurePNG(sku, bs, hash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "image/png")
	c.File(path)
}
