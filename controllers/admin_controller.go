// controllers/admin_controller.go
package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"Gin_postgres_redis_swab_tracker/app"
	"Gin_postgres_redis_swab_tracker/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminController struct{ *Srv }

func NewAdminController(s *Srv) *AdminController { return &AdminController{Srv: s} }

// 管理员登记一支新 swab，顺手把标签图渲染出来
func (ac *AdminController) CreateSwab(c *gin.Context) {
	var in struct {
		SKU  string `json:"sku" binding:"required"`
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	sw := &models.Swab{ID: uuid.NewString(), SKU: strings.TrimSpace(in.SKU), Name: strings.TrimSpace(in.Name)}
	if sw.SKU == "" || sw.Name == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "sku and name are required"})
		return
	}
	if err := ac.Repo.CreateSwab(c.Request.Context(), sw); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate") {
			c.JSON(http.StatusConflict, app.H{"error": "sku already exists: " + sw.SKU})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	ac.ensureLabel(c, sw.SKU)
	c.JSON(http.StatusCreated, sw)
}

func (ac *AdminController) UpdateSwab(c *gin.Context) {
	var in struct {
		SKU  string `json:"sku" binding:"required"`
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	old, err := ac.Repo.FindSwabByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeRepoError(c, err)
		return
	}
	sw, err := ac.Repo.UpdateSwab(c.Request.Context(), old.ID, strings.TrimSpace(in.Name), strings.TrimSpace(in.SKU))
	if err != nil {
		if strings.Contains(err.Error(), "duplicate") {
			c.JSON(http.StatusConflict, app.H{"error": "sku already exists on another swab"})
			return
		}
		writeRepoError(c, err)
		return
	}
	// SKU 改了的话旧标签图就是死文件，顺手清掉
	if old.SKU != sw.SKU {
		ac.Labels.Remove(old.SKU)
	}
	ac.ensureLabel(c, sw.SKU)
	c.JSON(http.StatusOK, sw)
}

func (ac *AdminController) DeleteSwab(c *gin.Context) {
	sw, err := ac.Repo.FindSwabByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeRepoError(c, err)
		return
	}
	if err := ac.Repo.DeleteSwab(c.Request.Context(), sw.ID); err != nil {
		writeRepoError(c, err)
		return
	}
	ac.Labels.Remove(sw.SKU)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (ac *AdminController) CreateMachine(c *gin.Context) {
	var in struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	m := &models.Machine{ID: uuid.NewString(), Name: strings.TrimSpace(in.Name)}
	if m.Name == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "name is required"})
		return
	}
	if err := ac.Repo.CreateMachine(c.Request.Context(), m); err != nil {
		if strings.Contains(err.Error(), "duplicate") {
			c.JSON(http.StatusConflict, app.H{"error": "machine already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (ac *AdminController) DeleteMachine(c *gin.Context) {
	if err := ac.Repo.DeleteMachine(c.Request.Context(), c.Param("id")); err != nil {
		writeRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// 手工补录使用日区间（日期格式 YYYY-MM-DD，含两端），幂等，返回真正新增的条数
func (ac *AdminController) AddUsageDays(c *gin.Context) {
	var in struct {
		Start string `json:"start" binding:"required"`
		End   string `json:"end" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	start, err := time.Parse("2006-01-02", in.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid start date"})
		return
	}
	end, err := time.Parse("2006-01-02", in.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid end date"})
		return
	}
	added, err := ac.Repo.AddUsageDaysForRange(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		writeRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"insertedCount": added})
}

type settingsPayload struct {
	WarnDays  int                    `json:"warnDays"`
	AlarmDays int                    `json:"alarmDays"`
	Barcode   models.BarcodeSettings `json:"barcode"`
}

func (ac *AdminController) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()
	th, err := ac.Repo.GetThresholds(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	bs, err := ac.Repo.GetBarcodeSettings(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settingsPayload{WarnDays: th.WarnDays, AlarmDays: th.AlarmDays, Barcode: bs})
}

// UpdateSettings 整包更新：阈值必须是正整数且 warn < alarm，条码参数必须全部为正
func (ac *AdminController) UpdateSettings(c *gin.Context) {
	var in settingsPayload
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.WarnDays <= 0 || in.AlarmDays <= 0 || in.WarnDays >= in.AlarmDays {
		c.JSON(http.StatusBadRequest, app.H{"error": "thresholds must be positive integers with warn < alarm"})
		return
	}
	b := in.Barcode
	if b.ModuleWidth <= 0 || b.ModuleHeight <= 0 || b.QuietZone <= 0 || b.FontSize <= 0 || b.TextDistance <= 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "barcode parameters must be positive"})
		return
	}

	ctx := c.Request.Context()
	pairs := map[string]string{
		models.SettingWarnDays:            fmt.Sprintf("%d", in.WarnDays),
		models.SettingAlarmDays:           fmt.Sprintf("%d", in.AlarmDays),
		models.SettingBarcodeModuleWidth:  fmt.Sprintf("%g", b.ModuleWidth),
		models.SettingBarcodeModuleHeight: fmt.Sprintf("%g", b.ModuleHeight),
		models.SettingBarcodeQuietZone:    fmt.Sprintf("%g", b.QuietZone),
		models.SettingBarcodeFontSize:     fmt.Sprintf("%d", b.FontSize),
		models.SettingBarcodeTextDistance: fmt.Sprintf("%g", b.TextDistance),
		models.SettingBarcodeWriteText:    map[bool]string{true: "1", false: "0"}[b.WriteText],
		models.SettingBarcodeSettingsHash: b.Hash(),
	}
	for k, v := range pairs {
		if err := ac.Repo.SetSetting(ctx, k, v); err != nil {
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// 标签渲染失败不挡主流程，下次请求标签时还会重试
func (ac *AdminController) ensureLabel(c *gin.Context, sku string) {
	ctx := c.Request.Context()
	bs, err := ac.Repo.GetBarcodeSettings(ctx)
	if err != nil {
		return
	}
	hash, err := ac.Repo.GetBarcodeSettingsHash(ctx)
	if err != nil {
		return
	}
	_, _ = ac.Labels.EnsurePNG(sku, bs, hash)
}
