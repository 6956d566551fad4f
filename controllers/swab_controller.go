// controllers/swab_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Gin_postgres_redis_swab_tracker/app"
	"Gin_postgres_redis_swab_tracker/db"
	"Gin_postgres_redis_swab_tracker/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SwabController struct{ *Srv }

func NewSwabController(s *Srv) *SwabController { return &SwabController{Srv: s} }

// 错误分类 → HTTP 码：校验失败给 4xx，存储故障才 500
func writeRepoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "not found"})
	case errors.Is(err, db.ErrInvalidTransition):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrSwabTaken), errors.Is(err, db.ErrMachineInUse):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}

// 列表（含当前状态、连续/累计天数和阈值标记）
func (sc *SwabController) ListSwabs(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	rows, th, err := sc.Repo.ListOverview(c.Request.Context(), q, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{
		"swabs":     rows,
		"warnDays":  th.WarnDays,
		"alarmDays": th.AlarmDays,
	})
}

type takeReq struct {
	MachineID string  `json:"machineId" binding:"required"`
	Ts        string  `json:"ts,omitempty"`
	Note      *string `json:"note,omitempty"`
}

// 借出（扫码之外的显式入口）
func (sc *SwabController) Take(c *gin.Context) {
	var in takeReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	ts, err := parseTs(in.Ts)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid ts, want RFC3339"})
		return
	}
	st, err := sc.Repo.RecordTake(c.Request.Context(), c.Param("id"), in.MachineID, ts, in.Note)
	if err != nil {
		writeRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type returnReq struct {
	Ts   string  `json:"ts,omitempty"`
	Note *string `json:"note,omitempty"`
}

// 归还
func (sc *SwabController) Return(c *gin.Context) {
	var in returnReq
	_ = c.ShouldBindJSON(&in) // body 可以整个省略
	ts, err := parseTs(in.Ts)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid ts, want RFC3339"})
		return
	}
	res, err := sc.Repo.RecordReturn(c.Request.Context(), c.Param("id"), ts, in.Note)
	if err != nil {
		writeRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (sc *SwabController) GetState(c *gin.Context) {
	if _, err := sc.Repo.FindSwabByID(c.Request.Context(), c.Param("id")); err != nil {
		writeRepoError(c, err)
		return
	}
	st, err := sc.Repo.GetState(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type scanReq struct {
	SKU       string  `json:"sku" binding:"required"`
	Mode      string  `json:"mode,omitempty"` // TOGGLE | TAKE | RETURN，默认 TOGGLE
	MachineID string  `json:"machineId,omitempty"`
	Note      *string `json:"note,omitempty"`
}

// Scan 扫码一把梭：按当前状态决定借还
// TAKE 没带机器时回 409 need_machine + 机器列表，前端弹选择框后重发
func (sc *SwabController) Scan(c *gin.Context) {
	var in scanReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	mode := strings.ToUpper(strings.TrimSpace(in.Mode))
	if mode == "" {
		mode = "TOGGLE"
	}
	if mode != "TOGGLE" && mode != models.ActionTake && mode != models.ActionReturn {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid mode"})
		return
	}

	ctx := c.Request.Context()
	sw, err := sc.Repo.FindSwabBySKU(ctx, strings.TrimSpace(in.SKU))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "unknown sku: " + in.SKU})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	st, err := sc.Repo.GetState(ctx, sw.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	action := mode
	if mode == "TOGGLE" {
		if st.InStock {
			action = models.ActionTake
		} else {
			action = models.ActionReturn
		}
	}

	ts := time.Now().UTC()
	var (
		daysSession *int
		addedDays   int
		newState    *db.CurrentState
	)

	if action == models.ActionTake {
		if in.MachineID == "" {
			ms, err := sc.Repo.ListMachines(ctx)
			if err != nil {
				c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusConflict, app.H{
				"needMachine": true,
				"message":     "select a machine to register the take",
				"machines":    ms,
				"sku":         sw.SKU,
				"mode":        mode,
			})
			return
		}
		newState, err = sc.Repo.RecordTake(ctx, sw.ID, in.MachineID, ts, in.Note)
		if err != nil {
			writeRepoError(c, err)
			return
		}
	} else {
		res, err := sc.Repo.RecordReturn(ctx, sw.ID, ts, in.Note)
		if err != nil {
			writeRepoError(c, err)
			return
		}
		newState = &res.State
		daysSession = res.DaysSession
		addedDays = res.AddedUniqueDays
	}

	currentDays, err := sc.Repo.CurrentDays(ctx, sw.ID, ts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	totalDays, err := sc.Repo.TotalUniqueDays(ctx, sw.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	th, err := sc.Repo.GetThresholds(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	warning, alarm := th.Evaluate(currentDays, totalDays)

	var machineName *string
	if newState.MachineID != nil {
		if m, err := sc.Repo.FindMachineByID(ctx, *newState.MachineID); err == nil {
			machineName = &m.Name
		}
	}

	c.JSON(http.StatusOK, app.H{
		"sku":             sw.SKU,
		"name":            sw.Name,
		"action":          action,
		"inStock":         newState.InStock,
		"machineName":     machineName,
		"ts":              ts,
		"daysSession":     daysSession,
		"addedUniqueDays": addedDays,
		"currentDays":     currentDays,
		"totalDays":       totalDays,
		"warnDays":        th.WarnDays,
		"alarmDays":       th.AlarmDays,
		"warning":         warning,
		"alarm":           alarm,
	})
}

// 借还流水
func (sc *SwabController) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "150"))
	rows, err := sc.Repo.ListHistory(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"movements": rows, "limit": limit})
}

func (sc *SwabController) ListMachines(c *gin.Context) {
	ms, err := sc.Repo.ListMachines(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"machines": ms})
}

func (sc *SwabController) GetThresholds(c *gin.Context) {
	th, err := sc.Repo.GetThresholds(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, th)
}
