package routes

import (
	"Gin_postgres_redis_swab_tracker/app"
	"Gin_postgres_redis_swab_tracker/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	swabCtl := controllers.NewSwabController(s)
	adminCtl := controllers.NewAdminController(s)
	authCtl := controllers.NewAuthController(s)
	labelCtl := controllers.NewLabelController(s)

	// 复用的中间件
	adminMW := app.AdminRequired(a.AdminSessions())

	// ------------------------------
	// 管理员会话（公开入口）
	// ------------------------------
	r.POST("/login", authCtl.Login)
	r.POST("/logout", authCtl.Logout)
	r.GET("/whoami", authCtl.WhoAmI)

	// ------------------------------
	// 车间侧（公开）：看板、扫码借还、流水
	// ------------------------------
	api := r.Group("/api")
	{
		api.GET("/swabs", swabCtl.ListSwabs) // ?q=
		api.GET("/swabs/:id/state", swabCtl.GetState)
		api.POST("/swabs/:id/take", swabCtl.Take)
		api.POST("/swabs/:id/return", swabCtl.Return)
		api.POST("/scan", swabCtl.Scan)
		api.GET("/history", swabCtl.History) // ?limit=
		api.GET("/machines", swabCtl.ListMachines)
		api.GET("/thresholds", swabCtl.GetThresholds)
	}

	// ------------------------------
	// 管理（仅登录管理员）：登记/修正/删除、机器、阈值设置、补录
	// ------------------------------
	admin := r.Group("/api", adminMW)
	{
		admin.POST("/swabs", adminCtl.CreateSwab)
		admin.PUT("/swabs/:id", adminCtl.UpdateSwab)
		admin.DELETE("/swabs/:id", adminCtl.DeleteSwab)
		admin.POST("/swabs/:id/usage-days", adminCtl.AddUsageDays)

		admin.POST("/machines", adminCtl.CreateMachine)
		admin.DELETE("/machines/:id", adminCtl.DeleteMachine)

		admin.GET("/settings", adminCtl.GetSettings)
		admin.PUT("/settings", adminCtl.UpdateSettings)
	}

	// ------------------------------
	// 标签（公开，打印页直接引图）
	// ------------------------------
	r.GET("/label/:sku", labelCtl.LabelPNG) // :sku 形如 ABC123.png
}
