package app

import (
	"examcell_backend/docs"
	"examcell_backend/internal/config"
	"examcell_backend/internal/middleware"
	"examcell_backend/internal/model"

	"examcell_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		// 下拉框等只读接口，所有角色可用
		a.registerLookupRoutes(authGroup, c)

		// 题库编辑与审核
		a.registerQuestionBankRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerLookupRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	rg.GET("/departments/dropdown", c.academic.DepartmentDropdown)
	rg.GET("/programs/dropdown", c.academic.ProgramDropdown)
	rg.GET("/courses/dropdown", c.academic.CourseDropdown)
	rg.GET("/regulations/dropdown", c.regulation.RegulationDropdown)
	rg.GET("/courseofferings/dropdown", c.courseOffering.CourseOfferingDropdown)
	rg.GET("/users/dropdown", c.user.UserDropdown)
	rg.GET("/roles/dropdown", c.user.RoleDropdown)

	// 教师只能看到自己授课的课程开设
	rg.GET("/courseofferings", c.courseOffering.ListCourseOfferings)
	rg.GET("/courseofferings/:id", c.courseOffering.GetCourseOffering)
	rg.GET("/regulations/:id", c.regulation.GetRegulation)
}

func (a *App) registerQuestionBankRoutes(rg *gin.RouterGroup, c *controllers) {
	qb := rg.Group("/questionbanks")

	qb.POST("/configuration_details", c.questionBank.ConfigurationDetails)

	sessions := qb.Group("/sessions")
	{
		sessions.POST("", c.questionBank.OpenSession)
		sessions.GET("", c.questionBank.ListSessions)
		sessions.GET("/:id", c.questionBank.GetSession)
		sessions.DELETE("/:id", c.questionBank.CloseSession)
		sessions.GET("/:id/ws", c.questionBank.SessionWebSocket)
		sessions.PUT("/:id/selection", c.questionBank.SetSelection)
		sessions.POST("/:id/modules", c.questionBank.InitModules)
		sessions.POST("/:id/modules/:moduleId/categories", c.questionBank.AddCategories)
		sessions.PATCH("/:id/modules/:moduleId/categories/:categoryId", c.questionBank.SetCategoryField)
		sessions.POST("/:id/modules/:moduleId/categories/:categoryId/confirm", c.questionBank.ConfirmCategory)
		sessions.POST("/:id/categories/:categoryId/questions", c.questionBank.AddQuestion)
		sessions.DELETE("/:id/questions/:questionId", c.questionBank.DeleteQuestion)
		sessions.POST("/:id/questions/:questionId/blocks", c.questionBank.AddBlock)
		sessions.PUT("/:id/questions/:questionId/blocks/:blockId", c.questionBank.UpdateBlock)
		sessions.DELETE("/:id/questions/:questionId/blocks/:blockId", c.questionBank.RemoveBlock)
		sessions.POST("/:id/questions/:questionId/blocks/:blockId/images", c.questionBank.UploadBlockImage)
		sessions.DELETE("/:id/questions/:questionId/blocks/:blockId/images/:index", c.questionBank.RemoveBlockImage)
		sessions.POST("/:id/load", c.questionBank.LoadConfiguration)
		sessions.POST("/:id/draft", c.questionBank.SaveDraft)
		sessions.POST("/:id/validate", c.questionBank.Validate)
		sessions.POST("/:id/submit", c.questionBank.Submit)
	}

	drafts := qb.Group("/drafts")
	{
		drafts.GET("", c.questionBank.ListDrafts)
		drafts.POST("/:draftId/resume", c.questionBank.ResumeDraft)
		drafts.DELETE("/:draftId", c.questionBank.DeleteDraft)
	}

	// 已提交题库；教师只能看到自己的，审核操作仅限考务办公室
	qb.GET("", c.review.ListQuestionBanks)
	qb.GET("/stats", c.review.QuestionBankStats)
	qb.GET("/:id", c.review.GetQuestionBank)
	qb.GET("/:id/paper", c.review.QuestionBankPaper)
	qb.GET("/:id/export", c.review.ExportQuestionBank)
	reviewers := qb.Group("")
	reviewers.Use(middleware.RoleMiddleware(model.ExamCell))
	{
		reviewers.POST("/:id/accept", c.review.AcceptQuestionBank)
		reviewers.POST("/:id/reject", c.review.RejectQuestionBank)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.ExamCell))
	{
		admin.GET("/departments", c.academic.ListDepartments)
		admin.GET("/departments/:id", c.academic.GetDepartment)
		admin.GET("/programs", c.academic.ListPrograms)
		admin.GET("/programs/:id", c.academic.GetProgram)
		admin.GET("/courses", c.academic.ListCourses)
		admin.GET("/courses/:id", c.academic.GetCourse)
		admin.GET("/regulations", c.regulation.ListRegulations)
		admin.GET("/users", c.user.GetUsers)
		admin.GET("/users/:id", c.user.GetUser)
	}

	// 写操作仅管理员
	writer := router.Group("/api")
	writer.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware())
	{
		writer.POST("/departments", c.academic.CreateDepartment)
		writer.PUT("/departments/:id", c.academic.UpdateDepartment)
		writer.DELETE("/departments/:id", c.academic.DeleteDepartment)

		writer.POST("/programs", c.academic.CreateProgram)
		writer.PUT("/programs/:id", c.academic.UpdateProgram)
		writer.DELETE("/programs/:id", c.academic.DeleteProgram)

		writer.POST("/courses", c.academic.CreateCourse)
		writer.PUT("/courses/:id", c.academic.UpdateCourse)
		writer.DELETE("/courses/:id", c.academic.DeleteCourse)

		writer.POST("/regulations", c.regulation.CreateRegulation)
		writer.PUT("/regulations/:id", c.regulation.UpdateRegulation)
		writer.DELETE("/regulations/:id", c.regulation.DeleteRegulation)

		writer.POST("/courseofferings", c.courseOffering.CreateCourseOffering)
		writer.PUT("/courseofferings/:id", c.courseOffering.UpdateCourseOffering)
		writer.DELETE("/courseofferings/:id", c.courseOffering.DeleteCourseOffering)

		writer.POST("/users", c.user.CreateUser)
		writer.PUT("/users/:id", c.user.UpdateUser)
		writer.DELETE("/users/:id", c.user.DeleteUser)
	}
}
