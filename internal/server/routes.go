package server

import (
	"github.com/labstack/echo/v4"

	"github.com/bijaagro/farm-api/internal/handlers"
)

// Routes содержит обработчики и middleware, которые регистрирует registerRoutes.
type Routes struct {
	Health     *handlers.HealthHandler
	Expenses   *handlers.ExpenseHandler
	Categories *handlers.CategoryHandler
	Animals    *handlers.AnimalHandler
	Records    *handlers.RecordHandler
	Tasks      *handlers.TaskHandler
	Logs       *handlers.LogHandler
	Events     *handlers.EventHandler
	Metrics    echo.HandlerFunc
	ImportRate echo.MiddlewareFunc
}

func registerRoutes(e *echo.Echo, r Routes) {
	e.GET("/health", r.Health.Health)
	if r.Metrics != nil {
		e.GET("/metrics", r.Metrics)
	}

	api := e.Group("/api/v1")
	api.GET("/health", r.Health.Health)

	expenses := api.Group("/expenses")
	expenses.GET("", r.Expenses.List)
	expenses.GET("/summary", r.Expenses.Summary)
	expenses.GET("/export.csv", r.Expenses.ExportCSV)
	expenses.POST("", r.Expenses.Create)
	expenses.POST("/import", r.Expenses.Import, r.ImportRate)
	expenses.POST("/bulk-delete", r.Expenses.BulkDelete)
	expenses.GET("/:id", r.Expenses.Get)
	expenses.PUT("/:id", r.Expenses.Update)
	expenses.DELETE("/:id", r.Expenses.Delete)

	categories := api.Group("/categories")
	categories.GET("", r.Categories.List)
	categories.POST("", r.Categories.Create)
	categories.GET("/:id", r.Categories.Get)
	categories.PUT("/:id", r.Categories.Update)
	categories.DELETE("/:id", r.Categories.Delete)
	categories.POST("/:id/sub-categories", r.Categories.AddSubCategory)

	animals := api.Group("/animals")
	animals.GET("", r.Animals.List)
	animals.GET("/summary", r.Animals.Summary)
	animals.POST("", r.Animals.Create)
	animals.GET("/:id", r.Animals.Get)
	animals.PUT("/:id", r.Animals.Update)
	animals.DELETE("/:id", r.Animals.Delete)

	weights := api.Group("/weight-records")
	weights.GET("", r.Records.ListWeights)
	weights.POST("", r.Records.CreateWeight)
	weights.PUT("/:id", r.Records.UpdateWeight)
	weights.DELETE("/:id", r.Records.DeleteWeight)

	breeding := api.Group("/breeding-records")
	breeding.GET("", r.Records.ListBreeding)
	breeding.POST("", r.Records.CreateBreeding)
	breeding.PUT("/:id", r.Records.UpdateBreeding)
	breeding.DELETE("/:id", r.Records.DeleteBreeding)

	vaccinations := api.Group("/vaccination-records")
	vaccinations.GET("", r.Records.ListVaccinations)
	vaccinations.POST("", r.Records.CreateVaccination)
	vaccinations.PUT("/:id", r.Records.UpdateVaccination)
	vaccinations.DELETE("/:id", r.Records.DeleteVaccination)

	health := api.Group("/health-records")
	health.GET("", r.Records.ListHealth)
	health.POST("", r.Records.CreateHealth)
	health.PUT("/:id", r.Records.UpdateHealth)
	health.DELETE("/:id", r.Records.DeleteHealth)

	tasks := api.Group("/tasks")
	tasks.GET("", r.Tasks.List)
	tasks.POST("", r.Tasks.Create)
	tasks.GET("/:id", r.Tasks.Get)
	tasks.PUT("/:id", r.Tasks.Update)
	tasks.PATCH("/:id/status", r.Tasks.UpdateStatus)
	tasks.DELETE("/:id", r.Tasks.Delete)

	logs := api.Group("/logs")
	logs.GET("", r.Logs.List)
	logs.POST("", r.Logs.Create)
	logs.DELETE("", r.Logs.DeleteBefore)

	api.GET("/events", r.Events.Stream)
}
