package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/contest-exam-api/internal/middleware"
	"github.com/yourusername/contest-exam-api/internal/service"
)

// RegisterRoutes настраивает маршруты /api/exams и /api/scores.
// examWriteLimit применяется к черновикам и сдаче; nil отключает лимит.
func RegisterRoutes(api *gin.RouterGroup, authMiddleware *middleware.AuthMiddleware, examWriteLimit gin.HandlerFunc, exams *ExamHandler, scores *ScoreHandler) {
	graderOnly := authMiddleware.RequireRole(service.RoleTeacher, service.RoleAdmin)
	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if examWriteLimit == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{examWriteLimit, h}
	}

	// Экзамены
	examGroup := api.Group("/exams")
	examGroup.Use(authMiddleware.RequireAuth())
	{
		examGroup.POST("/competitions/:id/distribute",
			graderOnly,
			middleware.ExtractUintParam("id", ContextCompetitionID),
			exams.Distribute)
		examGroup.GET("/my-paper/:competitionId",
			middleware.ExtractUintParam("competitionId", ContextCompetitionID),
			exams.GetMyPaper)

		// Группа маршрутов, требующих paperId
		paperGroup := examGroup.Group("/:paperId")
		paperGroup.Use(middleware.ExtractUintParam("paperId", ContextPaperID))
		{
			paperGroup.POST("/start", exams.Start)
			paperGroup.PUT("/draft", limited(exams.SaveDraft)...)
			paperGroup.POST("/submit", limited(exams.Submit)...)
			paperGroup.GET("/progress", exams.GetProgress)
		}
	}

	// Оценки и рейтинг
	scoreGroup := api.Group("/scores")
	scoreGroup.Use(authMiddleware.RequireAuth())
	{
		scoreGroup.GET("/competition-ranking",
			middleware.ExtractUintQuery("competitionId", ContextCompetitionID, true),
			scores.CompetitionRanking)
		scoreGroup.GET("/my-scores", scores.MyScores)

		// Маршруты для экспертов
		graders := scoreGroup.Group("")
		graders.Use(graderOnly)
		{
			graders.GET("/pending-grading",
				middleware.ExtractUintQuery("competitionId", ContextCompetitionID, false),
				scores.PendingGrading)
			graders.GET("/papers/:paperId/answers",
				middleware.ExtractUintParam("paperId", ContextPaperID),
				scores.PaperAnswers)
			graders.POST("/manual-grade", scores.ManualGrade)
			graders.POST("/publish", scores.Publish)
			graders.POST("/recalculate-ranking", scores.RecalculateRanking)
		}
	}
}
