package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/contest-exam-api/internal/handler/dto"
	"github.com/yourusername/contest-exam-api/internal/service"
)

// GradingEngine - ручная проверка и списки для экспертов
type GradingEngine interface {
	ManualGrade(ctx context.Context, actor service.Actor, input service.ManualGradeInput) (*service.PaperScore, error)
	PendingGrading(ctx context.Context, actor service.Actor, competitionID uint) ([]service.PendingPaper, error)
	PaperAnswers(ctx context.Context, actor service.Actor, paperID uint) ([]service.AnswerDetail, error)
}

// RankingEngine - публикация результатов и рейтинг
type RankingEngine interface {
	Publish(ctx context.Context, actor service.Actor, input service.PublishInput) (*service.PublishResult, error)
	Recalculate(ctx context.Context, actor service.Actor, competitionID uint) (*service.CompetitionRanking, error)
	CompetitionRanking(ctx context.Context, competitionID uint) (*service.CompetitionRanking, error)
	MyScores(ctx context.Context, actor service.Actor) ([]service.MyScore, error)
}

// ScoreHandler обрабатывает запросы /api/scores
type ScoreHandler struct {
	grading GradingEngine
	ranking RankingEngine
}

// NewScoreHandler создает обработчик оценок
func NewScoreHandler(grading GradingEngine, ranking RankingEngine) *ScoreHandler {
	return &ScoreHandler{grading: grading, ranking: ranking}
}

// PendingGrading возвращает листы, ожидающие ручной проверки.
// competitionId необязателен: без него возвращаются листы всех конкурсов.
func (h *ScoreHandler) PendingGrading(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	competitionID := c.GetUint(ContextCompetitionID)

	papers, err := h.grading.PendingGrading(c.Request.Context(), actor, competitionID)
	if err != nil {
		handleEngineError(c, "ScoreHandler.PendingGrading", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": papers, "total": len(papers)})
}

// PaperAnswers возвращает ответы листа с эталонами для эксперта
func (h *ScoreHandler) PaperAnswers(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	paperID := c.MustGet(ContextPaperID).(uint)

	answers, err := h.grading.PaperAnswers(c.Request.Context(), actor, paperID)
	if err != nil {
		handleEngineError(c, "ScoreHandler.PaperAnswers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paperId": paperID, "answers": answers})
}

// ManualGrade применяет оценки эксперта к субъективным ответам
func (h *ScoreHandler) ManualGrade(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req dto.ManualGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	score, err := h.grading.ManualGrade(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		handleEngineError(c, "ScoreHandler.ManualGrade", err)
		return
	}
	c.JSON(http.StatusOK, score)
}

// Publish публикует результаты конкурса и завершает его
func (h *ScoreHandler) Publish(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.ranking.Publish(c.Request.Context(), actor, service.PublishInput{
		CompetitionID:  req.CompetitionID,
		NotifyStudents: req.NotifyStudents,
	})
	if err != nil {
		handleEngineError(c, "ScoreHandler.Publish", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CompetitionRanking возвращает рейтинг конкурса по возрастанию ранга
func (h *ScoreHandler) CompetitionRanking(c *gin.Context) {
	competitionID := c.MustGet(ContextCompetitionID).(uint)

	ranking, err := h.ranking.CompetitionRanking(c.Request.Context(), competitionID)
	if err != nil {
		handleEngineError(c, "ScoreHandler.CompetitionRanking", err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}

// RecalculateRanking пересчитывает ранги после исправления оценок
func (h *ScoreHandler) RecalculateRanking(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req dto.CompetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ranking, err := h.ranking.Recalculate(c.Request.Context(), actor, req.CompetitionID)
	if err != nil {
		handleEngineError(c, "ScoreHandler.RecalculateRanking", err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}

// MyScores возвращает итоговые результаты команд пользователя
func (h *ScoreHandler) MyScores(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	scores, err := h.ranking.MyScores(c.Request.Context(), actor)
	if err != nil {
		handleEngineError(c, "ScoreHandler.MyScores", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": scores})
}
