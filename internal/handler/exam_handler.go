package handler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/contest-exam-api/internal/handler/dto"
	"github.com/yourusername/contest-exam-api/internal/handler/helper"
	"github.com/yourusername/contest-exam-api/internal/middleware"
	"github.com/yourusername/contest-exam-api/internal/service"
)

// Ключи контекста, которые заполняет middleware.ExtractUintParam / ExtractUintQuery
const (
	ContextPaperID       = "paperID"
	ContextCompetitionID = "competitionID"
)

// PaperDistributor раздает листы участникам конкурса
type PaperDistributor interface {
	Distribute(ctx context.Context, actor service.Actor, competitionID uint) (*service.DistributionResult, error)
}

// ExamSession - операции участника над своим листом
type ExamSession interface {
	GetMyPaper(ctx context.Context, actor service.Actor, competitionID uint) (*service.PaperView, error)
	Start(ctx context.Context, actor service.Actor, paperID uint, client service.ClientInfo) (*service.PaperProgress, error)
	SaveDraft(ctx context.Context, actor service.Actor, paperID uint, inputs []service.AnswerInput) (*service.PaperProgress, error)
	Submit(ctx context.Context, actor service.Actor, paperID uint, inputs []service.AnswerInput, client service.ClientInfo) (*service.PaperScore, error)
	GetProgress(ctx context.Context, actor service.Actor, paperID uint) (*service.PaperProgress, error)
}

// ExamHandler обрабатывает запросы /api/exams
type ExamHandler struct {
	distribution PaperDistributor
	exams        ExamSession
}

// NewExamHandler создает обработчик экзаменов
func NewExamHandler(distribution PaperDistributor, exams ExamSession) *ExamHandler {
	return &ExamHandler{distribution: distribution, exams: exams}
}

// actorOrAbort достает личность из контекста; при ее отсутствии отвечает 401
func actorOrAbort(c *gin.Context) (service.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "unauthorized"})
		return service.Actor{}, false
	}
	return actor, true
}

// Distribute раздает листы участникам конкурса
func (h *ExamHandler) Distribute(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	competitionID := c.MustGet(ContextCompetitionID).(uint)

	result, err := h.distribution.Distribute(c.Request.Context(), actor, competitionID)
	if err != nil {
		handleEngineError(c, "ExamHandler.Distribute", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetMyPaper возвращает лист пользователя без эталонных ответов
func (h *ExamHandler) GetMyPaper(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	competitionID := c.MustGet(ContextCompetitionID).(uint)

	paper, err := h.exams.GetMyPaper(c.Request.Context(), actor, competitionID)
	if err != nil {
		handleEngineError(c, "ExamHandler.GetMyPaper", err)
		return
	}
	c.JSON(http.StatusOK, paper)
}

// Start начинает экзамен и запоминает IP и User-Agent
func (h *ExamHandler) Start(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	paperID := c.MustGet(ContextPaperID).(uint)

	progress, err := h.exams.Start(c.Request.Context(), actor, paperID, helper.ClientInfoFromRequest(c))
	if err != nil {
		handleEngineError(c, "ExamHandler.Start", err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// SaveDraft сохраняет промежуточные ответы
func (h *ExamHandler) SaveDraft(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	paperID := c.MustGet(ContextPaperID).(uint)

	var req dto.AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	progress, err := h.exams.SaveDraft(c.Request.Context(), actor, paperID, req.ToInputs())
	if err != nil {
		handleEngineError(c, "ExamHandler.SaveDraft", err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// Submit сдает лист. Тело можно не передавать, если ответы уже сохранены черновиком.
func (h *ExamHandler) Submit(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	paperID := c.MustGet(ContextPaperID).(uint)

	var req dto.AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	score, err := h.exams.Submit(c.Request.Context(), actor, paperID, req.ToInputs(), helper.ClientInfoFromRequest(c))
	if err != nil {
		handleEngineError(c, "ExamHandler.Submit", err)
		return
	}
	log.Printf("[ExamHandler] Paper #%d submitted by user #%d", paperID, actor.UserID)
	c.JSON(http.StatusOK, score)
}

// GetProgress возвращает число отвеченных вопросов листа
func (h *ExamHandler) GetProgress(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	paperID := c.MustGet(ContextPaperID).(uint)

	progress, err := h.exams.GetProgress(c.Request.Context(), actor, paperID)
	if err != nil {
		handleEngineError(c, "ExamHandler.GetProgress", err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
