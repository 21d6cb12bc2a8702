package controller

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"

	"examcell_backend/internal/model"
	"examcell_backend/internal/repository"
	"examcell_backend/internal/service"
	"examcell_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ReviewController 已提交题库的审核、试卷预览与导出
type ReviewController struct {
	ReviewService *service.ReviewService
}

func NewReviewController(reviewService *service.ReviewService) *ReviewController {
	return &ReviewController{ReviewService: reviewService}
}

// ReviewRequest swagger:model ReviewRequest
type ReviewRequest struct {
	Comment string `json:"comment"`
}

// reviewer 考务办公室可以查看全部题库
func reviewer(ctx *gin.Context) (service.Actor, bool) {
	actor, claims := currentActor(ctx)
	return actor, claims != nil && claims.HasRole(model.ExamCell)
}

func bankFilter(ctx *gin.Context) repository.QuestionBankFilter {
	return repository.QuestionBankFilter{
		DepartmentID: util.MustParseUint(ctx.Query("departmentId")),
		Status:       model.ReviewStatus(ctx.Query("status")),
	}
}

// parseLimits 解析 "2:5,10:3" 形式的每节题数上限，非法项忽略
func parseLimits(raw string) map[int]int {
	limits := make(map[int]int)
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(kv) != 2 {
			continue
		}
		marks, err1 := strconv.Atoi(strings.TrimSpace(kv[0]))
		limit, err2 := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err1 != nil || err2 != nil || marks <= 0 || limit <= 0 {
			continue
		}
		limits[marks] = limit
	}
	return limits
}

// ListQuestionBanks godoc
// @Summary 已提交题库列表
// @Description 教师只能看到自己提交的题库
// @Tags 题库审核
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(10)
// @Param   status query string false "审核状态 pending/accepted/rejected"
// @Param   departmentId query int false "院系ID"
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.QuestionBank}} "成功"
// @Router /api/questionbanks [get]
func (c *ReviewController) ListQuestionBanks(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	actor, canReview := reviewer(ctx)
	list, total, err := c.ReviewService.List(actor, canReview, page, limit, bankFilter(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  list,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// QuestionBankStats godoc
// @Summary 题库审核统计
// @Tags 题库审核
// @Produce  json
// @Security ApiKeyAuth
// @Param   departmentId query int false "院系ID"
// @Success 200 {object} util.Response{data=model.QuestionBankStats} "成功"
// @Router /api/questionbanks/stats [get]
func (c *ReviewController) QuestionBankStats(ctx *gin.Context) {
	actor, canReview := reviewer(ctx)
	filter := bankFilter(ctx)
	filter.Status = ""
	stats, err := c.ReviewService.Stats(actor, canReview, filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// GetQuestionBank godoc
// @Summary 题库详情
// @Tags 题库审核
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "题库ID"
// @Success 200 {object} util.Response{data=model.QuestionBank} "成功"
// @Failure 404 {object} util.Response "题库不存在"
// @Router /api/questionbanks/{id} [get]
func (c *ReviewController) GetQuestionBank(ctx *gin.Context) {
	actor, canReview := reviewer(ctx)
	qb, err := c.ReviewService.Get(actor, canReview, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, qb)
}

// AcceptQuestionBank godoc
// @Summary 通过题库
// @Tags 题库审核
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "题库ID"
// @Success 200 {object} util.Response{data=model.QuestionBank} "成功"
// @Failure 409 {object} util.Response "题库已审核"
// @Router /api/questionbanks/{id}/accept [post]
func (c *ReviewController) AcceptQuestionBank(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	qb, err := c.ReviewService.Accept(actor, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, qb)
}

// RejectQuestionBank godoc
// @Summary 退回题库
// @Tags 题库审核
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "题库ID"
// @Param   body body ReviewRequest true "退回意见"
// @Success 200 {object} util.Response{data=model.QuestionBank} "成功"
// @Failure 409 {object} util.Response "题库已审核"
// @Router /api/questionbanks/{id}/reject [post]
func (c *ReviewController) RejectQuestionBank(ctx *gin.Context) {
	var req ReviewRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	actor, _ := currentActor(ctx)
	qb, err := c.ReviewService.Reject(actor, ctx.Param("id"), req.Comment)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, qb)
}

// QuestionBankPaper godoc
// @Summary 试卷预览
// @Description 按分值分节，limits 形如 2:5,10:3 限制每节题数
// @Tags 题库审核
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "题库ID"
// @Param   limits query string false "每节题数上限"
// @Success 200 {object} util.Response{data=qbank.Paper} "成功"
// @Router /api/questionbanks/{id}/paper [get]
func (c *ReviewController) QuestionBankPaper(ctx *gin.Context) {
	actor, canReview := reviewer(ctx)
	paper, _, err := c.ReviewService.Paper(actor, canReview, ctx.Param("id"), parseLimits(ctx.Query("limits")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, paper)
}

// ExportQuestionBank godoc
// @Summary 导出试卷
// @Description 文件名为 <课程代码>_Question_Bank.xlsx
// @Tags 题库审核
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security ApiKeyAuth
// @Param   id path string true "题库ID"
// @Param   limits query string false "每节题数上限"
// @Success 200 {file} file "试卷文件"
// @Router /api/questionbanks/{id}/export [get]
func (c *ReviewController) ExportQuestionBank(ctx *gin.Context) {
	actor, canReview := reviewer(ctx)
	var buf bytes.Buffer
	filename, err := c.ReviewService.Export(actor, canReview, ctx.Param("id"), parseLimits(ctx.Query("limits")), &buf)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", "attachment; filename="+url.PathEscape(filename))
	ctx.Data(200, c.ReviewService.Renderer.ContentType(), buf.Bytes())
}
