package controller

import (
	"strconv"

	"examcell_backend/internal/qbank"
	"examcell_backend/internal/service"
	"examcell_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// QuestionBankController 题库编辑会话、草稿与题库配置接口
type QuestionBankController struct {
	QuestionBankService *service.QuestionBankService
	Provider            qbank.ConfigurationProvider
	Hub                 *service.SessionHub
}

func NewQuestionBankController(qbService *service.QuestionBankService, provider qbank.ConfigurationProvider, hub *service.SessionHub) *QuestionBankController {
	return &QuestionBankController{
		QuestionBankService: qbService,
		Provider:            provider,
		Hub:                 hub,
	}
}

// InitModulesRequest 模块数量保留原始输入，由服务端解析
// swagger:model InitModulesRequest
type InitModulesRequest struct {
	NumModules string `json:"numModules" binding:"required"`
}

// AddCategoriesRequest swagger:model AddCategoriesRequest
type AddCategoriesRequest struct {
	Count int `json:"count" binding:"required"`
}

// CategoryFieldRequest field 支持 marks / numberOfQuestions
// swagger:model CategoryFieldRequest
type CategoryFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// bindSelection 请求体可为空
func bindSelection(ctx *gin.Context) (qbank.Selection, bool) {
	var sel qbank.Selection
	if ctx.Request.ContentLength == 0 {
		return sel, true
	}
	if err := ctx.ShouldBindJSON(&sel); err != nil {
		util.BadRequest(ctx, err.Error())
		return sel, false
	}
	return sel, true
}

// respondView 会话操作统一返回最新快照
func respondView(ctx *gin.Context, view *service.SessionView, err error) {
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// OpenSession godoc
// @Summary 新建题库编辑会话
// @Description 以空树开始编辑，可同时提交下拉框选择项
// @Tags 题库编辑
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body qbank.Selection false "院系/课程/专业/法规"
// @Success 201 {object} util.Response{data=service.SessionView} "创建成功"
// @Router /api/questionbanks/sessions [post]
func (c *QuestionBankController) OpenSession(ctx *gin.Context) {
	sel, ok := bindSelection(ctx)
	if !ok {
		return
	}
	actor, _ := currentActor(ctx)
	util.Created(ctx, c.QuestionBankService.OpenSession(actor, sel))
}

// ListSessions godoc
// @Summary 我的编辑会话
// @Tags 题库编辑
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.SessionSummary} "成功"
// @Router /api/questionbanks/sessions [get]
func (c *QuestionBankController) ListSessions(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	util.Success(ctx, c.QuestionBankService.ListSessions(actor))
}

// GetSession godoc
// @Summary 会话详情
// @Tags 题库编辑
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/questionbanks/sessions/{id} [get]
func (c *QuestionBankController) GetSession(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.GetSession(ctx.Param("id"), actor)
	respondView(ctx, view, err)
}

// CloseSession godoc
// @Summary 关闭会话
// @Description 未保存的内容丢弃，进行中的上传被取消
// @Tags 题库编辑
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/questionbanks/sessions/{id} [delete]
func (c *QuestionBankController) CloseSession(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	if err := c.QuestionBankService.CloseSession(ctx.Param("id"), actor); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// SetSelection godoc
// @Summary 更新下拉框选择项
// @Tags 题库编辑
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   body body qbank.Selection true "院系/课程/专业/法规"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Router /api/questionbanks/sessions/{id}/selection [put]
func (c *QuestionBankController) SetSelection(ctx *gin.Context) {
	var sel qbank.Selection
	if err := ctx.ShouldBindJSON(&sel); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.SetSelection(ctx.Param("id"), actor, sel)
	respondView(ctx, view, err)
}

// InitModules godoc
// @Summary 初始化模块
// @Description 按数量（1-10）重建整棵树
// @Tags 题库编辑
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   body body InitModulesRequest true "模块数量"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 400 {object} util.Response "数量不合法"
// @Router /api/questionbanks/sessions/{id}/modules [post]
func (c *QuestionBankController) InitModules(ctx *gin.Context) {
	var req InitModulesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.InitModules(ctx.Param("id"), actor, req.NumModules)
	respondView(ctx, view, err)
}

// AddCategories godoc
// @Summary 追加分类
// @Tags 题库编辑
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   moduleId path string true "模块ID"
// @Param   body body AddCategoriesRequest true "分类数量"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 400 {object} util.Response "数量不合法或模块不存在"
// @Router /api/questionbanks/sessions/{id}/modules/{moduleId}/categories [post]
func (c *QuestionBankController) AddCategories(ctx *gin.Context) {
	var req AddCategoriesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.AddCategories(ctx.Param("id"), actor, ctx.Param("moduleId"), req.Count)
	respondView(ctx, view, err)
}

// SetCategoryField godoc
// @Summary 修改未确认分类的字段
// @Description 已确认的分类静默忽略，changed 为 false
// @Tags 题库编辑
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   moduleId path string true "模块ID"
// @Param   categoryId path string true "分类ID"
// @Param   body body CategoryFieldRequest true "字段与取值"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Router /api/questionbanks/sessions/{id}/modules/{moduleId}/categories/{categoryId} [patch]
func (c *QuestionBankController) SetCategoryField(ctx *gin.Context) {
	var req CategoryFieldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.SetCategoryField(ctx.Param("id"), actor, ctx.Param("moduleId"), ctx.Param("categoryId"), req.Field, req.Value)
	respondView(ctx, view, err)
}

// ConfirmCategory godoc
// @Summary 确认分类并生成题目
// @Tags 题库编辑
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   moduleId path string true "模块ID"
// @Param   categoryId path string true "分类ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 400 {object} util.Response "分值或题目数量不合法"
// @Router /api/questionbanks/sessions/{id}/modules/{moduleId}/categories/{categoryId}/confirm [post]
func (c *QuestionBankController) ConfirmCategory(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.ConfirmCategory(ctx.Param("id"), actor, ctx.Param("moduleId"), ctx.Param("categoryId"))
	respondView(ctx, view, err)
}

// AddQuestion godoc
// @Summary 追加题目
// @Tags 题库编辑
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   categoryId path string true "分类ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Router /api/questionbanks/sessions/{id}/categories/{categoryId}/questions [post]
func (c *QuestionBankController) AddQuestion(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.AddQuestion(ctx.Param("id"), actor, ctx.Param("categoryId"))
	respondView(ctx, view, err)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Description 剩余题目重新编号，该题上的上传被取消
// @Tags 题库编辑
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   questionId path string true "题目ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Router /api/questionbanks/sessions/{id}/questions/{questionId} [delete]
func (c *QuestionBankController) DeleteQuestion(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.DeleteQuestion(ctx.Param("id"), actor, ctx.Param("questionId"))
	respondView(ctx, view, err)
}

// AddBlock godoc
// @Summary 追加内容块
// @Tags 题库编辑
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   questionId path string true "题目ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Router /api/questionbanks/sessions/{id}/questions/{questionId}/blocks [post]
func (c *QuestionBankController) AddBlock(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.AddBlock(ctx.Param("id"), actor, ctx.Param("questionId"))
	respondView(ctx, view, err)
}

// UpdateBlock godoc
// @Summary 修改内容块
// @Description 只更新请求中出现的字段
// @Tags 题库编辑
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   questionId path string true "题目ID"
// @Param   blockId path string true "内容块ID"
// @Param   body body service.BlockUpdate true "内容、分值、布鲁姆层级、课程目标"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Router /api/questionbanks/sessions/{id}/questions/{questionId}/blocks/{blockId} [put]
func (c *QuestionBankController) UpdateBlock(ctx *gin.Context) {
	var req service.BlockUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.UpdateBlock(ctx.Param("id"), actor, ctx.Param("questionId"), ctx.Param("blockId"), req)
	respondView(ctx, view, err)
}

// RemoveBlock godoc
// @Summary 删除内容块
// @Description 题目至少保留一个内容块
// @Tags 题库编辑
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   questionId path string true "题目ID"
// @Param   blockId path string true "内容块ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Router /api/questionbanks/sessions/{id}/questions/{questionId}/blocks/{blockId} [delete]
func (c *QuestionBankController) RemoveBlock(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.RemoveBlock(ctx.Param("id"), actor, ctx.Param("questionId"), ctx.Param("blockId"))
	respondView(ctx, view, err)
}

// UploadBlockImage godoc
// @Summary 上传内容块图片
// @Description wait=true 时等待上传完成并返回图片地址，否则立即返回，结果通过 WebSocket 推送
// @Tags 题库编辑
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   questionId path string true "题目ID"
// @Param   blockId path string true "内容块ID"
// @Param   file formData file true "图片文件"
// @Param   wait query bool false "是否等待上传完成"
// @Success 202 {object} util.Response{data=service.UploadTicket} "已受理"
// @Failure 400 {object} util.Response "文件类型或大小不合法"
// @Router /api/questionbanks/sessions/{id}/questions/{questionId}/blocks/{blockId}/images [post]
func (c *QuestionBankController) UploadBlockImage(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少图片文件")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	wait, _ := strconv.ParseBool(ctx.Query("wait"))
	actor, _ := currentActor(ctx)
	ticket, err := c.QuestionBankService.UploadBlockImage(ctx.Request.Context(), ctx.Param("id"), actor,
		ctx.Param("questionId"), ctx.Param("blockId"), fileHeader.Filename, file, wait)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if ticket.Pending {
		ctx.JSON(202, util.Response{Code: 202, Message: "accepted", Data: ticket})
		return
	}
	util.Success(ctx, ticket)
}

// RemoveBlockImage godoc
// @Summary 删除内容块图片
// @Tags 题库编辑
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   questionId path string true "题目ID"
// @Param   blockId path string true "内容块ID"
// @Param   index path int true "图片序号"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Router /api/questionbanks/sessions/{id}/questions/{questionId}/blocks/{blockId}/images/{index} [delete]
func (c *QuestionBankController) RemoveBlockImage(ctx *gin.Context) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		util.BadRequest(ctx, "无效的图片序号")
		return
	}
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.RemoveBlockImage(ctx.Param("id"), actor, ctx.Param("questionId"), ctx.Param("blockId"), index)
	respondView(ctx, view, err)
}

// LoadConfiguration godoc
// @Summary 按配置生成题库结构
// @Description 请求体为空时使用会话中的选择项；失败时原有内容保持不变
// @Tags 题库编辑
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   body body qbank.Selection false "院系/课程/专业/法规"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 400 {object} util.Response "选择项缺失"
// @Failure 502 {object} util.Response "配置服务异常"
// @Router /api/questionbanks/sessions/{id}/load [post]
func (c *QuestionBankController) LoadConfiguration(ctx *gin.Context) {
	sel, ok := bindSelection(ctx)
	if !ok {
		return
	}
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.Load(ctx.Request.Context(), ctx.Param("id"), actor, sel)
	respondView(ctx, view, err)
}

// Validate godoc
// @Summary 提交前校验
// @Tags 题库编辑
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response "校验通过"
// @Failure 422 {object} util.Response{data=qbank.IncompleteSectionError} "题目数量不足"
// @Router /api/questionbanks/sessions/{id}/validate [post]
func (c *QuestionBankController) Validate(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	if err := c.QuestionBankService.Validate(ctx.Param("id"), actor); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"valid": true})
}

// Submit godoc
// @Summary 提交题库
// @Description 校验通过后保存为待审核题库并关闭会话
// @Tags 题库编辑
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 201 {object} util.Response{data=model.QuestionBank} "提交成功"
// @Failure 400 {object} util.Response "没有模块或选择项缺失"
// @Failure 422 {object} util.Response{data=qbank.IncompleteSectionError} "题目数量不足"
// @Router /api/questionbanks/sessions/{id}/submit [post]
func (c *QuestionBankController) Submit(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	qb, err := c.QuestionBankService.Submit(ctx.Request.Context(), ctx.Param("id"), actor)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, qb)
}

// SaveDraft godoc
// @Summary 保存草稿
// @Description 同一会话重复保存会覆盖同一份草稿
// @Tags 题库编辑
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=model.QuestionBankDraft} "成功"
// @Router /api/questionbanks/sessions/{id}/draft [post]
func (c *QuestionBankController) SaveDraft(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	draft, err := c.QuestionBankService.SaveDraft(ctx.Request.Context(), ctx.Param("id"), actor)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// SessionWebSocket godoc
// @Summary 会话事件推送
// @Description 浏览器无法设置请求头时可通过 token 查询参数认证
// @Tags 题库编辑
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   token query string false "JWT"
// @Router /api/questionbanks/sessions/{id}/ws [get]
func (c *QuestionBankController) SessionWebSocket(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	id := ctx.Param("id")
	if _, err := c.QuestionBankService.GetSession(id, actor); err != nil {
		respondError(ctx, err)
		return
	}
	service.ServeSessionWs(c.Hub, ctx.Writer, ctx.Request, id, actor.UserID)
}

// ListDrafts godoc
// @Summary 我的草稿
// @Tags 题库草稿
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.QuestionBankDraft} "成功"
// @Router /api/questionbanks/drafts [get]
func (c *QuestionBankController) ListDrafts(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	drafts, err := c.QuestionBankService.ListDrafts(ctx.Request.Context(), actor)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, drafts)
}

// ResumeDraft godoc
// @Summary 从草稿继续编辑
// @Tags 题库草稿
// @Produce  json
// @Security ApiKeyAuth
// @Param   draftId path string true "草稿ID"
// @Success 201 {object} util.Response{data=service.SessionView} "新会话"
// @Failure 404 {object} util.Response "草稿不存在或已过期"
// @Router /api/questionbanks/drafts/{draftId}/resume [post]
func (c *QuestionBankController) ResumeDraft(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	view, err := c.QuestionBankService.ResumeDraft(ctx.Request.Context(), actor, ctx.Param("draftId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// DeleteDraft godoc
// @Summary 删除草稿
// @Tags 题库草稿
// @Produce  json
// @Security ApiKeyAuth
// @Param   draftId path string true "草稿ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "草稿不存在"
// @Router /api/questionbanks/drafts/{draftId} [delete]
func (c *QuestionBankController) DeleteDraft(ctx *gin.Context) {
	actor, _ := currentActor(ctx)
	if err := c.QuestionBankService.DeleteDraft(ctx.Request.Context(), actor, ctx.Param("draftId")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ConfigurationDetails godoc
// @Summary 题库配置
// @Description 返回课程开设的模块信息和法规的分节规则
// @Tags 题库配置
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body qbank.ConfigurationRequest true "院系/课程/专业/法规ID"
// @Success 200 {object} util.Response{data=qbank.ConfigurationResponse} "成功"
// @Failure 404 {object} util.Response "没有匹配的课程开设"
// @Router /api/questionbanks/configuration_details [post]
func (c *QuestionBankController) ConfigurationDetails(ctx *gin.Context) {
	var req qbank.ConfigurationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	resp, err := c.Provider.FetchConfiguration(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}
