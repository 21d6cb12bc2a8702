package controller

import (
	"examcell_backend/internal/service"
	"examcell_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RegulationController struct {
	RegulationService *service.RegulationService
}

func NewRegulationController(regulationService *service.RegulationService) *RegulationController {
	return &RegulationController{RegulationService: regulationService}
}

// ListRegulations godoc
// @Summary 法规列表
// @Tags 法规管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(10)
// @Param   search query string false "名称"
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.Regulation}} "成功"
// @Router /api/regulations [get]
func (c *RegulationController) ListRegulations(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	res, err := c.RegulationService.List(page, limit, ctx.Query("search"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// GetRegulation godoc
// @Summary 法规详情
// @Description 分节规则按顺序返回
// @Tags 法规管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "法规ID"
// @Success 200 {object} util.Response{data=model.Regulation} "成功"
// @Failure 404 {object} util.Response "法规不存在"
// @Router /api/regulations/{id} [get]
func (c *RegulationController) GetRegulation(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	reg, err := c.RegulationService.Get(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, reg)
}

// CreateRegulation godoc
// @Summary 创建法规
// @Tags 法规管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.RegulationInput true "法规及分节规则"
// @Success 201 {object} util.Response{data=model.Regulation} "创建成功"
// @Failure 400 {object} util.Response "分节规则不合法"
// @Failure 409 {object} util.Response "名称重复"
// @Router /api/regulations [post]
func (c *RegulationController) CreateRegulation(ctx *gin.Context) {
	var req service.RegulationInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	reg, err := c.RegulationService.Create(req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, reg)
}

// UpdateRegulation godoc
// @Summary 更新法规
// @Description 分节规则整体替换
// @Tags 法规管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "法规ID"
// @Param   body body service.RegulationInput true "法规及分节规则"
// @Success 200 {object} util.Response{data=model.Regulation} "成功"
// @Router /api/regulations/{id} [put]
func (c *RegulationController) UpdateRegulation(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req service.RegulationInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	reg, err := c.RegulationService.Update(id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, reg)
}

// DeleteRegulation godoc
// @Summary 删除法规
// @Tags 法规管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "法规ID"
// @Success 200 {object} util.Response "成功"
// @Failure 409 {object} util.Response "仍被引用"
// @Router /api/regulations/{id} [delete]
func (c *RegulationController) DeleteRegulation(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.RegulationService.Delete(id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// RegulationDropdown godoc
// @Summary 法规下拉选项
// @Tags 法规管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.DropdownOption} "成功"
// @Router /api/regulations/dropdown [get]
func (c *RegulationController) RegulationDropdown(ctx *gin.Context) {
	opts, err := c.RegulationService.Dropdown()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, opts)
}
