package controller

import (
	"examcell_backend/internal/model"
	"examcell_backend/internal/service"
	"examcell_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseOfferingController struct {
	OfferingService *service.CourseOfferingService
}

func NewCourseOfferingController(offeringService *service.CourseOfferingService) *CourseOfferingController {
	return &CourseOfferingController{OfferingService: offeringService}
}

// ListCourseOfferings godoc
// @Summary 课程开设列表
// @Description 教师只能看到自己授课的课程
// @Tags 课程开设
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(10)
// @Param   departmentId query int false "院系ID"
// @Param   instructorId query int false "授课教师ID"
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.CourseOffering}} "成功"
// @Router /api/courseofferings [get]
func (c *CourseOfferingController) ListCourseOfferings(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	departmentID := util.MustParseUint(ctx.Query("departmentId"))
	instructorID := util.MustParseUint(ctx.Query("instructorId"))

	if claims := util.GetUserFromContext(ctx); claims != nil && !claims.HasRole(model.ExamCell) {
		instructorID = claims.UserID
	}

	res, err := c.OfferingService.List(page, limit, departmentID, instructorID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// GetCourseOffering godoc
// @Summary 课程开设详情
// @Tags 课程开设
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程开设ID"
// @Success 200 {object} util.Response{data=model.CourseOffering} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/courseofferings/{id} [get]
func (c *CourseOfferingController) GetCourseOffering(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	o, err := c.OfferingService.Get(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, o)
}

// CreateCourseOffering godoc
// @Summary 创建课程开设
// @Description 同一 (院系, 课程, 专业) 只能开设一次，模块编号必须唯一
// @Tags 课程开设
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CourseOfferingInput true "课程开设信息"
// @Success 201 {object} util.Response{data=model.CourseOffering} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "引用的记录不存在"
// @Failure 409 {object} util.Response "重复开设"
// @Router /api/courseofferings [post]
func (c *CourseOfferingController) CreateCourseOffering(ctx *gin.Context) {
	var req service.CourseOfferingInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	o, err := c.OfferingService.Create(req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, o)
}

// UpdateCourseOffering godoc
// @Summary 更新课程开设
// @Description 模块与授课教师整体替换
// @Tags 课程开设
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程开设ID"
// @Param   body body service.CourseOfferingInput true "课程开设信息"
// @Success 200 {object} util.Response{data=model.CourseOffering} "成功"
// @Router /api/courseofferings/{id} [put]
func (c *CourseOfferingController) UpdateCourseOffering(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req service.CourseOfferingInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	o, err := c.OfferingService.Update(id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, o)
}

// DeleteCourseOffering godoc
// @Summary 删除课程开设
// @Tags 课程开设
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程开设ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/courseofferings/{id} [delete]
func (c *CourseOfferingController) DeleteCourseOffering(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.OfferingService.Delete(id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// CourseOfferingDropdown godoc
// @Summary 课程开设下拉选项
// @Tags 课程开设
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.DropdownOption} "成功"
// @Router /api/courseofferings/dropdown [get]
func (c *CourseOfferingController) CourseOfferingDropdown(ctx *gin.Context) {
	opts, err := c.OfferingService.Dropdown()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, opts)
}
