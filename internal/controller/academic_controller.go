package controller

import (
	"examcell_backend/internal/service"
	"examcell_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AcademicController 院系、专业、课程的维护接口
type AcademicController struct {
	AcademicService *service.AcademicService
}

func NewAcademicController(academicService *service.AcademicService) *AcademicController {
	return &AcademicController{AcademicService: academicService}
}

// ListDepartments godoc
// @Summary 院系列表
// @Tags 院系管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(10)
// @Param   search query string false "名称或缩写"
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.Department}} "成功"
// @Router /api/departments [get]
func (c *AcademicController) ListDepartments(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	res, err := c.AcademicService.ListDepartments(page, limit, ctx.Query("search"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// GetDepartment godoc
// @Summary 院系详情
// @Tags 院系管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "院系ID"
// @Success 200 {object} util.Response{data=model.Department} "成功"
// @Failure 404 {object} util.Response "院系不存在"
// @Router /api/departments/{id} [get]
func (c *AcademicController) GetDepartment(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	d, err := c.AcademicService.GetDepartment(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, d)
}

// CreateDepartment godoc
// @Summary 创建院系
// @Tags 院系管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.DepartmentInput true "院系信息"
// @Success 201 {object} util.Response{data=model.Department} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "名称重复"
// @Router /api/departments [post]
func (c *AcademicController) CreateDepartment(ctx *gin.Context) {
	var req service.DepartmentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	d, err := c.AcademicService.CreateDepartment(req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, d)
}

// UpdateDepartment godoc
// @Summary 更新院系
// @Tags 院系管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "院系ID"
// @Param   body body service.DepartmentInput true "院系信息"
// @Success 200 {object} util.Response{data=model.Department} "成功"
// @Failure 404 {object} util.Response "院系不存在"
// @Router /api/departments/{id} [put]
func (c *AcademicController) UpdateDepartment(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req service.DepartmentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	d, err := c.AcademicService.UpdateDepartment(id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, d)
}

// DeleteDepartment godoc
// @Summary 删除院系
// @Description 被课程开设引用的院系不能删除
// @Tags 院系管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "院系ID"
// @Success 200 {object} util.Response "成功"
// @Failure 409 {object} util.Response "仍被引用"
// @Router /api/departments/{id} [delete]
func (c *AcademicController) DeleteDepartment(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.AcademicService.DeleteDepartment(id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// DepartmentDropdown godoc
// @Summary 院系下拉选项
// @Tags 院系管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.DropdownOption} "成功"
// @Router /api/departments/dropdown [get]
func (c *AcademicController) DepartmentDropdown(ctx *gin.Context) {
	opts, err := c.AcademicService.DepartmentDropdown()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, opts)
}

// ListPrograms godoc
// @Summary 专业列表
// @Tags 专业管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(10)
// @Param   search query string false "名称"
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.Program}} "成功"
// @Router /api/programs [get]
func (c *AcademicController) ListPrograms(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	res, err := c.AcademicService.ListPrograms(page, limit, ctx.Query("search"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// GetProgram godoc
// @Summary 专业详情
// @Tags 专业管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "专业ID"
// @Success 200 {object} util.Response{data=model.Program} "成功"
// @Failure 404 {object} util.Response "专业不存在"
// @Router /api/programs/{id} [get]
func (c *AcademicController) GetProgram(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	p, err := c.AcademicService.GetProgram(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, p)
}

// CreateProgram godoc
// @Summary 创建专业
// @Tags 专业管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.ProgramInput true "专业信息"
// @Success 201 {object} util.Response{data=model.Program} "创建成功"
// @Failure 409 {object} util.Response "名称重复"
// @Router /api/programs [post]
func (c *AcademicController) CreateProgram(ctx *gin.Context) {
	var req service.ProgramInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	p, err := c.AcademicService.CreateProgram(req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, p)
}

// UpdateProgram godoc
// @Summary 更新专业
// @Tags 专业管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "专业ID"
// @Param   body body service.ProgramInput true "专业信息"
// @Success 200 {object} util.Response{data=model.Program} "成功"
// @Router /api/programs/{id} [put]
func (c *AcademicController) UpdateProgram(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req service.ProgramInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	p, err := c.AcademicService.UpdateProgram(id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, p)
}

// DeleteProgram godoc
// @Summary 删除专业
// @Tags 专业管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "专业ID"
// @Success 200 {object} util.Response "成功"
// @Failure 409 {object} util.Response "仍被引用"
// @Router /api/programs/{id} [delete]
func (c *AcademicController) DeleteProgram(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.AcademicService.DeleteProgram(id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ProgramDropdown godoc
// @Summary 专业下拉选项
// @Tags 专业管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.DropdownOption} "成功"
// @Router /api/programs/dropdown [get]
func (c *AcademicController) ProgramDropdown(ctx *gin.Context) {
	opts, err := c.AcademicService.ProgramDropdown()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, opts)
}

// ListCourses godoc
// @Summary 课程列表
// @Tags 课程管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(10)
// @Param   search query string false "课程代码或名称"
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.Course}} "成功"
// @Router /api/courses [get]
func (c *AcademicController) ListCourses(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	res, err := c.AcademicService.ListCourses(page, limit, ctx.Query("search"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// GetCourse godoc
// @Summary 课程详情
// @Tags 课程管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *AcademicController) GetCourse(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	course, err := c.AcademicService.GetCourse(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// CreateCourse godoc
// @Summary 创建课程
// @Description 课程代码统一转为大写
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CourseInput true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Failure 409 {object} util.Response "课程代码重复"
// @Router /api/courses [post]
func (c *AcademicController) CreateCourse(ctx *gin.Context) {
	var req service.CourseInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	course, err := c.AcademicService.CreateCourse(req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.CourseInput true "课程信息"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Router /api/courses/{id} [put]
func (c *AcademicController) UpdateCourse(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req service.CourseInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	course, err := c.AcademicService.UpdateCourse(id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除课程
// @Tags 课程管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Failure 409 {object} util.Response "仍被引用"
// @Router /api/courses/{id} [delete]
func (c *AcademicController) DeleteCourse(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.AcademicService.DeleteCourse(id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// CourseDropdown godoc
// @Summary 课程下拉选项
// @Tags 课程管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.DropdownOption} "成功"
// @Router /api/courses/dropdown [get]
func (c *AcademicController) CourseDropdown(ctx *gin.Context) {
	opts, err := c.AcademicService.CourseDropdown()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, opts)
}
