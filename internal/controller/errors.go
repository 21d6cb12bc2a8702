package controller

import (
	"errors"
	"net/http"
	"strconv"

	"examcell_backend/internal/qbank"
	"examcell_backend/internal/service"
	"examcell_backend/internal/util"

	"github.com/gin-gonic/gin"
)

var (
	notFoundErrors = []error{
		util.ErrSessionNotFound,
		util.ErrDraftNotFound,
		util.ErrQuestionBankNotFound,
		util.ErrRecordNotFound,
		util.ErrUserNotFound,
		util.ErrConfigurationNotFound,
	}
	conflictErrors = []error{
		util.ErrDuplicateRecord,
		util.ErrUsernameTaken,
		util.ErrRecordInUse,
		util.ErrAlreadyReviewed,
		util.ErrSessionClosed,
	}
	badRequestErrors = []error{
		util.ErrCommentRequired,
		util.ErrInvalidImage,
		util.ErrImageTooLarge,
		util.ErrInvalidSectionRules,
		util.ErrDuplicateModuleNumbers,
		util.ErrInvalidModuleNumber,
	}
)

func matchAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// respondError 把业务错误映射为 HTTP 状态码，未知错误记录日志后返回 500
func respondError(ctx *gin.Context, err error) {
	var incomplete *qbank.IncompleteSectionError
	var vErr *qbank.ValidationError
	var cErr *qbank.ConfigurationError

	switch {
	case errors.As(err, &incomplete):
		util.ErrorWithData(ctx, http.StatusUnprocessableEntity, incomplete.Error(), incomplete)
	case errors.As(err, &vErr):
		util.BadRequest(ctx, vErr.Message)
	case errors.As(err, &cErr):
		if errors.Is(err, util.ErrConfigurationNotFound) {
			util.Error(ctx, http.StatusNotFound, cErr.Message)
			return
		}
		util.Error(ctx, http.StatusBadGateway, cErr.Message)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrInvalidCredentials), errors.Is(err, util.ErrUserDisabled):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	case matchAny(err, notFoundErrors):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case matchAny(err, conflictErrors):
		util.Conflict(ctx, err.Error())
	case matchAny(err, badRequestErrors):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// parseID 解析路径中的数字ID，失败时直接写回 400
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "无效的ID")
		return 0, false
	}
	return uint(id), true
}

func pageParams(ctx *gin.Context) (int, int) {
	page := util.ParseIntDefault(ctx.Query("page"), 1)
	limit := util.ParseIntDefault(ctx.DefaultQuery("limit", ctx.Query("pageSize")), 10)
	return page, limit
}

// currentActor 路由已经过 AuthMiddleware，claims 必然存在
func currentActor(ctx *gin.Context) (service.Actor, *util.Claims) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return service.Actor{}, nil
	}
	return service.ActorFromClaims(claims), claims
}
