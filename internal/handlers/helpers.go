package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"drinklog/internal/drinkstats"
	apperrors "drinklog/internal/errors"
	"drinklog/internal/middleware"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// respondWithError writes a consistent JSON error response.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// bindError maps a gin binding failure to an AppError. A malformed date gets
// its own code so clients can point at the offending field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "ymd_date" {
			return apperrors.WithMessage(apperrors.ErrInvalidDate, fe.Field()+" must be formatted as YYYY-MM-DD")
		}
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fe.Error())
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

type rangeQuery struct {
	StartDate string `form:"start_date" binding:"omitempty,ymd_date"`
	EndDate   string `form:"end_date" binding:"omitempty,ymd_date"`
}

// parseDateRange reads the optional start_date and end_date query
// parameters. Either bound may be omitted. An inverted range is passed
// through and simply matches nothing.
func parseDateRange(c *gin.Context) (drinkstats.DateRange, error) {
	var q rangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return drinkstats.DateRange{}, bindError(err)
	}
	return drinkstats.DateRange{
		Start: strings.TrimSpace(q.StartDate),
		End:   strings.TrimSpace(q.EndDate),
	}, nil
}

type limitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// parseLimit reads the optional limit query parameter, falling back to def.
func parseLimit(c *gin.Context, def int) (int, error) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return 0, bindError(err)
	}
	if q.Limit == 0 {
		return def, nil
	}
	return q.Limit, nil
}

// errorDetail renders err the way error responses do, for stream payloads.
func errorDetail(err error) ErrorDetail {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return ErrorDetail{Code: appErr.Code, Message: appErr.Message}
	}
	return ErrorDetail{Code: apperrors.ErrInternalServer.Code, Message: apperrors.ErrInternalServer.Message}
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
