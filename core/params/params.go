package params

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageNumber = 1
	defaultPageSize   = 20
	maxPageSize       = 100
)

// QueryParams carries common pagination query parameters.
type QueryParams struct {
	PageNumber int
	PageSize   int
}

// NewQueryParams parses `page` and `limit` from the request, falling back to
// defaults on missing or invalid values.
func NewQueryParams(ctx echo.Context) *QueryParams {
	p := &QueryParams{
		PageNumber: defaultPageNumber,
		PageSize:   defaultPageSize,
	}

	if v, err := strconv.Atoi(ctx.QueryParam("page")); err == nil && v > 0 {
		p.PageNumber = v
	}
	if v, err := strconv.Atoi(ctx.QueryParam("limit")); err == nil && v > 0 {
		p.PageSize = v
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}
