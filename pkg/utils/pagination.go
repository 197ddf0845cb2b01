package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const MaxPageSize = 100

type Page struct {
	Page     int
	PageSize int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ParsePage reads ?page and ?pageSize, falling back to page 1 and
// defaultSize.
func ParsePage(c *gin.Context, defaultSize int) (Page, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return Page{}, ErrInvalidPage
	}

	size, err := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultSize)))
	if err != nil || size < 1 || size > MaxPageSize {
		return Page{}, ErrInvalidPageSize
	}

	return Page{Page: page, PageSize: size}, nil
}
