package clix

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"bookgenre/internal/models"
	"bookgenre/pkg/genre"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

func ParsePagination(flags *pflag.FlagSet) (PaginationParams, error) {
	limit, _ := flags.GetInt("limit")
	offset, _ := flags.GetInt("offset")
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return PaginationParams{Limit: limit, Offset: offset}, nil
}

// ParseBookFilter reads the book list filters. A zero limit means no limit.
func ParseBookFilter(flags *pflag.FlagSet) (models.BookFilter, error) {
	title, _ := flags.GetString("title")
	author, _ := flags.GetString("author")
	category, _ := flags.GetString("category")
	limit, _ := flags.GetInt("limit")
	offset, _ := flags.GetInt("offset")
	if limit < 0 || offset < 0 {
		return models.BookFilter{}, fmt.Errorf("limit and offset must not be negative")
	}
	return models.BookFilter{
		Title:    strings.TrimSpace(title),
		Author:   strings.TrimSpace(author),
		Category: strings.TrimSpace(category),
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func ParseView(flags *pflag.FlagSet) (genre.View, error) {
	v, _ := flags.GetString("view")
	return genre.ParseView(strings.ToLower(strings.TrimSpace(v)))
}
