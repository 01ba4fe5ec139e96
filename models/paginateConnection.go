package models

import (
	"fmt"

	"github.com/cohapparel/coherp_backend/utils"
	"gorm.io/gorm"
)

type Cursor interface {
	GetCursor() string
}

type Identifier interface {
	GetId() int
}

type Edge[N Cursor] struct {
	Node   *N     `json:"node"`
	Cursor string `json:"cursor"`
}

type CompositeCursor interface {
	Cursor
	Identifier
}

// FetchPageCompositeCursor runs a keyset-paginated query over dbCtx. The
// composite (cursorColumn, id) ordering keeps paging stable when several
// rows share a created_at timestamp. It fetches limit+1 rows so HasNextPage
// needs no second COUNT query.
func FetchPageCompositeCursor[T CompositeCursor](dbCtx *gorm.DB,
	limit int,
	after *string,
	cursorColumn string,
	cmpOperator string,
) ([]Edge[T], *PageInfo, error) {

	switch cmpOperator {
	case ">":
		dbCtx.Order(cursorColumn + ", id")
	case "<":
		dbCtx.Order(cursorColumn + " DESC, id DESC")
	}

	if cursorValue, cursorId := DecodeCompositeCursor(after); cursorValue != "" {
		// [1] = column, [2] = operator
		dbCtx.Where(
			fmt.Sprintf("%[1]s %[2]s ? OR (%[1]s = ? AND id %[2]s ?)", cursorColumn, cmpOperator),
			cursorValue, cursorValue, cursorId)
	}

	nodes := make([]*T, 0, limit+1)
	if err := dbCtx.Limit(limit + 1).Find(&nodes).Error; err != nil {
		return nil, nil, err
	}

	hasNextPage := len(nodes) > limit
	if hasNextPage {
		nodes = nodes[:limit]
	}

	edges := make([]Edge[T], 0, len(nodes))
	for _, node := range nodes {
		edges = append(edges, Edge[T]{
			Node:   node,
			Cursor: EncodeCompositeCursor((*node).GetCursor(), (*node).GetId()),
		})
	}

	pageInfo := &PageInfo{HasNextPage: utils.NewFalse()}
	if len(edges) > 0 {
		pageInfo = &PageInfo{
			StartCursor: edges[0].Cursor,
			EndCursor:   edges[len(edges)-1].Cursor,
			HasNextPage: &hasNextPage,
		}
	}

	return edges, pageInfo, nil
}
