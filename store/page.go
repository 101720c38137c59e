package store

import "github.com/classchat/classchat/types"

// Page is the canonical cursor-pagination shape shared by the live history
// replay and the HTTP query path. Messages are in chronological order,
// NextCursor points at the oldest retained message and is only set when an
// older page exists. Chaining cursors visits every message exactly once.
type Page struct {
	Messages   []types.WireMessage `json:"messages"`
	HasMore    bool                `json:"hasMore"`
	NextCursor *int64              `json:"nextCursor"`
}

type SearchPage struct {
	Page
	Total int64 `json:"total"`
}

// buildPage turns a newest-first query result of up to limit+1 rows into the
// canonical page: the probe row beyond the limit only sets HasMore, the
// retained rows are reversed to chronological order, and the authors map
// hydrates the wire shape.
func buildPage(rows []types.Message, limit int, authors map[string]*types.User) *Page {
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	messages := make([]types.WireMessage, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		messages = append(messages, types.NewWireMessage(&rows[i], authors[rows[i].UserId]))
	}
	page := &Page{Messages: messages, HasMore: hasMore}
	if hasMore {
		page.NextCursor = &messages[0].Id
	}
	return page
}
