package domain

import "time"

// CreatePostRequest is the body of POST /posts.
type CreatePostRequest struct {
	UserID  string `json:"userId" binding:"required"`
	Title   string `json:"title" binding:"required,max=255"`
	Content string `json:"content" binding:"required"`
}

// UpdatePostRequest is the body of PUT /posts/:postId. Nil fields are left unchanged.
type UpdatePostRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=1,max=255"`
	Content *string `json:"content" binding:"omitempty,min=1"`
}

// IsEmpty reports whether the request changes nothing.
func (r *UpdatePostRequest) IsEmpty() bool {
	return r.Title == nil && r.Content == nil
}

// PostView is a post with its read-time aggregates.
type PostView struct {
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	LikeCount int64     `json:"likeCount"`
	HasLiked  bool      `json:"hasLiked"`
}

// NewPostView builds the view of p with zeroed aggregates.
func NewPostView(p *Post) *PostView {
	return &PostView{
		PostID:    p.ID,
		UserID:    p.UserID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// LikeView is the JSON shape of a like.
type LikeView struct {
	LikeID    string    `json:"likeId"`
	UserID    string    `json:"userId"`
	PostID    string    `json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewLikeView(l *Like) *LikeView {
	return &LikeView{
		LikeID:    l.ID,
		UserID:    l.UserID,
		PostID:    l.PostID,
		CreatedAt: l.CreatedAt,
	}
}

// ListPostsResponse is a page of posts.
type ListPostsResponse struct {
	Posts  []*PostView `json:"posts"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

type LikeCountResponse struct {
	Count int64 `json:"count"`
}

type LikeStatusResponse struct {
	HasLiked bool `json:"hasLiked"`
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize clamps the page to the allowed range.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ListPostsQuery is the query string of the list endpoints.
type ListPostsQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=0"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

func (q ListPostsQuery) Page() Page {
	return Page{Limit: q.Limit, Offset: q.Offset}.Normalize()
}
