package domain

import (
	"time"
)

// PostModel is the GORM model for the posts table.
type PostModel struct {
	ID        string    `gorm:"primaryKey;column:post_id;type:varchar(36)"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;index:idx_posts_user_created,priority:1"`
	Title     string    `gorm:"column:title;type:varchar(255);not null"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_posts_user_created,priority:2"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (PostModel) TableName() string { return "posts" }

// LikeModel is the GORM model for the likes table.
// (user_id, post_id) is unique: a user likes a post at most once.
type LikeModel struct {
	ID        string    `gorm:"primaryKey;column:like_id;type:varchar(36)"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:idx_likes_user_post,priority:1"`
	PostID    string    `gorm:"column:post_id;type:varchar(36);not null;uniqueIndex:idx_likes_user_post,priority:2;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Post *PostModel `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
}

func (LikeModel) TableName() string { return "likes" }

// CachedUserModel is the GORM model for the cached_valid_users table.
type CachedUserModel struct {
	UserID    string    `gorm:"primaryKey;column:user_id;type:varchar(64)"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (CachedUserModel) TableName() string { return "cached_valid_users" }

// Post is the domain representation of a post.
type Post struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Like is the domain representation of a like.
type Like struct {
	ID        string
	UserID    string
	PostID    string
	CreatedAt time.Time
}

func (m *PostModel) ToDomain() *Post {
	return &Post{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func PostToModel(p *Post) *PostModel {
	return &PostModel{
		ID:        p.ID,
		UserID:    p.UserID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (m *LikeModel) ToDomain() *Like {
	return &Like{
		ID:        m.ID,
		UserID:    m.UserID,
		PostID:    m.PostID,
		CreatedAt: m.CreatedAt,
	}
}

func LikeToModel(l *Like) *LikeModel {
	return &LikeModel{
		ID:        l.ID,
		UserID:    l.UserID,
		PostID:    l.PostID,
		CreatedAt: l.CreatedAt,
	}
}
