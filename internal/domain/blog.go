package domain

import (
	"time"
)

// Blog is an article written by a user.
type Blog struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Content     string      `json:"content"`
	Photo       string      `json:"photo"`
	Links       []BlogLink  `json:"links"`
	AuthorID    string      `json:"-"`
	Author      *AuthorInfo `json:"author,omitempty"`
	Featured    bool        `json:"featured"`
	Category    string      `json:"category"`
	Tags        []string    `json:"tags"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// OwnerID returns the blog's author.
func (b *Blog) OwnerID() string { return b.AuthorID }

// BlogLink is an external reference listed on a blog.
type BlogLink struct {
	Title string `json:"title" validate:"required"`
	URL   string `json:"url" validate:"required,httpurl"`
}

// AuthorInfo is the public summary of a blog author.
type AuthorInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Photo    string `json:"photo,omitempty"`
}
