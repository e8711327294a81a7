package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCategory is assigned to articles published without a category.
const DefaultCategory = "General"

// Article is a published news item. Comments are embedded in the article
// and are persisted together with it.
type Article struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PictureURL    string    `json:"pictureUrl"`
	Category      string    `json:"category"`
	ReporterEmail string    `json:"reporterEmail"`
	PublishedAt   time.Time `json:"publishedAt"`
	Comments      []Comment `json:"comments"`
}

// Comment is embedded in an Article. ID only exists to address the comment
// when appending replies.
type Comment struct {
	ID             uuid.UUID `json:"id"`
	CommenterName  string    `json:"commenterName"`
	CommenterEmail string    `json:"commenterEmail"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	Replies        []Reply   `json:"replies"`
}

// Reply is embedded in a Comment.
type Reply struct {
	ReplierName  string    `json:"replierName"`
	ReplierEmail string    `json:"replierEmail"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ArticlePatch carries the fields of a partial article update. Nil fields are
// left untouched.
type ArticlePatch struct {
	Title       *string
	Description *string
	PictureURL  *string
	Category    *string
}

// NewArticle creates an Article with a fresh ID, no comments and the default
// category when none is given.
func NewArticle(title, description, pictureURL, category, reporterEmail string, publishedAt time.Time) Article {
	if category == "" {
		category = DefaultCategory
	}
	return Article{
		ID:            uuid.New(),
		Title:         title,
		Description:   description,
		PictureURL:    pictureURL,
		Category:      category,
		ReporterEmail: reporterEmail,
		PublishedAt:   publishedAt,
		Comments:      []Comment{},
	}
}

// NewComment creates a Comment with a fresh ID and no replies.
func NewComment(name, email, content string, createdAt time.Time) Comment {
	return Comment{
		ID:             uuid.New(),
		CommenterName:  name,
		CommenterEmail: email,
		Content:        content,
		CreatedAt:      createdAt,
		Replies:        []Reply{},
	}
}

// Apply copies the non-nil fields of p onto a. An empty category resets it to
// DefaultCategory.
func (p ArticlePatch) Apply(a *Article) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.PictureURL != nil {
		a.PictureURL = *p.PictureURL
	}
	if p.Category != nil {
		a.Category = *p.Category
		if a.Category == "" {
			a.Category = DefaultCategory
		}
	}
}

// FindComment returns the index of the comment with the given id, or -1.
func (a *Article) FindComment(id uuid.UUID) int {
	for i := range a.Comments {
		if a.Comments[i].ID == id {
			return i
		}
	}
	return -1
}
