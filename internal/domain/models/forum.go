package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Likeable item types.
const (
	ItemThread = "thread"
	ItemPost   = "post"
	ItemReply  = "reply"
)

// ThreadStatusOpen is the only status the server writes. It is advisory.
const ThreadStatusOpen = "open"

// Thread is the root of a forum discussion.
type Thread struct {
	ID         primitive.ObjectID   `bson:"_id" json:"id"`
	Title      string               `bson:"title" json:"title"`
	Content    string               `bson:"content" json:"content"`
	Creator    string               `bson:"creator" json:"creator"` // users.userID
	Categories []string             `bson:"categories" json:"categories"`
	Tags       []string             `bson:"tags" json:"tags"`
	Status     string               `bson:"status" json:"status"`
	ImageURL   string               `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Posts      []primitive.ObjectID `bson:"posts" json:"posts"`
	Replies    int                  `bson:"replies" json:"replies"`
	Views      int                  `bson:"views" json:"views"`
	Likes      []string             `bson:"likes,omitempty" json:"likes,omitempty"`
	LikesCount int                  `bson:"likesCount" json:"likesCount"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Post is a top-level post (Parent nil) or a reply to one.
type Post struct {
	ID         primitive.ObjectID   `bson:"_id" json:"id"`
	ThreadID   primitive.ObjectID   `bson:"threadId" json:"threadId"`
	Author     string               `bson:"author" json:"author"` // users.userID
	Content    string               `bson:"content" json:"content"`
	Parent     *primitive.ObjectID  `bson:"parent" json:"parent"`
	Children   []primitive.ObjectID `bson:"children" json:"children"`
	Replies    int                  `bson:"replies" json:"replies"`
	Mentions   []string             `bson:"mentions,omitempty" json:"mentions,omitempty"`
	Likes      []string             `bson:"likes,omitempty" json:"likes,omitempty"`
	LikesCount int                  `bson:"likesCount" json:"likesCount"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsReply reports whether p hangs off another post.
func (p Post) IsReply() bool { return p.Parent != nil }

// Like records one user's like of one item.
// (userID, itemId, itemType) is unique at the storage level.
type Like struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    string             `bson:"userID" json:"userID"`
	ItemID    primitive.ObjectID `bson:"itemId" json:"itemId"`
	ItemType  string             `bson:"itemType" json:"itemType"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Author is the display projection joined onto threads and posts.
type Author struct {
	UserID       string `bson:"userID" json:"userID"`
	FName        string `bson:"fname,omitempty" json:"fname,omitempty"`
	LName        string `bson:"lname,omitempty" json:"lname,omitempty"`
	Name         string `bson:"name,omitempty" json:"name,omitempty"`
	ProfileImage string `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Role         string `bson:"role,omitempty" json:"role,omitempty"`
	Complete     bool   `bson:"complete" json:"complete"`
}
