package model

import "time"

// Category is a top-level circular posted by the admissions office (an
// admission round or a job call).  The client never mutates it.
//
// Fields:
//  ID          – remote primary key.
//  Title       – headline shown in the category list.
//  Category    – kind of circular ("admission" or "job").
//  Description – free text body of the circular.
//  CreatedAt   – publication time.
type Category struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Subcategory is a concrete position or class inside a Category.  It is
// fetched separately from its parent and linked by the Post id.
type Subcategory struct {
	ID             int64    `json:"id"`
	Post           int64    `json:"post,omitempty"`
	CustomID       string   `json:"custom_id,omitempty"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Deadline       string   `json:"deadline,omitempty"`
	ApplicationFee *float64 `json:"application_fee,omitempty"`
}
