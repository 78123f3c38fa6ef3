package models

import "strings"

// ContentType tags the kind of user-generated content being moderated.
type ContentType string

// Content type constants
const (
	ContentMessage ContentType = "message"
	ContentReview  ContentType = "review"
)

// Valid reports whether t is a supported content type.
func (t ContentType) Valid() bool {
	return t == ContentMessage || t == ContentReview
}

// Content is a piece of user-generated text submitted for moderation.
// Implemented by Message and Review.
type Content interface {
	Type() ContentType
	ContentID() string
	AuthorID() string
	Text() string
}

// Message is a direct message between marketplace users.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Body           string `json:"body"`
}

func (m Message) Type() ContentType { return ContentMessage }
func (m Message) ContentID() string { return m.ID }
func (m Message) AuthorID() string  { return m.SenderID }
func (m Message) Text() string      { return m.Body }

// Review is a user's review of a company.
type Review struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	ReviewerID string `json:"reviewer_id"`
	Rating     int    `json:"rating"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

func (r Review) Type() ContentType { return ContentReview }
func (r Review) ContentID() string { return r.ID }
func (r Review) AuthorID() string  { return r.ReviewerID }

// Text joins title and body so keywords in either are detected.
func (r Review) Text() string {
	if r.Title == "" {
		return r.Body
	}
	if r.Body == "" {
		return r.Title
	}
	return r.Title + "\n" + r.Body
}

// Submission is the wire form of a moderation submission. Exactly one of
// Message or Review must be set, matching ContentType.
type Submission struct {
	ContentType ContentType `json:"content_type"`
	Message     *Message    `json:"message,omitempty"`
	Review      *Review     `json:"review,omitempty"`
}

// Content returns the tagged variant selected by ContentType, or nil when the
// payload does not match its tag.
func (s Submission) Content() Content {
	switch ContentType(strings.ToLower(string(s.ContentType))) {
	case ContentMessage:
		if s.Message != nil && s.Review == nil {
			return *s.Message
		}
	case ContentReview:
		if s.Review != nil && s.Message == nil {
			return *s.Review
		}
	}
	return nil
}
