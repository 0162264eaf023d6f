package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// ValidRole reports whether role is one of the two collaborator tiers. There
// is no third tier: owners are implicit and never stored as collaborators.
func ValidRole(role string) bool {
	return role == RoleEditor || role == RoleViewer
}

// Collaborator is one granted share on a document.
type Collaborator struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// Document is the stored record, with its ordered collaborator list attached.
type Document struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	OwnerID       string         `json:"ownerId"`
	Collaborators []Collaborator `json:"collaborators"`
	LastEditedAt  time.Time      `json:"lastEditedAt"`
}

// User is the slice of the externally-owned user record this core reads.
// Favourites live in their own table and are fetched separately.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// DocumentView is a Document annotated with per-requester derived flags.
// Neither flag is ever persisted.
type DocumentView struct {
	Document
	EditAccess  bool `json:"editAccess"`
	IsFavourite bool `json:"isFav"`
}

// CollaboratorInfo is a roster entry resolved to a display-safe user summary.
type CollaboratorInfo struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type CreateDocRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r CreateDocRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(0, 255)),
	)
}

type SaveDocRequest struct {
	DocID   string `json:"docId"`
	Content string `json:"content"`
}

func (r SaveDocRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DocID, validation.Required, is.UUID),
	)
}

type UpdateTitleRequest struct {
	Title string `json:"title"`
}

func (r UpdateTitleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
	)
}

type InviteRequest struct {
	DocID string `json:"documentId"`
	Email string `json:"collaboratorEmail"`
	Role  string `json:"role"`
}

func (r InviteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DocID, validation.Required, is.UUID),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Role, validation.Required),
	)
}

type RevokeRequest struct {
	DocID          string `json:"documentId"`
	CollaboratorID string `json:"collaboratorId"`
}

func (r RevokeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DocID, validation.Required, is.UUID),
		validation.Field(&r.CollaboratorID, validation.Required),
	)
}
