// Package access is the single authority on what a user may do to a
// document. Permissions are recomputed from the document's current
// collaborator list on every call, so a revoked collaborator loses access on
// the very next request.
package access

import (
	"inkpad/internal/document/model"
	"inkpad/pkg/apperr"
)

// Permission is the effective access level of a (user, document) pair.
type Permission int

const (
	None Permission = iota
	Viewer
	Editor
	Owner
)

func (p Permission) String() string {
	switch p {
	case Owner:
		return "owner"
	case Editor:
		return model.RoleEditor
	case Viewer:
		return model.RoleViewer
	}
	return "none"
}

// CanEdit reports whether the permission allows content mutation.
func (p Permission) CanEdit() bool {
	return p >= Editor
}

// Action is an operation that requires authorization.
type Action int

const (
	ActionView Action = iota
	ActionEditContent
	ActionAddCollaborator
	ActionRemoveCollaborator
	ActionListCollaborators
)

// PermissionFor derives the effective permission: owner wins, then the
// collaborator list is scanned for a grant, otherwise none.
func PermissionFor(doc *model.Document, userID string) Permission {
	if doc.OwnerID == userID {
		return Owner
	}
	for _, c := range doc.Collaborators {
		if c.UserID == userID {
			switch c.Role {
			case model.RoleEditor:
				return Editor
			case model.RoleViewer:
				return Viewer
			}
		}
	}
	return None
}

// allows is the policy table. Owners may do everything; editors read and
// write content; viewers read.
func (p Permission) allows(a Action) bool {
	switch a {
	case ActionView, ActionListCollaborators:
		return p >= Viewer
	case ActionEditContent:
		return p >= Editor
	case ActionAddCollaborator, ActionRemoveCollaborator:
		return p == Owner
	}
	return false
}

// Authorize gates action a for userID on doc. A user with no grant at all
// gets ErrNotFound rather than ErrForbidden: the document must not be
// disclosed to them, so the answer is the same as if it did not exist.
func Authorize(doc *model.Document, userID string, a Action) (Permission, error) {
	p := PermissionFor(doc, userID)
	if p == None {
		return None, apperr.ErrNotFound
	}
	if !p.allows(a) {
		return p, apperr.ErrForbidden
	}
	return p, nil
}
