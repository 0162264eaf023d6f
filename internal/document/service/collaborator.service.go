package service

import (
	"fmt"

	"inkpad/internal/document/access"
	"inkpad/internal/document/model"
	"inkpad/pkg/apperr"
	"inkpad/pkg/logger"
	"inkpad/socket"
)

// AddCollaborator grants the user behind req.Email a role on the document.
// Owner-only. A second grant for the same user is an error, not a no-op.
func (s *DocumentService) AddCollaborator(requesterID string, req model.InviteRequest) error {
	doc, err := s.Repo.FindAccessible(req.DocID, requesterID)
	if err != nil {
		return err
	}
	if _, err := access.Authorize(doc, requesterID, access.ActionAddCollaborator); err != nil {
		return err
	}
	if !model.ValidRole(req.Role) {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidRole, req.Role)
	}

	target, err := s.Repo.FindUserByEmail(req.Email)
	if err != nil {
		return fmt.Errorf("collaborator email unknown: %w", err)
	}

	// Owner permission is implicit and never stored, so granting the owner a
	// collaborator role is refused the same way a duplicate grant is.
	if target.ID == doc.OwnerID {
		return fmt.Errorf("user already has access: %w", apperr.ErrConflict)
	}
	for _, c := range doc.Collaborators {
		if c.UserID == target.ID {
			return fmt.Errorf("collaborator already added: %w", apperr.ErrConflict)
		}
	}

	// The insert re-checks ownership and uniqueness atomically; the scans
	// above just fail fast on the common cases.
	if err := s.Repo.AddCollaborator(req.DocID, doc.OwnerID, target.ID, req.Role); err != nil {
		return err
	}

	s.Hub.Publish(socket.Event{
		Type:     socket.CollaboratorAddedType,
		DocID:    req.DocID,
		UserID:   requesterID,
		TargetID: target.ID,
	})
	return nil
}

// RemoveCollaborator revokes a grant. Owner-only, and stricter than add:
// naming a user who is not currently a collaborator is reported as not
// found rather than silently succeeding.
func (s *DocumentService) RemoveCollaborator(requesterID string, req model.RevokeRequest) error {
	doc, err := s.Repo.FindAccessible(req.DocID, requesterID)
	if err != nil {
		return err
	}
	if _, err := access.Authorize(doc, requesterID, access.ActionRemoveCollaborator); err != nil {
		return err
	}

	collaborator, err := s.Repo.FindUserByID(req.CollaboratorID)
	if err != nil {
		return fmt.Errorf("unknown collaborator id: %w", err)
	}

	if err := s.Repo.RemoveCollaborator(req.DocID, doc.OwnerID, collaborator.ID); err != nil {
		return err
	}

	s.Hub.Publish(socket.Event{
		Type:     socket.CollaboratorRemovedType,
		DocID:    req.DocID,
		UserID:   requesterID,
		TargetID: collaborator.ID,
	})
	return nil
}

// ListCollaborators returns the roster as display-safe user summaries. Any
// non-none permission suffices; the roster is part of the document view.
func (s *DocumentService) ListCollaborators(userID, docID string) ([]model.CollaboratorInfo, error) {
	doc, err := s.Repo.FindAccessible(docID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := access.Authorize(doc, userID, access.ActionListCollaborators); err != nil {
		return nil, err
	}

	roster := make([]model.CollaboratorInfo, 0, len(doc.Collaborators))
	for _, c := range doc.Collaborators {
		u, err := s.Repo.FindUserByID(c.UserID)
		if err != nil {
			// A dangling grant should not hide the rest of the roster.
			logger.Sugar.Warnf("Collaborator %s on doc %s has no user record: %v", c.UserID, docID, err)
			continue
		}
		roster = append(roster, model.CollaboratorInfo{UserID: u.ID, Email: u.Email, Role: c.Role})
	}
	return roster, nil
}
