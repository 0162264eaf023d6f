package service

import (
	"time"

	"inkpad/internal/document/access"
	"inkpad/internal/document/model"
	"inkpad/internal/document/repository"
	"inkpad/pkg/apperr"
	"inkpad/socket"

	"github.com/google/uuid"
)

// DocumentService orchestrates the document store, the access engine and the
// event feed. Hub may be nil; the feed is optional.
type DocumentService struct {
	Repo *repository.DocumentRepository
	Hub  *socket.Hub
}

func NewDocumentService(repo *repository.DocumentRepository, hub *socket.Hub) *DocumentService {
	return &DocumentService{Repo: repo, Hub: hub}
}

func (s *DocumentService) Create(userID string, req model.CreateDocRequest) (*model.Document, error) {
	title := req.Title
	if title == "" {
		title = "Untitled Document"
	}
	doc := &model.Document{
		ID:            uuid.NewString(),
		Title:         title,
		Content:       req.Content,
		OwnerID:       userID,
		Collaborators: []model.Collaborator{},
		LastEditedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Insert(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Save replaces the document content wholesale, last write wins. The
// permission predicate travels inside the UPDATE itself, so the decisive
// check and the write are one atomic statement; the follow-up load only
// shapes the error when nothing was written.
func (s *DocumentService) Save(userID string, req model.SaveDocRequest) error {
	n, err := s.Repo.UpdateContent(req.DocID, userID, req.Content)
	if err != nil {
		return err
	}
	if n == 0 {
		doc, err := s.Repo.FindAccessible(req.DocID, userID)
		if err != nil {
			return err // unknown id and no-visibility collapse to not found
		}
		if _, err := access.Authorize(doc, userID, access.ActionEditContent); err != nil {
			return err
		}
		// The grant appeared between the two statements; the update is the
		// authoritative step, so report the denial it saw.
		return apperr.ErrForbidden
	}

	s.Hub.Publish(socket.Event{Type: socket.SavedType, DocID: req.DocID, UserID: userID})
	return nil
}

// UpdateTitle renames a document under the same edit gate as Save.
func (s *DocumentService) UpdateTitle(userID, docID, title string) error {
	n, err := s.Repo.UpdateTitle(docID, userID, title)
	if err != nil {
		return err
	}
	if n == 0 {
		doc, err := s.Repo.FindAccessible(docID, userID)
		if err != nil {
			return err
		}
		if _, err := access.Authorize(doc, userID, access.ActionEditContent); err != nil {
			return err
		}
		return apperr.ErrForbidden
	}

	s.Hub.Publish(socket.Event{Type: socket.SavedType, DocID: docID, UserID: userID})
	return nil
}

// GetSingle loads one document through the existence filter and annotates it
// with the requester-specific derived flags.
func (s *DocumentService) GetSingle(userID, docID string) (*model.DocumentView, error) {
	doc, err := s.Repo.FindAccessible(docID, userID)
	if err != nil {
		return nil, err
	}
	favs, err := s.Repo.FavouriteSet(userID)
	if err != nil {
		return nil, err
	}
	perm := access.PermissionFor(doc, userID)
	return &model.DocumentView{
		Document:    *doc,
		EditAccess:  perm.CanEdit(),
		IsFavourite: favs[doc.ID],
	}, nil
}

// ListMine returns the documents the user owns.
func (s *DocumentService) ListMine(userID string) ([]model.Document, error) {
	return s.Repo.FindOwned(userID)
}

// ListShared returns the documents shared with the user.
func (s *DocumentService) ListShared(userID string) ([]model.Document, error) {
	return s.Repo.FindShared(userID)
}

// ListAll returns owned and shared documents together, each annotated with
// the requester's favourite flag.
func (s *DocumentService) ListAll(userID string) ([]model.DocumentView, error) {
	docs, err := s.Repo.FindAccessibleAll(userID)
	if err != nil {
		return nil, err
	}
	favs, err := s.Repo.FavouriteSet(userID)
	if err != nil {
		return nil, err
	}

	views := make([]model.DocumentView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, model.DocumentView{
			Document:    doc,
			EditAccess:  access.PermissionFor(&doc, userID).CanEdit(),
			IsFavourite: favs[doc.ID],
		})
	}
	return views, nil
}
