package repository

import (
	"database/sql"
	"errors"

	"inkpad/internal/document/model"
	"inkpad/pkg/apperr"
	"inkpad/pkg/logger"

	"github.com/lib/pq"
)

// uniqueViolation is the postgres error code for duplicate-key inserts.
const uniqueViolation = "23505"

type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

const documentColumns = "id, title, content, owner_id, last_edited_at"

// accessiblePredicate filters a document row to "owned by or shared with"
// the given user. Every read path goes through it so that a document the
// user has no grant on is indistinguishable from one that does not exist.
const accessiblePredicate = `(owner_id = $2 OR EXISTS (
		SELECT 1 FROM collaborators c WHERE c.document_id = documents.id AND c.user_id = $2))`

func (r *DocumentRepository) Insert(doc *model.Document) error {
	_, err := r.DB.Exec(
		`INSERT INTO documents (id, title, content, owner_id, last_edited_at) VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.Title, doc.Content, doc.OwnerID, doc.LastEditedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to insert document %s: %v", doc.ID, err)
	}
	return err
}

// FindAccessible loads a single document the user owns or is shared on,
// collaborator list attached. Returns apperr.ErrNotFound both when the id is
// unknown and when the user has no grant.
func (r *DocumentRepository) FindAccessible(docID, userID string) (*model.Document, error) {
	row := r.DB.QueryRow(
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND `+accessiblePredicate,
		docID, userID)

	var doc model.Document
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.OwnerID, &doc.LastEditedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		logger.Sugar.Errorf("Failed to load document %s: %v", docID, err)
		return nil, err
	}
	if err := r.attachCollaborators(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindOwned lists the documents the user created.
func (r *DocumentRepository) FindOwned(userID string) ([]model.Document, error) {
	return r.queryDocuments(
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = $1 ORDER BY last_edited_at DESC`,
		userID)
}

// FindShared lists the documents the user is a collaborator on.
func (r *DocumentRepository) FindShared(userID string) ([]model.Document, error) {
	return r.queryDocuments(
		`SELECT d.id, d.title, d.content, d.owner_id, d.last_edited_at FROM documents d
		JOIN collaborators c ON d.id = c.document_id WHERE c.user_id = $1
		ORDER BY d.last_edited_at DESC`,
		userID)
}

// FindAccessibleAll lists owned and shared documents together, most recently
// edited first. The UNION cannot produce duplicates because the add path
// never lets an owner become a collaborator on their own document.
func (r *DocumentRepository) FindAccessibleAll(userID string) ([]model.Document, error) {
	return r.queryDocuments(
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = $1
		UNION
		SELECT d.id, d.title, d.content, d.owner_id, d.last_edited_at FROM documents d
		JOIN collaborators c ON d.id = c.document_id WHERE c.user_id = $1
		ORDER BY last_edited_at DESC`,
		userID)
}

func (r *DocumentRepository) queryDocuments(query string, args ...any) ([]model.Document, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to query documents: %v", err)
		return nil, err
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.OwnerID, &doc.LastEditedAt); err != nil {
			logger.Sugar.Errorf("Failed to scan document row: %v", err)
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range docs {
		if err := r.attachCollaborators(&docs[i]); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func (r *DocumentRepository) attachCollaborators(doc *model.Document) error {
	rows, err := r.DB.Query(
		`SELECT user_id, role FROM collaborators WHERE document_id = $1 ORDER BY added_at`,
		doc.ID)
	if err != nil {
		logger.Sugar.Errorf("Failed to load collaborators for doc %s: %v", doc.ID, err)
		return err
	}
	defer rows.Close()

	doc.Collaborators = []model.Collaborator{}
	for rows.Next() {
		var c model.Collaborator
		if err := rows.Scan(&c.UserID, &c.Role); err != nil {
			return err
		}
		doc.Collaborators = append(doc.Collaborators, c)
	}
	return rows.Err()
}

// UpdateContent replaces the document body wholesale, last write wins. The
// permission predicate rides in the same statement so authorization and
// mutation are a single atomic step; the returned count is zero when the id
// is unknown, invisible to the user, or the user's grant is below editor.
func (r *DocumentRepository) UpdateContent(docID, userID, content string) (int64, error) {
	res, err := r.DB.Exec(
		`UPDATE documents SET content = $3, last_edited_at = NOW()
		WHERE id = $1 AND (owner_id = $2 OR EXISTS (
			SELECT 1 FROM collaborators c WHERE c.document_id = documents.id AND c.user_id = $2 AND c.role = 'editor'))`,
		docID, userID, content)
	if err != nil {
		logger.Sugar.Errorf("Failed to update content for doc %s: %v", docID, err)
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateTitle renames a document under the same edit predicate as content.
func (r *DocumentRepository) UpdateTitle(docID, userID, title string) (int64, error) {
	res, err := r.DB.Exec(
		`UPDATE documents SET title = $3, last_edited_at = NOW()
		WHERE id = $1 AND (owner_id = $2 OR EXISTS (
			SELECT 1 FROM collaborators c WHERE c.document_id = documents.id AND c.user_id = $2 AND c.role = 'editor'))`,
		docID, userID, title)
	if err != nil {
		logger.Sugar.Errorf("Failed to update title for doc %s: %v", docID, err)
		return 0, err
	}
	return res.RowsAffected()
}

// AddCollaborator grants collabID the given role. The INSERT carries the
// ownership check and the owner-is-never-a-collaborator guard; a duplicate
// grant trips the (document_id, user_id) primary key and comes back as
// apperr.ErrConflict.
func (r *DocumentRepository) AddCollaborator(docID, ownerID, collabID, role string) error {
	res, err := r.DB.Exec(
		`INSERT INTO collaborators (document_id, user_id, role, added_at)
		SELECT id, $3, $4, NOW() FROM documents WHERE id = $1 AND owner_id = $2 AND owner_id <> $3`,
		docID, ownerID, collabID, role)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return apperr.ErrConflict
		}
		logger.Sugar.Errorf("Failed to add collaborator %s to doc %s: %v", collabID, docID, err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// RemoveCollaborator revokes collabID's grant. Removing someone who is not a
// collaborator is an error, not a no-op: the zero row count is reported as
// apperr.ErrNotFound.
func (r *DocumentRepository) RemoveCollaborator(docID, ownerID, collabID string) error {
	res, err := r.DB.Exec(
		`DELETE FROM collaborators WHERE document_id = $1 AND user_id = $3
		AND EXISTS (SELECT 1 FROM documents d WHERE d.id = $1 AND d.owner_id = $2)`,
		docID, ownerID, collabID)
	if err != nil {
		logger.Sugar.Errorf("Failed to remove collaborator %s from doc %s: %v", collabID, docID, err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepository) FindUserByEmail(email string) (*model.User, error) {
	return r.findUser(`SELECT id, email FROM users WHERE email = $1`, email)
}

func (r *DocumentRepository) FindUserByID(id string) (*model.User, error) {
	return r.findUser(`SELECT id, email FROM users WHERE id = $1`, id)
}

func (r *DocumentRepository) findUser(query, arg string) (*model.User, error) {
	var u model.User
	if err := r.DB.QueryRow(query, arg).Scan(&u.ID, &u.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		logger.Sugar.Errorf("Failed to look up user: %v", err)
		return nil, err
	}
	return &u, nil
}

// FavouriteSet returns the ids of the documents the user has marked
// favourite. Favourites are written by the external user flow; this core
// only reads them to annotate views.
func (r *DocumentRepository) FavouriteSet(userID string) (map[string]bool, error) {
	rows, err := r.DB.Query(`SELECT document_id FROM favourites WHERE user_id = $1`, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to load favourites for user %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	favs := make(map[string]bool)
	for rows.Next() {
		var docID string
		if err := rows.Scan(&docID); err != nil {
			return nil, err
		}
		favs[docID] = true
	}
	return favs, rows.Err()
}
