package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"inkpad/pkg/apperr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDocumentRepository(db), mock
}

var docCols = []string{"id", "title", "content", "owner_id", "last_edited_at"}

func TestFindAccessible(t *testing.T) {
	repo, mock := newTestRepo(t)
	editedAt := time.Now()

	mock.ExpectQuery(`SELECT id, title, content, owner_id, last_edited_at FROM documents WHERE id = \$1`).
		WithArgs("doc-1", "alice").
		WillReturnRows(sqlmock.NewRows(docCols).AddRow("doc-1", "T", "v1", "alice", editedAt))
	mock.ExpectQuery(`SELECT user_id, role FROM collaborators WHERE document_id = \$1 ORDER BY added_at`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role"}).
			AddRow("bob", "editor").
			AddRow("carol", "viewer"))

	doc, err := repo.FindAccessible("doc-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "alice", doc.OwnerID)
	require.Len(t, doc.Collaborators, 2)
	assert.Equal(t, "bob", doc.Collaborators[0].UserID)
	assert.Equal(t, "viewer", doc.Collaborators[1].Role)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAccessibleNotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT id, title, content, owner_id, last_edited_at FROM documents WHERE id = \$1`).
		WithArgs("doc-1", "stranger").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindAccessible("doc-1", "stranger")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateContentReportsRowCount(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE documents SET content = \$3, last_edited_at = NOW\(\)`).
		WithArgs("doc-1", "bob", "v2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.UpdateContent("doc-1", "bob", "v2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUpdateContentNoMatch(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE documents SET content = \$3, last_edited_at = NOW\(\)`).
		WithArgs("doc-1", "viewer-user", "v2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.UpdateContent("doc-1", "viewer-user", "v2")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddCollaborator(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`INSERT INTO collaborators`).
		WithArgs("doc-1", "alice", "bob", "editor").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.AddCollaborator("doc-1", "alice", "bob", "editor"))
}

func TestAddCollaboratorDuplicateIsConflict(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`INSERT INTO collaborators`).
		WithArgs("doc-1", "alice", "bob", "editor").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.AddCollaborator("doc-1", "alice", "bob", "editor")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestAddCollaboratorNotOwner(t *testing.T) {
	repo, mock := newTestRepo(t)

	// The guarded INSERT..SELECT matches no row when the requester is not
	// the owner (or the target is the owner).
	mock.ExpectExec(`INSERT INTO collaborators`).
		WithArgs("doc-1", "mallory", "bob", "editor").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AddCollaborator("doc-1", "mallory", "bob", "editor")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveCollaborator(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`DELETE FROM collaborators WHERE document_id = \$1 AND user_id = \$3`).
		WithArgs("doc-1", "alice", "bob").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.RemoveCollaborator("doc-1", "alice", "bob"))
}

func TestRemoveCollaboratorNotMember(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`DELETE FROM collaborators WHERE document_id = \$1 AND user_id = \$3`).
		WithArgs("doc-1", "alice", "bob").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RemoveCollaborator("doc-1", "alice", "bob")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindUserByEmailNotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT id, email FROM users WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindUserByEmail("nobody@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindUserByEmailOtherErrorPassesThrough(t *testing.T) {
	repo, mock := newTestRepo(t)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT id, email FROM users WHERE email = \$1`).
		WithArgs("a@example.com").
		WillReturnError(boom)

	_, err := repo.FindUserByEmail("a@example.com")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
}

func TestFavouriteSet(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT document_id FROM favourites WHERE user_id = \$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"document_id"}).AddRow("doc-1").AddRow("doc-3"))

	favs, err := repo.FavouriteSet("alice")
	require.NoError(t, err)
	assert.True(t, favs["doc-1"])
	assert.True(t, favs["doc-3"])
	assert.False(t, favs["doc-2"])
}

func TestFindAccessibleAll(t *testing.T) {
	repo, mock := newTestRepo(t)
	editedAt := time.Now()

	mock.ExpectQuery(`FROM documents WHERE owner_id = \$1\s+UNION`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow("doc-1", "Mine", "a", "alice", editedAt).
			AddRow("doc-2", "Shared", "b", "bob", editedAt))
	mock.ExpectQuery(`SELECT user_id, role FROM collaborators WHERE document_id = \$1`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role"}))
	mock.ExpectQuery(`SELECT user_id, role FROM collaborators WHERE document_id = \$1`).
		WithArgs("doc-2").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role"}).AddRow("alice", "viewer"))

	docs, err := repo.FindAccessibleAll("alice")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Mine", docs[0].Title)
	assert.Len(t, docs[1].Collaborators, 1)
}
