package repository

import (
	"database/sql"

	"scholartrack/internal/models"
)

// Kinds every application must have attached before it can be submitted.
// Storage and rendering of the files themselves belong to the upload
// surface, not to this engine.
var requiredDocumentKinds = []string{
	"application_form",
	"grade_report",
	"enrollment_proof",
}

// DocumentRepository handles database operations for attachment records
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Add records an uploaded attachment
func (r *DocumentRepository) Add(doc *models.Document) error {
	query := `
		INSERT INTO documents (application_id, kind, storage_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (application_id, kind) DO UPDATE SET storage_key = $3, uploaded_at = CURRENT_TIMESTAMP
		RETURNING id, uploaded_at
	`
	return r.db.QueryRow(query, doc.ApplicationID, doc.Kind, doc.StorageKey).Scan(&doc.ID, &doc.UploadedAt)
}

// DocumentsComplete reports whether every required document kind is present
// for the application.
func (r *DocumentRepository) DocumentsComplete(applicationID uint) (bool, error) {
	rows, err := r.db.Query(`SELECT kind FROM documents WHERE application_id = $1`, applicationID)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var kind string
		if err := rows.Scan(&kind); err != nil {
			return false, err
		}
		present[kind] = true
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	for _, kind := range requiredDocumentKinds {
		if !present[kind] {
			return false, nil
		}
	}
	return true, nil
}
