package repository

import (
	"database/sql"

	"scholartrack/internal/models"
)

// RemarkRepository handles database operations for the append-only
// application remark trail. Rows are only ever inserted.
type RemarkRepository struct {
	db *sql.DB
}

// NewRemarkRepository creates a new remark repository
func NewRemarkRepository(db *sql.DB) *RemarkRepository {
	return &RemarkRepository{db: db}
}

// Append inserts a new remark entry
func (r *RemarkRepository) Append(remark *models.ApplicationRemark) error {
	query := `
		INSERT INTO application_remarks
			(application_id, author_id, kind, ciphertext, nonce, key_version, prev_chain_hash, chain_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.db.QueryRow(
		query,
		remark.ApplicationID,
		remark.AuthorID,
		remark.Kind,
		remark.Ciphertext,
		remark.Nonce,
		remark.KeyVersion,
		remark.PrevChainHash,
		remark.ChainHash,
		remark.CreatedAt,
	).Scan(&remark.ID)
}

// GetByApplicationID retrieves the remark trail of an application in
// insertion order.
func (r *RemarkRepository) GetByApplicationID(applicationID uint) ([]models.ApplicationRemark, error) {
	query := `
		SELECT id, application_id, author_id, kind, ciphertext, nonce, key_version,
		       prev_chain_hash, chain_hash, created_at
		FROM application_remarks
		WHERE application_id = $1
		ORDER BY id ASC
	`
	rows, err := r.db.Query(query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var remarks []models.ApplicationRemark
	for rows.Next() {
		var remark models.ApplicationRemark
		err := rows.Scan(
			&remark.ID,
			&remark.ApplicationID,
			&remark.AuthorID,
			&remark.Kind,
			&remark.Ciphertext,
			&remark.Nonce,
			&remark.KeyVersion,
			&remark.PrevChainHash,
			&remark.ChainHash,
			&remark.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		remarks = append(remarks, remark)
	}
	return remarks, rows.Err()
}

// LatestChainHash returns the chain hash of the newest remark for the
// application, or "" when the trail is empty.
func (r *RemarkRepository) LatestChainHash(applicationID uint) (string, error) {
	var hash string
	query := `
		SELECT chain_hash FROM application_remarks
		WHERE application_id = $1
		ORDER BY id DESC
		LIMIT 1
	`
	err := r.db.QueryRow(query, applicationID).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// ApplicationIDs returns the distinct applications that have remark trails,
// used by the periodic chain validation.
func (r *RemarkRepository) ApplicationIDs() ([]uint, error) {
	rows, err := r.db.Query(`SELECT DISTINCT application_id FROM application_remarks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint
	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
