package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"claimguard/internal/claims"
	"claimguard/internal/imagehash"
)

const imageColumns = "id, claim_id, page, image_index, method, width, height, byte_size, " +
	"perceptual_hash, content_hash, is_template, template_reason, " +
	"exif_timestamp, exif_device, exif_gps, created_at"

// SimilarImage pairs a stored fingerprint with its Hamming distance from the
// probe hash.
type SimilarImage struct {
	Image    claims.EvidenceImage
	Distance int
}

// SaveImageFingerprint records one image's hashes and dimensions for a claim.
func (s *Store) SaveImageFingerprint(ctx context.Context, img *claims.EvidenceImage) error {
	return s.saveImageFingerprint(ctx, s.db, img)
}

// SaveImageFingerprint records the fingerprint within the transaction.
func (t *Tx) SaveImageFingerprint(ctx context.Context, img *claims.EvidenceImage) error {
	return t.s.saveImageFingerprint(ctx, t.tx, img)
}

func (s *Store) saveImageFingerprint(ctx context.Context, q dbtx, img *claims.EvidenceImage) error {
	if img == nil {
		return errors.New("image is nil")
	}
	if img.ClaimID == "" {
		return errors.New("image claim id is empty")
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}

	query := s.rebind(`INSERT INTO evidence_images (
        claim_id, page, image_index, method, width, height, byte_size,
        perceptual_hash, content_hash, is_template, template_reason,
        exif_timestamp, exif_device, exif_gps, created_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := q.QueryRowContext(ctx, query,
		img.ClaimID,
		img.Page,
		img.ImageIndex,
		nullableString(img.Method),
		img.Width,
		img.Height,
		img.ByteSize,
		nullableString(img.PerceptualHash),
		nullableString(img.ContentHash),
		boolToInt(img.IsTemplate),
		nullableString(img.TemplateReason),
		nullableString(img.EXIFTimestamp),
		nullableString(img.EXIFDevice),
		nullableString(img.EXIFGPS),
		img.CreatedAt.Format(time.RFC3339Nano),
	).Scan(&img.ID)
	if err != nil {
		return fmt.Errorf("save image fingerprint: %w", err)
	}
	return nil
}

// FindExactImage returns the earliest stored non-template image from another
// claim with an identical content hash, or nil when none exists.
func (s *Store) FindExactImage(ctx context.Context, contentHash, excludeClaimID string) (*claims.EvidenceImage, error) {
	return s.findExactImage(ctx, s.db, contentHash, excludeClaimID)
}

// FindExactImage looks up a content-hash collision within the transaction.
func (t *Tx) FindExactImage(ctx context.Context, contentHash, excludeClaimID string) (*claims.EvidenceImage, error) {
	return t.s.findExactImage(ctx, t.tx, contentHash, excludeClaimID)
}

func (s *Store) findExactImage(ctx context.Context, q dbtx, contentHash, excludeClaimID string) (*claims.EvidenceImage, error) {
	if contentHash == "" {
		return nil, nil
	}
	row := q.QueryRowContext(
		ctx,
		s.rebind(`SELECT `+imageColumns+` FROM evidence_images
            WHERE content_hash = ? AND claim_id != ? AND is_template = 0
            ORDER BY created_at, id LIMIT 1`),
		contentHash,
		excludeClaimID,
	)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find exact image: %w", err)
	}
	return img, nil
}

// FindSimilarImages scans stored non-template fingerprints from other claims
// and returns those within maxDistance Hamming bits of the probe hash.
// Stored rows with unparsable hashes are skipped.
func (s *Store) FindSimilarImages(ctx context.Context, phash, excludeClaimID string, maxDistance int) ([]SimilarImage, error) {
	return s.findSimilarImages(ctx, s.db, phash, excludeClaimID, maxDistance)
}

// FindSimilarImages runs the perceptual-hash scan within the transaction.
func (t *Tx) FindSimilarImages(ctx context.Context, phash, excludeClaimID string, maxDistance int) ([]SimilarImage, error) {
	return t.s.findSimilarImages(ctx, t.tx, phash, excludeClaimID, maxDistance)
}

func (s *Store) findSimilarImages(ctx context.Context, q dbtx, phash, excludeClaimID string, maxDistance int) ([]SimilarImage, error) {
	probe, err := imagehash.ParsePHash(phash)
	if err != nil {
		return nil, fmt.Errorf("parse probe hash: %w", err)
	}

	rows, err := q.QueryContext(
		ctx,
		s.rebind(`SELECT `+imageColumns+` FROM evidence_images
            WHERE perceptual_hash IS NOT NULL AND perceptual_hash != ''
                AND claim_id != ? AND is_template = 0
            ORDER BY created_at, id`),
		excludeClaimID,
	)
	if err != nil {
		return nil, fmt.Errorf("scan similar images: %w", err)
	}
	defer rows.Close()

	var matches []SimilarImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		stored, err := imagehash.ParsePHash(img.PerceptualHash)
		if err != nil {
			continue
		}
		distance := imagehash.HammingDistance(probe, stored)
		if distance <= maxDistance {
			matches = append(matches, SimilarImage{Image: *img, Distance: distance})
		}
	}
	return matches, rows.Err()
}

// GetHashClaimCount counts the distinct claims holding an image with the
// content hash. Template-flagged rows count too: recurrence across claims is
// exactly what the template filter is measuring.
func (s *Store) GetHashClaimCount(ctx context.Context, contentHash string) (int, error) {
	return s.getHashClaimCount(ctx, s.db, contentHash)
}

// GetHashClaimCount counts hash recurrence within the transaction.
func (t *Tx) GetHashClaimCount(ctx context.Context, contentHash string) (int, error) {
	return t.s.getHashClaimCount(ctx, t.tx, contentHash)
}

func (s *Store) getHashClaimCount(ctx context.Context, q dbtx, contentHash string) (int, error) {
	if contentHash == "" {
		return 0, nil
	}
	var count int
	err := q.QueryRowContext(
		ctx,
		s.rebind(`SELECT COUNT(DISTINCT claim_id) FROM evidence_images WHERE content_hash = ?`),
		contentHash,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("hash claim count: %w", err)
	}
	return count, nil
}

// DeleteImageFingerprints removes every stored fingerprint for a claim.
// Re-analysis replaces a claim's fingerprints wholesale rather than appending
// a second generation of rows.
func (s *Store) DeleteImageFingerprints(ctx context.Context, claimID string) error {
	return s.deleteImageFingerprints(ctx, s.db, claimID)
}

// DeleteImageFingerprints removes the claim's fingerprints within the transaction.
func (t *Tx) DeleteImageFingerprints(ctx context.Context, claimID string) error {
	return t.s.deleteImageFingerprints(ctx, t.tx, claimID)
}

func (s *Store) deleteImageFingerprints(ctx context.Context, q dbtx, claimID string) error {
	if claimID == "" {
		return errors.New("claim id is empty")
	}
	if _, err := q.ExecContext(ctx, s.rebind(`DELETE FROM evidence_images WHERE claim_id = ?`), claimID); err != nil {
		return fmt.Errorf("delete image fingerprints: %w", err)
	}
	return nil
}

// ImagesForClaim returns a claim's stored fingerprints in extraction order.
func (s *Store) ImagesForClaim(ctx context.Context, claimID string) ([]*claims.EvidenceImage, error) {
	rows, err := s.db.QueryContext(
		ctx,
		s.rebind(`SELECT `+imageColumns+` FROM evidence_images WHERE claim_id = ? ORDER BY page, image_index, id`),
		claimID,
	)
	if err != nil {
		return nil, fmt.Errorf("images for claim: %w", err)
	}
	defer rows.Close()

	var images []*claims.EvidenceImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func scanImage(scanner interface{ Scan(dest ...any) error }) (*claims.EvidenceImage, error) {
	var (
		id             int64
		claimID        string
		page           sql.NullInt64
		imageIndex     sql.NullInt64
		method         sql.NullString
		width          sql.NullInt64
		height         sql.NullInt64
		byteSize       sql.NullInt64
		perceptualHash sql.NullString
		contentHash    sql.NullString
		isTemplate     sql.NullInt64
		templateReason sql.NullString
		exifTimestamp  sql.NullString
		exifDevice     sql.NullString
		exifGPS        sql.NullString
		createdRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&claimID,
		&page,
		&imageIndex,
		&method,
		&width,
		&height,
		&byteSize,
		&perceptualHash,
		&contentHash,
		&isTemplate,
		&templateReason,
		&exifTimestamp,
		&exifDevice,
		&exifGPS,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	img := &claims.EvidenceImage{
		ID:             id,
		ClaimID:        claimID,
		Page:           int(page.Int64),
		ImageIndex:     int(imageIndex.Int64),
		Method:         method.String,
		Width:          int(width.Int64),
		Height:         int(height.Int64),
		ByteSize:       byteSize.Int64,
		PerceptualHash: perceptualHash.String,
		ContentHash:    contentHash.String,
		IsTemplate:     isTemplate.Valid && isTemplate.Int64 != 0,
		TemplateReason: templateReason.String,
		EXIFTimestamp:  exifTimestamp.String,
		EXIFDevice:     exifDevice.String,
		EXIFGPS:        exifGPS.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		img.CreatedAt = created
	}
	return img, nil
}
