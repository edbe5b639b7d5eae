package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SaveReport stores a report and its entries in a single transaction
func (db *DB) SaveReport(ctx context.Context, report *Report) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO contributor_reports (report_key, since)
		VALUES ($1, $2)
		RETURNING id, generated_at
	`
	if err := tx.QueryRow(ctx, query, report.ReportKey, report.Since).Scan(&report.ID, &report.GeneratedAt); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	entryQuery := `
		INSERT INTO contributor_report_entries (report_id, email, name, commit_count)
		VALUES ($1, $2, $3, $4)
	`
	for _, entry := range report.Entries {
		if _, err := tx.Exec(ctx, entryQuery, report.ID, entry.Email, entry.Name, entry.CommitCount); err != nil {
			return fmt.Errorf("failed to insert report entry for %s: %w", entry.Email, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}

	return nil
}

// GetLatestReport returns the most recent report stored under key
func (db *DB) GetLatestReport(ctx context.Context, key string) (*Report, error) {
	query := `
		SELECT id, report_key, since, generated_at
		FROM contributor_reports
		WHERE report_key = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`

	report := &Report{}
	err := db.pool.QueryRow(ctx, query, key).Scan(&report.ID, &report.ReportKey, &report.Since, &report.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("report %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	rows, err := db.pool.Query(ctx, `
		SELECT email, name, commit_count
		FROM contributor_report_entries
		WHERE report_id = $1
		ORDER BY commit_count DESC, email ASC
	`, report.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get report entries: %w", err)
	}
	defer rows.Close()

	report.Entries = []ReportEntry{}
	for rows.Next() {
		var entry ReportEntry
		if err := rows.Scan(&entry.Email, &entry.Name, &entry.CommitCount); err != nil {
			return nil, fmt.Errorf("failed to scan report entry: %w", err)
		}
		report.Entries = append(report.Entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return report, nil
}
