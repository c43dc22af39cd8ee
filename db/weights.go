// ABOUTME: Storage for fit-scoring weight tables
// ABOUTME: Industry and seniority weights, replaced wholesale and read as snapshots
package db

import (
	"database/sql"
	"fmt"
)

func replaceWeights(db *sql.DB, table, keyColumn string, weights map[string]int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin weights replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	stmt, err := tx.Prepare(`INSERT INTO ` + table + ` (` + keyColumn + `, weight) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare weights insert: %w", err)
	}
	defer stmt.Close()
	for key, weight := range weights {
		if _, err := stmt.Exec(key, weight); err != nil {
			return fmt.Errorf("failed to insert %s weight: %w", table, err)
		}
	}
	return tx.Commit()
}

func loadWeights(db *sql.DB, table, keyColumn string) (map[string]int, error) {
	rows, err := db.Query(`SELECT ` + keyColumn + `, weight FROM ` + table)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", table, err)
	}
	defer rows.Close()

	weights := make(map[string]int)
	for rows.Next() {
		var key string
		var weight int
		if err := rows.Scan(&key, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		weights[key] = weight
	}
	return weights, rows.Err()
}

// ReplaceIndustryWeights swaps the industry weight table in one transaction.
func ReplaceIndustryWeights(db *sql.DB, weights map[string]int) error {
	return replaceWeights(db, "score_industry_weights", "industry", weights)
}

// ReplaceSeniorityWeights swaps the seniority weight table in one transaction.
func ReplaceSeniorityWeights(db *sql.DB, weights map[string]int) error {
	return replaceWeights(db, "score_seniority_weights", "seniority", weights)
}

// LoadIndustryWeights reads the industry weight table as a map.
func LoadIndustryWeights(db *sql.DB) (map[string]int, error) {
	return loadWeights(db, "score_industry_weights", "industry")
}

// LoadSeniorityWeights reads the seniority weight table as a map.
func LoadSeniorityWeights(db *sql.DB) (map[string]int, error) {
	return loadWeights(db, "score_seniority_weights", "seniority")
}

// EnsureDefaultWeights seeds both weight tables when they are empty.
// Already-customized tables are left alone.
func EnsureDefaultWeights(db *sql.DB, industry, seniority map[string]int) error {
	existing, err := LoadIndustryWeights(db)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		if err := ReplaceIndustryWeights(db, industry); err != nil {
			return err
		}
	}
	existing, err = LoadSeniorityWeights(db)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		if err := ReplaceSeniorityWeights(db, seniority); err != nil {
			return err
		}
	}
	return nil
}
