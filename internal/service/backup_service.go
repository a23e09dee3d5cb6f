package service

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"tripnest/internal/database"
)

// BackupData is the complete portable dump of a TripNest database. Rows are
// exported as raw column values so a dump taken on one dialect can be
// imported into another.
type BackupData struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Tables     map[string][]row `json:"tables"`
}

type row map[string]interface{}

// backupTables lists the exported tables in an FK-safe import order
var backupTables = []string{
	"users",
	"activities",
	"discount_codes",
	"outings",
	"activity_requests",
	"itineraries",
	"itinerary_items",
	"evaluations",
	"memories",
	"outing_cancellations",
}

// BackupService exports and imports the full database as JSON
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes the full database to the given JSON file
func (s *BackupService) Export(outputPath string) error {
	backup := &BackupData{
		Version:    "1",
		ExportedAt: time.Now().UTC(),
		Tables:     make(map[string][]row, len(backupTables)),
	}

	for _, table := range backupTables {
		rows, err := s.exportTable(table)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", table, err)
		}
		backup.Tables[table] = rows
		log.Printf("Exported %d rows from %s", len(rows), table)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	return nil
}

func (s *BackupService) exportTable(table string) ([]row, error) {
	rows, err := s.db.Query("SELECT * FROM " + table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var exported []row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		record := make(row, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				record[column] = string(b)
			} else {
				record[column] = values[i]
			}
		}
		exported = append(exported, record)
	}

	return exported, rows.Err()
}

// Import loads a JSON dump into the database. With clear set, existing rows
// in every backed-up table are deleted first. The whole import runs in one
// transaction.
func (s *BackupService) Import(inputPath string, clear bool) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	backup := &BackupData{}
	if err := json.Unmarshal(data, backup); err != nil {
		return fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version != "1" {
		return fmt.Errorf("unsupported backup version: %s", backup.Version)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if clear {
		// delete children before parents
		for i := len(backupTables) - 1; i >= 0; i-- {
			if _, err := tx.Exec("DELETE FROM " + backupTables[i]); err != nil {
				return fmt.Errorf("failed to clear %s: %w", backupTables[i], err)
			}
		}
	}

	for _, table := range backupTables {
		records := backup.Tables[table]
		for _, record := range records {
			if err := insertRow(tx, table, record); err != nil {
				return fmt.Errorf("failed to import into %s: %w", table, err)
			}
		}
		log.Printf("Imported %d rows into %s", len(records), table)
	}

	return tx.Commit()
}

func insertRow(tx *database.Tx, table string, record row) error {
	columns := make([]string, 0, len(record))
	placeholders := make([]string, 0, len(record))
	values := make([]interface{}, 0, len(record))
	for column, value := range record {
		columns = append(columns, column)
		placeholders = append(placeholders, "?")
		values = append(values, value)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	_, err := tx.Exec(query, values...)
	return err
}
