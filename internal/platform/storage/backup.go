package storage

import (
	"archive/zip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BackupName is the database entry name inside a backup archive.
const BackupName = "gatehouse.db"

// BackupToZip snapshots the live database with VACUUM INTO and writes it as a zip archive.
// An empty destPath gets a timestamped name in the working directory.
func BackupToZip(ctx context.Context, db *sql.DB, destPath string) (string, error) {
	if destPath == "" {
		destPath = fmt.Sprintf("gatehouse-backup-%s.zip", time.Now().UTC().Format("20060102-150405"))
	}
	if filepath.Ext(destPath) != ".zip" {
		destPath = destPath + ".zip"
	}

	tmpDir, err := os.MkdirTemp("", "gatehouse-backup-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)
	snapshot := filepath.Join(tmpDir, BackupName)
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	zipWriter := zip.NewWriter(out)
	if err := addFileToZip(zipWriter, snapshot, BackupName); err != nil {
		_ = zipWriter.Close()
		return "", err
	}
	if err := zipWriter.Close(); err != nil {
		return "", err
	}
	return destPath, nil
}

func addFileToZip(zipWriter *zip.Writer, sourcePath, name string) error {
	file, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate
	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, file)
	return err
}
