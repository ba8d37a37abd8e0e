package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"inventoryKeeper/internal/catalog"
	"inventoryKeeper/internal/models"

	"github.com/jszwec/csvutil"
)

// Parser reads backup records from a CSV file whose header names the
// backup fields: name, price, image_path, image_payload. Extra columns are
// ignored and missing ones stay empty.
type Parser struct {
	filename string
}

func NewParser(filename string) *Parser {
	return &Parser{filename: filename}
}

func (p *Parser) ParseRecords() ([]models.BackupRecord, error) {
	file, err := os.Open(p.filename)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open CSV file: %v", catalog.ErrIO, err)
	}
	defer file.Close()

	return ParseReader(file)
}

func ParseReader(r io.Reader) ([]models.BackupRecord, error) {
	decoder, err := csvutil.NewDecoder(csv.NewReader(r))
	if errors.Is(err, io.EOF) {
		return []models.BackupRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", catalog.ErrParse, err)
	}

	records := []models.BackupRecord{}
	if err := decoder.Decode(&records); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: failed to decode CSV: %v", catalog.ErrParse, err)
	}
	return records, nil
}

// WriteRecords writes records with a header row.
func WriteRecords(w io.Writer, records []models.BackupRecord) error {
	writer := csv.NewWriter(w)
	encoder := csvutil.NewEncoder(writer)
	if len(records) == 0 {
		if err := encoder.EncodeHeader(models.BackupRecord{}); err != nil {
			return fmt.Errorf("%w: failed to write CSV header: %v", catalog.ErrEncoding, err)
		}
	}
	// The first Encode call writes the header.
	for _, rec := range records {
		if err := encoder.Encode(rec); err != nil {
			return fmt.Errorf("%w: failed to encode CSV row: %v", catalog.ErrEncoding, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%w: failed to write CSV: %v", catalog.ErrIO, err)
	}
	return nil
}
