package backup

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"inventoryKeeper/internal/catalog"
	"inventoryKeeper/internal/models"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// DetectFormat picks the format from the file extension; anything that is
// not .csv is treated as JSON.
func DetectFormat(filename string) Format {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return FormatCSV
	}
	return FormatJSON
}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: invalid format %q, use json or csv", catalog.ErrValidation, s)
}

var backupJSON = jsoniter.Config{
	EscapeHTML:             false,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// pendingRecord is one element of a backup after decoding. err is set when
// the element could not be turned into a record; the reconciler skips it.
type pendingRecord struct {
	record models.BackupRecord
	err    error
}

func encodeJSON(records []models.BackupRecord) ([]byte, error) {
	data, err := backupJSON.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal backup: %v", catalog.ErrEncoding, err)
	}
	return append(data, '\n'), nil
}

// decodeJSON requires the document to be a JSON array. Elements are decoded
// one by one so a malformed element only affects itself.
func decodeJSON(data []byte) ([]pendingRecord, error) {
	var doc any
	if err := backupJSON.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: backup is not valid JSON: %v", catalog.ErrParse, err)
	}
	items, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: backup must be a JSON array of records", catalog.ErrParse)
	}

	pending := make([]pendingRecord, 0, len(items))
	for _, item := range items {
		rec, err := decodeRecord(item)
		pending = append(pending, pendingRecord{record: rec, err: err})
	}
	return pending, nil
}

func decodeRecord(item any) (models.BackupRecord, error) {
	raw, ok := item.(map[string]any)
	if !ok {
		return models.BackupRecord{}, fmt.Errorf("record is a %T, not an object", item)
	}

	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		fields[k] = v
	}
	for legacy, canonical := range models.LegacyBackupKeys {
		v, ok := raw[legacy]
		if !ok {
			continue
		}
		if _, exists := raw[canonical]; !exists {
			fields[canonical] = v
		}
		delete(fields, legacy)
	}

	// price is handled apart so a bad price zeroes the price instead of
	// failing the whole record.
	price, _ := cast.ToStringE(fields["price"])
	delete(fields, "price")

	var rec models.BackupRecord
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return models.BackupRecord{}, err
	}
	if err := decoder.Decode(fields); err != nil {
		return models.BackupRecord{}, fmt.Errorf("malformed record: %w", err)
	}
	rec.Price = json.Number(strings.TrimSpace(price))
	return rec, nil
}

func fromRecords(records []models.BackupRecord) []pendingRecord {
	pending := make([]pendingRecord, len(records))
	for i, rec := range records {
		pending[i] = pendingRecord{record: rec}
	}
	return pending
}
