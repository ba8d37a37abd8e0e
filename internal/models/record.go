package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is a persisted catalog entry.
type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageRef string          `json:"image_ref"`
}

// BackupRecord is the exchange shape of a Product inside a backup file.
// Price stays textual on the wire so it is written as a JSON number without
// float rounding and so malformed values can be zeroed by the importer.
type BackupRecord struct {
	Name         string      `json:"name" csv:"name" mapstructure:"name"`
	Price        json.Number `json:"price" csv:"price" mapstructure:"-"`
	ImagePath    string      `json:"image_path" csv:"image_path" mapstructure:"image_path"`
	ImagePayload string      `json:"image_payload,omitempty" csv:"image_payload,omitempty" mapstructure:"image_payload"`
}

// LocalImageSentinel is written as image_path when the photo is not a remote
// URL. It never resolves to a file on another machine.
const LocalImageSentinel = "local"

// Legacy backups written by the first version of the app used Spanish keys.
var LegacyBackupKeys = map[string]string{
	"nombre":     "name",
	"precio":     "price",
	"img_path":   "image_path",
	"img_base64": "image_payload",
}

// PriceNumber renders a price as a JSON number literal.
func PriceNumber(price decimal.Decimal) json.Number {
	return json.Number(price.String())
}
