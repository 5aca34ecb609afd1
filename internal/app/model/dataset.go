package model

// DatasetMetadata is the envelope exported alongside the venue records.
type DatasetMetadata struct {
	TotalCount    int    `json:"total_count"`
	DataSource    string `json:"data_source"`
	ExportDate    string `json:"export_date"`
	Version       string `json:"version"`
	SchemaVersion string `json:"schema_version"`
	Notes         string `json:"notes"`
}

// VenueDataset is the serialized form of the whole collection.
type VenueDataset struct {
	Venues   []Venue         `json:"venues"`
	Metadata DatasetMetadata `json:"metadata"`
}
