package constants

// Default claim status applied when nothing usable was extracted or provided.
const StatusPending = "Pending"

// Unknown fills region/subregion so canonical keys are never empty.
const Unknown = "Unknown"

// Source is the provenance tag stored on every claim (store these exact strings in DB).
type Source string

const (
	SourceManual   Source = "manual"   // typed in by an officer
	SourceUploaded Source = "uploaded" // extracted from an uploaded document
	SourceImported Source = "imported" // bulk spreadsheet import
)

// Valid reports whether s is one of the known provenance tags.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceUploaded, SourceImported:
		return true
	}
	return false
}
