package padnotes

const (
	Version = "0.1.0"

	// AppName is stamped into backup documents.
	AppName = "Gamepad Notes"
	// AppSlug prefixes exported backup file names.
	AppSlug = "gamepad-notes"
)
