package model

// ChangedFile is one file touched by a pull request or commit. Content holds
// the full file body when it could be fetched; Patch holds the unified diff
// hunk GitHub returned for the file. Removed files keep their metadata for
// audit visibility but never contribute content to a scan.
type ChangedFile struct {
	Path      string
	Status    FileStatus
	Content   string
	Patch     string
	Additions int
	Deletions int
	Changes   int
}

// HasScanContent reports whether this file contributes anything to a scan
// payload. Removed files and files whose content and patch are both
// unavailable are metadata-only.
func (f ChangedFile) HasScanContent() bool {
	if f.Status == FileStatusRemoved {
		return false
	}
	return f.Content != "" || f.Patch != ""
}
