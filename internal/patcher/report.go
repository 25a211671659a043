package patcher

import "github.com/roach88/overlay409/internal/overlay"

// Status is the outcome for one overlay file.
type Status string

const (
	// StatusModified means conflict responses were added. In a dry run the
	// file was left untouched and the result carries the would-be changes.
	StatusModified Status = "modified"

	// StatusUnchanged means the document needed no changes.
	StatusUnchanged Status = "unchanged"

	// StatusNoActions means the document is empty or has no actions field.
	StatusNoActions Status = "no_actions"

	// StatusFailed means the file could not be read, parsed or written.
	// The file on disk is unchanged.
	StatusFailed Status = "failed"
)

// FileResult is the outcome of patching one file.
type FileResult struct {
	Path       string              `json:"path"`
	Name       string              `json:"name"`
	Status     Status              `json:"status"`
	Insertions []overlay.Insertion `json:"insertions,omitempty"`
	Diff       string              `json:"diff,omitempty"`
	Error      string              `json:"error,omitempty"`

	Err error `json:"-"`
}

// Report summarizes a run over an overlays directory.
type Report struct {
	RunID  string       `json:"run_id"`
	Dir    string       `json:"dir"`
	DryRun bool         `json:"dry_run"`
	Files  []FileResult `json:"files"`

	Modified  int `json:"modified"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

func (r *Report) add(res FileResult) {
	r.Files = append(r.Files, res)
	switch res.Status {
	case StatusModified:
		r.Modified++
	case StatusFailed:
		r.Failed++
	default:
		r.Unchanged++
	}
}
