package artifact

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kennygrant/sanitize"
	"golang.org/x/crypto/sha3"
)

const (
	// RawName is the file name of the synthesized document.
	RawName = "scraped_content.pdf"

	// CompactName is the file name of the reduced document.
	CompactName = "compressed_document.pdf"

	maxTokenLen = 32
	digestLen   = 8
	idLen       = 8
)

// ErrNoRoot is returned when no work directory is given.
var ErrNoRoot = errors.New("work directory is required")

// Outcome is how a job ended, which decides what Cleanup keeps.
type Outcome int

const (
	// OutcomeDelivered removes everything.
	OutcomeDelivered Outcome = iota

	// OutcomeDeliveryFailed keeps the compact document for inspection.
	OutcomeDeliveryFailed

	// OutcomeFailed removes everything.
	OutcomeFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeDeliveryFailed:
		return "delivery_failed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Workspace is one job's directory.
type Workspace struct {
	dir string
}

// NewWorkspace creates the job directory under root.
func NewWorkspace(root, token, jobID string) (*Workspace, error) {
	if root == "" {
		return nil, ErrNoRoot
	}
	dir := filepath.Join(root, DirName(token, jobID))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Open returns the workspace rooted at an existing job directory.
func Open(dir string) *Workspace {
	return &Workspace{dir: dir}
}

// DirName builds the directory name for a job.
func DirName(token, jobID string) string {
	name := strings.Trim(sanitize.BaseName(token), "-.")
	if len(name) > maxTokenLen {
		name = name[:maxTokenLen]
	}
	if name == "" {
		name = "job"
	}

	sum := sha3.Sum256([]byte(token))
	digest := hex.EncodeToString(sum[:])[:digestLen]

	id := strings.ReplaceAll(jobID, "-", "")
	if len(id) > idLen {
		id = id[:idLen]
	}
	if id == "" {
		return name + "-" + digest
	}
	return name + "-" + digest + "-" + id
}

// Dir returns the job directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// RawPath returns the path of the synthesized document.
func (w *Workspace) RawPath() string {
	return filepath.Join(w.dir, RawName)
}

// CompactPath returns the path of the reduced document.
func (w *Workspace) CompactPath() string {
	return filepath.Join(w.dir, CompactName)
}

// Cleanup removes artifacts according to how the job ended. After a failed
// delivery only the raw document is removed.
func (w *Workspace) Cleanup(outcome Outcome) error {
	if outcome == OutcomeDeliveryFailed {
		if err := os.Remove(w.RawPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove raw document: %w", err)
		}
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("failed to remove job directory: %w", err)
	}
	return nil
}
