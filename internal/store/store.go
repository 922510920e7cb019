// Package store owns the output directory: fixed artifact names, atomic
// writes and the raw-text provenance sidecar.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/profilex/internal/profile"
)

// Fixed artifact names. Each run overwrites the previous run's files.
const (
	RawTextName     = "raw_profile.txt"
	ProvenanceName  = "raw_profile.json"
	ProfileJSONName = "structured_profile.json"
	artifactBase    = "structured_profile"
)

// ArtifactName returns the rendered artifact name for an extension such as ".md".
func ArtifactName(ext string) string {
	return artifactBase + ext
}

// Provenance describes where and when raw text came from.
type Provenance struct {
	SourceURL   string    `json:"source_url"`
	ExtractedAt time.Time `json:"extracted_at"`
	SHA256      string    `json:"sha256"`
	Bytes       int       `json:"bytes"`
}

// Dir is an output directory.
type Dir struct {
	root string
}

func NewDir(root string) (*Dir, error) {
	if root == "" {
		root = "output"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Root() string { return d.root }

func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, name)
}

// WriteAtomic writes data to a temp file in the same directory and renames
// it over name, so readers see either the old or the new file.
func (d *Dir) WriteAtomic(name string, data []byte) (string, error) {
	dst := d.Path(name)
	tmp, err := os.CreateTemp(d.root, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return "", fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return dst, nil
}

// PersistRaw writes the raw text unchanged, then its provenance sidecar.
func (d *Dir) PersistRaw(text, sourceURL string, extractedAt time.Time) (rawPath, provPath string, err error) {
	data := []byte(text)
	rawPath, err = d.WriteAtomic(RawTextName, data)
	if err != nil {
		return "", "", err
	}

	prov := Provenance{
		SourceURL:   sourceURL,
		ExtractedAt: extractedAt.UTC(),
		SHA256:      ContentHashHex(data),
		Bytes:       len(data),
	}
	b, err := json.MarshalIndent(prov, "", "  ")
	if err != nil {
		return rawPath, "", fmt.Errorf("marshal provenance: %w", err)
	}
	provPath, err = d.WriteAtomic(ProvenanceName, append(b, '\n'))
	if err != nil {
		return rawPath, "", err
	}
	return rawPath, provPath, nil
}

// WriteProfileJSON stores the validated profile.
func (d *Dir) WriteProfileJSON(p *profile.Profile) (string, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	return d.WriteAtomic(ProfileJSONName, append(b, '\n'))
}

// ReadProfileJSON loads a profile written by WriteProfileJSON and checks it
// against the schema.
func ReadProfileJSON(path string) (*profile.Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if err := profile.ValidateJSON(b); err != nil {
		return nil, err
	}
	var p profile.Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	p.Normalize()
	if err := profile.Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ReadProvenance loads the sidecar next to a raw text file.
func ReadProvenance(path string) (Provenance, error) {
	var prov Provenance
	b, err := os.ReadFile(path)
	if err != nil {
		return prov, fmt.Errorf("read provenance: %w", err)
	}
	if err := json.Unmarshal(b, &prov); err != nil {
		return prov, fmt.Errorf("decode provenance: %w", err)
	}
	return prov, nil
}

// ContentHashHex returns the hex SHA-256 of data.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
