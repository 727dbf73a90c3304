package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/forma-dev/forma/internal/errors"
	"github.com/forma-dev/forma/pkg/canvas"
)

// ProjectDocument is the on-disk shape of a saved project: one JSON
// file per project under the projects directory.
type ProjectDocument struct {
	Name      string             `json:"name"`
	SavedAt   time.Time          `json:"savedAt"`
	Instances []*canvas.Instance `json:"instances"`
}

// ProjectStore persists projects as JSON files. The editor treats disk
// as the source of truth; sessions load a copy and save explicitly.
type ProjectStore struct {
	dir string
}

// NewProjectStore creates a store rooted at dir. The directory is
// created on first save.
func NewProjectStore(dir string) *ProjectStore {
	return &ProjectStore{dir: dir}
}

// Dir returns the directory projects are stored in.
func (ps *ProjectStore) Dir() string { return ps.dir }

// List returns the names of all saved projects, sorted.
func (ps *ProjectStore) List() ([]string, error) {
	entries, err := os.ReadDir(ps.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads a saved project by name.
func (ps *ProjectStore) Load(name string) (*ProjectDocument, error) {
	path, err := ps.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E142").
				WithDetail("No saved project named " + name)
		}
		return nil, err
	}

	var doc ProjectDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New("E142").
			WithDetail("Project file for " + name + " is not valid JSON").
			Wrap(err)
	}
	if doc.Name == "" {
		doc.Name = name
	}
	return &doc, nil
}

// Save writes a project to disk, creating the directory if needed.
func (ps *ProjectStore) Save(name string, instances []*canvas.Instance) error {
	path, err := ps.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(ps.dir, 0755); err != nil {
		return err
	}

	doc := ProjectDocument{
		Name:      name,
		SavedAt:   time.Now().UTC(),
		Instances: instances,
	}
	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return os.WriteFile(path, data, 0644)
}

// Delete removes a saved project.
func (ps *ProjectStore) Delete(name string) error {
	path, err := ps.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.New("E142").
				WithDetail("No saved project named " + name)
		}
		return err
	}
	return nil
}

// Exists reports whether a project with the given name is saved.
func (ps *ProjectStore) Exists(name string) bool {
	path, err := ps.path(name)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

// path validates the project name and returns its file path. Names
// must be simple identifiers so a request can never escape the
// projects directory.
func (ps *ProjectStore) path(name string) (string, error) {
	if name == "" || !validProjectName(name) {
		return "", errors.New("E142").
			WithDetail("Invalid project name " + name).
			WithSuggestion("Use letters, digits, dashes, and underscores")
	}
	return filepath.Join(ps.dir, name+".json"), nil
}

func validProjectName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
			if strings.Contains(name, "..") {
				return false
			}
		default:
			return false
		}
	}
	return true
}
