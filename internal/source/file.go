package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// FileSource reads postings from a local JSON or CSV file. Used for
// ad-hoc imports and replaying saved feeds.
type FileSource struct {
	name string
	path string
}

// NewFileSource creates a source over a local feed file.
func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path}
}

func (s *FileSource) Name() string { return s.name }

func (s *FileSource) Fetch(_ context.Context) ([]model.RawPosting, error) {
	if strings.EqualFold(filepath.Ext(s.path), ".csv") {
		f, err := os.Open(s.path)
		if err != nil {
			return nil, eris.Wrapf(err, "source %s: open %s", s.name, s.path)
		}
		defer f.Close()

		postings, err := ParseCSV(f)
		if err != nil {
			return nil, eris.Wrapf(err, "source %s: parse csv", s.name)
		}
		return postings, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, eris.Wrapf(err, "source %s: read %s", s.name, s.path)
	}
	return decodeFeed(s.name, data)
}
