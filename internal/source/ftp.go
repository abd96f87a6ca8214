package source

import (
	"context"
	"encoding/csv"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// FTPOptions configures an FTP bulk feed source.
type FTPOptions struct {
	User     string
	Password string
	Timeout  time.Duration
}

// FTPSource reads a CSV posting dump from an FTP server. Some job-board
// partners deliver bulk exports this way.
type FTPSource struct {
	name string
	url  string
	opts FTPOptions
}

// NewFTPSource creates a source for an ftp:// CSV export URL.
func NewFTPSource(name, rawURL string, opts FTPOptions) *FTPSource {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.User == "" {
		opts.User = "anonymous"
		opts.Password = "anonymous@"
	}
	return &FTPSource{name: name, url: rawURL, opts: opts}
}

func (s *FTPSource) Name() string { return s.name }

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("empty path in ftp url")
	}

	return host, path, nil
}

func (s *FTPSource) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	host, path, err := parseFTPURL(s.url)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("ftp source: connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(s.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrapf(err, "source %s: ftp dial", s.name)
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Login(s.opts.User, s.opts.Password); err != nil {
		return nil, eris.Wrapf(err, "source %s: ftp login", s.name)
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source %s: ftp retrieve %s", s.name, path)
	}
	defer resp.Close()

	postings, err := ParseCSV(resp)
	if err != nil {
		return nil, eris.Wrapf(err, "source %s: parse csv", s.name)
	}
	return postings, nil
}

// ParseCSV reads a header-keyed posting CSV. Unknown columns are
// ignored; rows with fewer fields than the header are skipped.
func ParseCSV(r io.Reader) ([]model.RawPosting, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var postings []model.RawPosting
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		p := model.RawPosting{
			Title:          field(row, "title"),
			CompanyName:    field(row, "company_name"),
			CompanyWebsite: field(row, "company_website"),
			Location:       field(row, "location"),
			Description:    field(row, "description"),
			JobURL:         field(row, "job_url"),
			PostedDate:     field(row, "posted_date"),
			Source:         field(row, "source"),
		}
		if apps := field(row, "applications"); apps != "" {
			if n, err := strconv.Atoi(apps); err == nil {
				p.Signals.Applications = n
			}
		}
		if rep := field(row, "reposted"); rep != "" {
			p.Signals.Reposted = rep == "true" || rep == "1"
		}
		p.Signals.Industry = field(row, "industry")
		postings = append(postings, p)
	}
	return postings, nil
}
