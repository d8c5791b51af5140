package persistence

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spec-kit/course-assistant/internal/domain"
)

// HeaderRow is written to fresh store files. It does not match the record
// grammar, so loading skips it.
const HeaderRow = "email,name,preferences,orders,courses"

const (
	listSeparator = "|"
	maxLineBytes  = 16 << 20
)

// ErrCorrupt marks a store file whose orders column cannot be decoded.
var ErrCorrupt = errors.New("corrupt record store")

// email,name,pref1|pref2,[...orders json...],course1|course2
var lineGrammar = regexp.MustCompile(`^([^,]*),([^,]*),([^,]*),(\[.*\]),(.*)$`)

var (
	fieldEscaper   = strings.NewReplacer("%", "%25", ",", "%2C", "|", "%7C", "\r", "%0D", "\n", "%0A")
	fieldUnescaper = strings.NewReplacer("%2C", ",", "%7C", "|", "%0D", "\r", "%0A", "\n", "%25", "%")
)

// DecodeRecords parses store lines. Lines that do not match the grammar are
// skipped; an orders column that is not valid JSON fails the whole decode.
// Duplicate emails keep the first position and the last value.
func DecodeRecords(r io.Reader) ([]domain.UserRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []domain.UserRecord
	index := make(map[string]int)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		m := lineGrammar.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		var orders []domain.Order
		if err := json.Unmarshal([]byte(m[4]), &orders); err != nil {
			return nil, fmt.Errorf("%w: line %d: orders column: %v", ErrCorrupt, lineNo, err)
		}
		if orders == nil {
			orders = []domain.Order{}
		}

		rec := domain.UserRecord{
			Email:       unescapeField(m[1]),
			Name:        unescapeField(m[2]),
			Preferences: splitList(m[3]),
			Orders:      orders,
			Courses:     splitList(m[5]),
		}
		if pos, ok := index[rec.Email]; ok {
			records[pos] = rec
			continue
		}
		index[rec.Email] = len(records)
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}

// EncodeRecords writes one grammar line per record.
func EncodeRecords(w io.Writer, records []domain.UserRecord) error {
	bw := bufio.NewWriter(w)
	for i := range records {
		line, err := encodeLine(&records[i])
		if err != nil {
			return err
		}
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encodeLine(rec *domain.UserRecord) (string, error) {
	orders := rec.Orders
	if orders == nil {
		orders = []domain.Order{}
	}
	raw, err := json.Marshal(orders)
	if err != nil {
		return "", fmt.Errorf("encode orders for %s: %w", rec.Email, err)
	}
	return strings.Join([]string{
		fieldEscaper.Replace(rec.Email),
		fieldEscaper.Replace(rec.Name),
		joinList(rec.Preferences),
		string(raw),
		joinList(rec.Courses),
	}, ","), nil
}

func joinList(items []string) string {
	escaped := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		escaped = append(escaped, fieldEscaper.Replace(item))
	}
	return strings.Join(escaped, listSeparator)
}

func splitList(field string) []string {
	out := []string{}
	if field == "" {
		return out
	}
	for _, part := range strings.Split(field, listSeparator) {
		if part == "" {
			continue
		}
		out = append(out, unescapeField(part))
	}
	return out
}

func unescapeField(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	return fieldUnescaper.Replace(s)
}

// FlatFile is the single text file backing the record store.
type FlatFile struct {
	path string
}

// NewFlatFile returns a handle on the store file at path.
func NewFlatFile(path string) *FlatFile {
	return &FlatFile{path: path}
}

// Path returns the file location.
func (f *FlatFile) Path() string {
	return f.path
}

// Exists reports whether the file is present.
func (f *FlatFile) Exists() (bool, error) {
	_, err := os.Stat(f.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Ping checks that the store directory is reachable.
func (f *FlatFile) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(f.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(f.path))
	}
	return nil
}

// Load reads every record. A missing file yields no records.
func (f *FlatFile) Load() ([]domain.UserRecord, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	records, err := DecodeRecords(file)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", f.path, err)
	}
	return records, nil
}

// Save replaces the file contents with records.
func (f *FlatFile) Save(records []domain.UserRecord) error {
	var buf bytes.Buffer
	if err := EncodeRecords(&buf, records); err != nil {
		return err
	}
	return f.WriteRaw(buf.Bytes())
}

// EnsureExists creates the file with a header row when it is absent.
func (f *FlatFile) EnsureExists() error {
	ok, err := f.Exists()
	if err != nil || ok {
		return err
	}
	return f.WriteRaw([]byte(HeaderRow + "\n"))
}

// WriteRaw atomically replaces the file: the data goes to a temp file in the
// same directory which is synced and renamed over the target.
func (f *FlatFile) WriteRaw(data []byte) (err error) {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
