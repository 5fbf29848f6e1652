// Package corpus reads and writes the text collections basket mines:
// JSONL comment dumps (one Comment per line) and plain text files (one
// text per line).
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/cognicore/basket/internal/logging"
)

// Comment is one collected comment or reply.
type Comment struct {
	ID          string    `json:"id"`
	VideoID     string    `json:"video_id,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	Author      string    `json:"author,omitempty"`
	Text        string    `json:"text"`
	LikeCount   int64     `json:"like_count"`
	PublishedAt time.Time `json:"published_at"`
	IsReply     bool      `json:"is_reply"`
}

const maxLine = 4 << 20

// Texts extracts the comment bodies. Comments without text are dropped, as
// blank lines are in plain text files.
func Texts(comments []Comment) []string {
	out := make([]string, 0, len(comments))
	for _, c := range comments {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		out = append(out, c.Text)
	}
	return out
}

// LoadJSONL loads comments from a JSONL file. Malformed lines are skipped
// with a warning; a file whose non-blank lines are all malformed is an
// error.
func LoadJSONL(path string) ([]Comment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSONL(f, path)
}

// ReadJSONL is LoadJSONL over a reader. name labels log lines and errors.
func ReadJSONL(r io.Reader, name string) ([]Comment, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	comments := []Comment{}
	lines, bad := 0, 0
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines++

		var c Comment
		if err := gojson.Unmarshal([]byte(line), &c); err != nil {
			bad++
			logging.Warn().Err(err).Str("file", name).Int("line", n).Msg("skipping malformed JSON")
			continue
		}
		comments = append(comments, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if lines > 0 && bad == lines {
		return nil, fmt.Errorf("no valid comments found in %s", name)
	}
	return comments, nil
}

// LoadText loads one text per non-blank line.
func LoadText(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadText(f)
}

// ReadText is LoadText over a reader.
func ReadText(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	texts := []string{}
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			texts = append(texts, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return texts, nil
}

// IsJSONL reports whether path names a JSONL file by extension.
func IsJSONL(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return true
	}
	return false
}

// Load returns the texts of path, dispatching on its extension.
func Load(path string) ([]string, error) {
	if IsJSONL(path) {
		comments, err := LoadJSONL(path)
		if err != nil {
			return nil, err
		}
		return Texts(comments), nil
	}
	return LoadText(path)
}

// Writer appends comments to a JSONL stream.
type Writer struct {
	w   *bufio.Writer
	enc *gojson.Encoder
	n   int
}

// NewWriter wraps w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{w: bw, enc: gojson.NewEncoder(bw)}
}

// Write encodes one comment as a line.
func (cw *Writer) Write(c Comment) error {
	if err := cw.enc.Encode(c); err != nil {
		return err
	}
	cw.n++
	return nil
}

// Count returns how many comments were written.
func (cw *Writer) Count() int { return cw.n }

// Flush flushes buffered output.
func (cw *Writer) Flush() error { return cw.w.Flush() }

// WriteJSONL writes every comment as one line.
func WriteJSONL(w io.Writer, comments []Comment) error {
	cw := NewWriter(w)
	for _, c := range comments {
		if err := cw.Write(c); err != nil {
			return err
		}
	}
	return cw.Flush()
}
