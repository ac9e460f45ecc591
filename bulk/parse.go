package bulk

import (
	"bufio"
	"bytes"
	"fmt"
	"html"
	"net/mail"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/quarry/core"
	"gopkg.in/yaml.v3"
)

var (
	typesByExt = map[string]core.DocumentType{
		".txt":      core.DocumentTypePlainText,
		".text":     core.DocumentTypePlainText,
		".md":       core.DocumentTypeMarkdown,
		".markdown": core.DocumentTypeMarkdown,
		".eml":      core.DocumentTypeEmail,
		".html":     core.DocumentTypeHTML,
		".htm":      core.DocumentTypeHTML,
		".xml":      core.DocumentTypeXML,
	}

	dateLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"January 2, 2006",
		"Jan 2, 2006",
	}

	titleTag    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	invisible   = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	markupTag   = regexp.MustCompile(`(?s)<[^>]+>`)
	blankRun    = regexp.MustCompile(`[ \t]+`)
	newlineRun  = regexp.MustCompile(`\n{3,}`)
	metaExclude = []string{"title", "author", "date", "created", "tags", "keywords"}
)

// Supported reports whether path has an extension the loader can parse.
func Supported(path string) bool {
	_, ok := typesByExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ParseFile builds a document from a file's content. rel is the path
// relative to the load root and becomes the document's Path.
func ParseFile(rel string, content []byte) (*core.Document, error) {
	ext := strings.ToLower(filepath.Ext(rel))
	docType, ok := typesByExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, rel)
	}

	doc := &core.Document{
		Title:    titleFromPath(rel),
		Path:     filepath.ToSlash(rel),
		Type:     docType,
		Metadata: map[string]string{},
	}

	var err error
	switch docType {
	case core.DocumentTypeMarkdown:
		err = parseMarkdown(doc, string(content))
	case core.DocumentTypeEmail:
		err = parseEmail(doc, content)
	case core.DocumentTypeHTML, core.DocumentTypeXML:
		parseMarkup(doc, string(content))
	default:
		doc.Content = strings.TrimSpace(string(content))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	if len(doc.Metadata) == 0 {
		doc.Metadata = nil
	}
	return doc, nil
}

// parseMarkdown reads YAML front matter into the document and keeps the
// body as content. A first-level heading names the document when the
// front matter does not.
func parseMarkdown(doc *core.Document, text string) error {
	fm, body, err := splitFrontMatter(text)
	if err != nil {
		return err
	}

	if title := stringField(fm, "title"); title != "" {
		doc.Title = title
	} else if h1 := firstHeading(body); h1 != "" {
		doc.Title = h1
	}
	doc.Author = stringField(fm, "author")
	doc.CreatedAt = timeField(fm, "date", "created")
	doc.Keywords = append(listField(fm, "tags"), listField(fm, "keywords")...)

	for k, v := range fm {
		if slices.Contains(metaExclude, k) {
			continue
		}
		switch v := v.(type) {
		case string, int, float64, bool:
			doc.Metadata[k] = fmt.Sprint(v)
		}
	}

	doc.Content = strings.TrimSpace(body)
	return nil
}

// splitFrontMatter separates YAML front matter between --- delimiters from
// the markdown body. Text without front matter is returned whole.
func splitFrontMatter(text string) (map[string]any, string, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return map[string]any{}, text, nil
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closing = i
			break
		}
	}
	if closing == -1 {
		return map[string]any{}, text, nil
	}

	fm := make(map[string]any)
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:closing], "\n")), &fm); err != nil {
		return nil, "", fmt.Errorf("invalid front matter: %w", err)
	}
	return fm, strings.Join(lines[closing+1:], "\n"), nil
}

// parseEmail takes the title, author and date from the message headers.
func parseEmail(doc *core.Document, content []byte) error {
	msg, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if subject := strings.TrimSpace(msg.Header.Get("Subject")); subject != "" {
		doc.Title = subject
		doc.Metadata["subject"] = subject
	}
	if from, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
		doc.Author = from.Name
		if doc.Author == "" {
			doc.Author = from.Address
		}
		doc.Metadata["from"] = from.Address
	}
	if to := msg.Header.Get("To"); to != "" {
		doc.Metadata["to"] = to
	}
	if date, err := msg.Header.Date(); err == nil {
		doc.CreatedAt = date.UTC()
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(msg.Body); err != nil {
		return fmt.Errorf("reading message body: %w", err)
	}
	doc.Content = strings.TrimSpace(body.String())
	return nil
}

// parseMarkup strips tags from HTML and XML, keeping the text.
func parseMarkup(doc *core.Document, text string) {
	if m := titleTag.FindStringSubmatch(text); m != nil {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			doc.Title = title
		}
	}
	text = invisible.ReplaceAllString(text, " ")
	text = markupTag.ReplaceAllString(text, "\n")
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(blankRun.ReplaceAllString(line, " "))
	}
	text = newlineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	doc.Content = strings.TrimSpace(text)
}

// titleFromPath derives a readable title from the file name.
func titleFromPath(rel string) string {
	base := filepath.Base(rel)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.TrimSpace(name)
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

func stringField(fm map[string]any, key string) string {
	if s, ok := fm[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// listField reads a YAML list or a comma-separated string.
func listField(fm map[string]any, key string) []string {
	var out []string
	switch v := fm[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// timeField returns the first of keys that parses as a date.
func timeField(fm map[string]any, keys ...string) time.Time {
	for _, key := range keys {
		switch v := fm[key].(type) {
		case time.Time:
			return v.UTC()
		case string:
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
					return t.UTC()
				}
			}
		}
	}
	return time.Time{}
}
