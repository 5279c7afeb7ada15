package deck

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// pkg is an OOXML package held fully in memory as part name -> part bytes.
type pkg struct {
	parts map[string][]byte
}

func openPkg(data []byte) (*pkg, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening template archive: %w", err)
	}
	p := &pkg{parts: make(map[string][]byte, len(zr.File))}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening part %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading part %s: %w", f.Name, err)
		}
		p.parts[f.Name] = body
	}
	return p, nil
}

func (p *pkg) part(name string) string { return string(p.parts[name]) }

func (p *pkg) setPart(name, body string) { p.parts[name] = []byte(body) }

func (p *pkg) deletePart(name string) { delete(p.parts, name) }

// write serializes the package. [Content_Types].xml goes first, the rest in
// sorted order so output bytes are deterministic for a given input deck.
func (p *pkg) write() ([]byte, error) {
	names := make([]string, 0, len(p.parts))
	for name := range p.parts {
		if name != contentTypesPart {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := p.parts[contentTypesPart]; ok {
		names = append([]string{contentTypesPart}, names...)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("creating part %s: %w", name, err)
		}
		if _, err := w.Write(p.parts[name]); err != nil {
			return nil, fmt.Errorf("writing part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func esc(s string) string { return xmlEscaper.Replace(s) }
