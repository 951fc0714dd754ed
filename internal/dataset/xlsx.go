package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadXLSX reads one worksheet of an .xlsx workbook into a Table. Sheet
// selection follows LoadOptions: by name when SheetName is set, otherwise by
// 1-based SheetIndex. The workbook is parsed directly from its zip/XML parts;
// only shared strings and inline values are resolved (no styles; formulas
// resolve to their cached value).
func LoadXLSX(path string, opt LoadOptions) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}

	sheets := parseWorkbookSheets(zipPart(zr, "xl/workbook.xml"))
	rels := parseWorkbookRels(zipPart(zr, "xl/_rels/workbook.xml.rels"))

	target := ""
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.name, opt.SheetName) {
				if rel, ok := rels[s.rid]; ok {
					target = sheetPartPath(rel)
				}
				break
			}
		}
		if target == "" {
			names := make([]string, len(sheets))
			for i, s := range sheets {
				names[i] = s.name
			}
			return nil, fmt.Errorf("sheet %q not found in %s (available: %s)",
				opt.SheetName, filepath.Base(path), strings.Join(names, ", "))
		}
	} else {
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		for _, s := range sheets {
			if s.sheetID == idx {
				if rel, ok := rels[s.rid]; ok {
					target = sheetPartPath(rel)
				}
				break
			}
		}
		if target == "" {
			target = fmt.Sprintf("xl/worksheets/sheet%d.xml", idx)
		}
	}

	shared := parseSharedStrings(zipPart(zr, "xl/sharedStrings.xml"))
	rr := newSheetRows(zipPart(zr, target), shared)

	for i := 0; i < opt.SkipRows; i++ {
		if _, ok := rr.next(); !ok {
			return nil, fmt.Errorf("sheet in %s has fewer than %d rows to skip", filepath.Base(path), opt.SkipRows)
		}
	}
	header, ok := rr.next()
	if !ok || len(header) == 0 {
		return nil, fmt.Errorf("sheet in %s is empty", filepath.Base(path))
	}
	t := New(header)
	for {
		row, ok := rr.next()
		if !ok {
			break
		}
		t.Append(row)
	}
	return t, nil
}

type workbookSheet struct {
	name    string
	sheetID int
	rid     string
}

func parseWorkbookSheets(data []byte) []workbookSheet {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []workbookSheet
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "sheet" {
			var s workbookSheet
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "name":
					s.name = a.Value
				case "sheetId":
					s.sheetID = leadingInt(a.Value)
				case "id": // r:id
					s.rid = a.Value
				}
			}
			sheets = append(sheets, s)
		}
	}
}

func parseWorkbookRels(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var id, rel string
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "Id":
					id = a.Value
				case "Target":
					rel = a.Value
				}
			}
			if id != "" && rel != "" {
				out[id] = rel
			}
		}
	}
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	inT := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write([]byte(se))
			}
		}
	}
}

func zipPart(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

// sheetPartPath converts a relationship Target to a zip entry path.
// Targets may carry a leading slash or omit the "xl/" prefix.
func sheetPartPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return "xl/" + rel
}

// sheetRows streams <row> elements of a worksheet part, resolving shared
// strings and A1-style cell references into dense string slices.
type sheetRows struct {
	dec    *xml.Decoder
	shared []string
	cur    []string
	width  int
}

func newSheetRows(data []byte, shared []string) *sheetRows {
	return &sheetRows{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (r *sheetRows) next() ([]string, bool) {
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "row":
				inRow = true
				r.cur = nil
				r.width = 0
			case "c":
				if !inRow {
					continue
				}
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := columnIndex(ref)
				if col+1 > r.width {
					r.width = col + 1
				}
				val := r.cellValue(typ)
				if len(r.cur) <= col {
					tmp := make([]string, col+1)
					copy(tmp, r.cur)
					r.cur = tmp
				}
				r.cur[col] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				if len(r.cur) < r.width {
					tmp := make([]string, r.width)
					copy(tmp, r.cur)
					r.cur = tmp
				}
				return r.cur, true
			}
		}
	}
}

func (r *sheetRows) cellValue(typ string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, er := r.dec.Token()
					if er != nil {
						break
					}
					if ed, ok := tk.(xml.EndElement); ok && (ed.Name.Local == "v" || ed.Name.Local == "t") {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write([]byte(ch))
					}
				}
				val = sb.String()
			}
		case xml.EndElement:
			if se.Name.Local == "c" {
				if typ == "s" {
					idx := leadingInt(val)
					if idx >= 0 && idx < len(r.shared) {
						return r.shared[idx]
					}
					return ""
				}
				return val
			}
		}
	}
}

// columnIndex decodes the column part of an A1 reference ("C12" -> 2).
func columnIndex(ref string) int {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
			i++
			continue
		}
		break
	}
	s := strings.ToUpper(ref[:i])
	idx := 0
	for j := 0; j < len(s); j++ {
		idx = idx*26 + int(s[j]-'A'+1)
	}
	return idx - 1
}

func leadingInt(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
