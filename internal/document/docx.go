package document

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const (
	documentPart = "word/document.xml"
	wordNS       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

var (
	errNoDocumentPart = errors.New("archive has no " + documentPart)

	headingStyle = regexp.MustCompile(`(?i)^heading\s*([1-6])$`)
	listStyle    = regexp.MustCompile(`(?i)^list\s*(paragraph|bullet|number)`)
)

// DOCXExtractor converts the main body of a Word document into light HTML:
// headings become <h1>..<h6>, list paragraphs <li> inside <ul>, other
// paragraphs <p>, and bold runs <strong>.
type DOCXExtractor struct{}

// Extract implements Extractor.
func (DOCXExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Format: FormatDOCX, Err: err}
	}
	defer zr.Close()

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", &ExtractionError{Path: path, Format: FormatDOCX, Err: errNoDocumentPart}
	}

	rc, err := part.Open()
	if err != nil {
		return "", &ExtractionError{Path: path, Format: FormatDOCX, Err: err}
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(ctx, io.LimitReader(rc, maxDocumentBytes))
	if err != nil {
		return "", &ExtractionError{Path: path, Format: FormatDOCX, Err: err}
	}
	return renderParagraphs(paragraphs), nil
}

type run struct {
	text string
	bold bool
}

type paragraph struct {
	style string
	list  bool
	runs  []run
}

func (p paragraph) plainText() string {
	var sb strings.Builder
	for _, r := range p.runs {
		sb.WriteString(r.text)
	}
	return sb.String()
}

// headingLevel returns 1-6 for heading styles and 0 otherwise.
func (p paragraph) headingLevel() int {
	if strings.EqualFold(p.style, "Title") {
		return 1
	}
	if m := headingStyle.FindStringSubmatch(p.style); m != nil {
		return int(m[1][0] - '0')
	}
	return 0
}

func (p paragraph) isList() bool {
	return p.list || listStyle.MatchString(p.style)
}

// readParagraphs streams WordprocessingML and collects paragraphs in order.
func readParagraphs(ctx context.Context, r io.Reader) ([]paragraph, error) {
	dec := xml.NewDecoder(r)

	var (
		out     []paragraph
		cur     *paragraph
		curRun  *run
		inText  bool
		inPPr   bool
		pending strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				cur = &paragraph{}
			case "pPr":
				inPPr = true
			case "pStyle":
				if cur != nil && inPPr {
					cur.style = attr(t, "val")
				}
			case "numPr":
				if cur != nil && inPPr {
					cur.list = true
				}
			case "r":
				curRun = &run{}
				pending.Reset()
			case "b":
				if curRun != nil && !inPPr {
					curRun.bold = toggleOn(attr(t, "val"))
				}
			case "t":
				inText = true
			case "tab":
				if curRun != nil {
					pending.WriteString("\t")
				}
			case "br", "cr":
				if curRun != nil {
					pending.WriteString(" ")
				}
			}

		case xml.CharData:
			if inText && curRun != nil {
				pending.Write(t)
			}

		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "pPr":
				inPPr = false
			case "r":
				if cur != nil && curRun != nil {
					curRun.text = pending.String()
					cur.runs = append(cur.runs, *curRun)
				}
				curRun = nil
			case "p":
				if cur != nil {
					out = append(out, *cur)
				}
				cur = nil
			}
		}
	}

	return out, nil
}

// renderParagraphs emits one line per non-empty paragraph.
func renderParagraphs(ps []paragraph) string {
	var lines []string
	inList := false

	for _, p := range ps {
		if strings.TrimSpace(p.plainText()) == "" {
			continue
		}

		list := p.isList() && p.headingLevel() == 0
		if list && !inList {
			lines = append(lines, "<ul>")
		} else if !list && inList {
			lines = append(lines, "</ul>")
		}
		inList = list

		switch level := p.headingLevel(); {
		case level > 0:
			lines = append(lines, fmt.Sprintf("<h%d>%s</h%d>", level, html.EscapeString(strings.TrimSpace(p.plainText())), level))
		case list:
			lines = append(lines, "<li>"+renderRuns(p.runs)+"</li>")
		default:
			lines = append(lines, "<p>"+renderRuns(p.runs)+"</p>")
		}
	}
	if inList {
		lines = append(lines, "</ul>")
	}

	return strings.Join(lines, "\n")
}

// renderRuns escapes run text and wraps consecutive bold runs in a single <strong>.
func renderRuns(runs []run) string {
	var sb strings.Builder
	bold := false
	for _, r := range runs {
		if r.text == "" {
			continue
		}
		if r.bold != bold {
			if r.bold {
				sb.WriteString("<strong>")
			} else {
				sb.WriteString("</strong>")
			}
			bold = r.bold
		}
		sb.WriteString(html.EscapeString(r.text))
	}
	if bold {
		sb.WriteString("</strong>")
	}
	return strings.TrimSpace(sb.String())
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// toggleOn interprets an OOXML on/off attribute; an absent value means on.
func toggleOn(v string) bool {
	switch strings.ToLower(v) {
	case "0", "false", "off":
		return false
	}
	return true
}
