// Package docs extracts the gold listings embedded in the project's markdown
// documentation, so that the documented examples can be compiled as part of
// the test suite and never rot.
package docs

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	mdast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Example is one fenced gold listing from a documentation file.
type Example struct {
	// The name from the nearest preceding "Example: " heading.
	Name string

	// The gold source text of the listing.
	Source string
}

// ExtractExamples parses a markdown document and collects every fenced code
// block with the `gold` language under an "Example: " heading.  Each listing
// must be a complete unit.  A gold fence outside an example heading is an
// error: undocumented listings cannot be checked.
func ExtractExamples(markdownContent string) ([]Example, error) {
	md := goldmark.New()
	source := []byte(markdownContent)

	doc := md.Parser().Parse(text.NewReader(source))

	var examples []Example
	currentName := ""
	fenceInSection := 0

	err := mdast.Walk(doc, func(node mdast.Node, entering bool) (mdast.WalkStatus, error) {
		if !entering {
			return mdast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *mdast.Heading:
			headingText := extractTextFromNode(n, source)
			if strings.HasPrefix(headingText, "Example: ") {
				currentName = strings.TrimPrefix(headingText, "Example: ")
				fenceInSection = 0
			}

		case *mdast.FencedCodeBlock:
			if string(n.Language(source)) != "gold" {
				return mdast.WalkContinue, nil
			}

			if currentName == "" {
				return mdast.WalkStop, fmt.Errorf("gold listing outside of an example section")
			}

			name := currentName
			if fenceInSection > 0 {
				name = fmt.Sprintf("%s (%d)", currentName, fenceInSection+1)
			}
			fenceInSection++

			examples = append(examples, Example{
				Name:   name,
				Source: extractCodeBlockContent(n, source),
			})
		}

		return mdast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return examples, nil
}

// extractTextFromNode extracts the plain text content of a markdown node.
func extractTextFromNode(node mdast.Node, source []byte) string {
	var buf bytes.Buffer

	mdast.Walk(node, func(n mdast.Node, entering bool) (mdast.WalkStatus, error) {
		if entering {
			if text, ok := n.(*mdast.Text); ok {
				buf.Write(text.Segment.Value(source))
			}
		}
		return mdast.WalkContinue, nil
	})

	return buf.String()
}

// extractCodeBlockContent extracts the content of a fenced code block.
func extractCodeBlockContent(codeBlock *mdast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer

	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}

	return buf.String()
}
