package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	pdf "github.com/dslipak/pdf"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/andrevrochaz/agent-swarm-rag/internal/rag"
	"github.com/andrevrochaz/agent-swarm-rag/internal/scrape"
)

func newImportCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import local documents (.md/.txt/.html/.pdf) into the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return fmt.Errorf("--path is required")
			}

			ctx := cmd.Context()
			indexer, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			docs, err := collectLocalDocuments(path)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				log.Println("no importable documents found")
				return nil
			}

			if err := indexer.IndexDocuments(ctx, docs); err != nil {
				return err
			}

			log.Printf("import complete: %d documents", len(docs))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "base directory for local documents")
	return cmd
}

func collectLocalDocuments(rootPath string) ([]rag.Document, error) {
	var docs []rag.Document

	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isImportableFile(path) {
			return nil
		}

		text, err := extractFileText(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		text = sanitizeUTF8(strings.TrimSpace(text))
		if text == "" {
			return nil
		}

		docs = append(docs, scrape.DocumentFromText("file://"+path, filenameToTitle(path), text))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func extractFileText(path string) (string, error) {
	lpath := strings.ToLower(path)

	switch {
	case strings.HasSuffix(lpath, ".pdf"):
		return extractTextFromPDF(path)

	case strings.HasSuffix(lpath, ".html"), strings.HasSuffix(lpath, ".htm"):
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		root, err := html.Parse(strings.NewReader(string(data)))
		if err != nil {
			return "", err
		}
		return scrape.ExtractText(root), nil

	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func extractTextFromPDF(path string) (string, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	buf := bytes.NewBuffer(nil)
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func isImportableFile(path string) bool {
	l := strings.ToLower(path)
	return strings.HasSuffix(l, ".md") ||
		strings.HasSuffix(l, ".txt") ||
		strings.HasSuffix(l, ".html") ||
		strings.HasSuffix(l, ".htm") ||
		strings.HasSuffix(l, ".pdf")
}

func filenameToTitle(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}

// sanitizeUTF8 drops invalid bytes so Postgres never rejects the content.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		b.WriteRune(r)
		s = s[size:]
	}
	return b.String()
}
