package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/google/go-github/v81/github"

	"github.com/parker-estes/bankdocs/internal/chunk"
)

// textExtensions are the remote formats synced as plain text. Binary
// formats like PDF are excluded; those come in through local upload.
var textExtensions = []string{".md", ".txt", ".csv"}

// FetchedDoc is a text document fetched from a GitHub repository.
type FetchedDoc struct {
	Path    string // Relative path within the synced directory
	Content string // Decoded file content
	SHA     string // File's Git blob SHA
	URL     string // GitHub raw URL
}

// SourcePath returns the document's synthetic source identifier,
// github://owner/repo/path. It is stable across syncs so re-fetching a
// document replaces its previous chunks.
func (d *FetchedDoc) SourcePath(owner, repo, basePath string) string {
	return fmt.Sprintf("github://%s/%s/%s", owner, repo, path.Join(basePath, d.Path))
}

// Fetcher lists and fetches bank documents from a GitHub repository
// directory.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string
}

// NewFetcher creates a fetcher rooted at basePath within owner/repo.
func NewFetcher(client *Client, owner, repo, basePath string) *Fetcher {
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}
}

// List recursively lists all supported text documents under the
// fetcher's base path. Returned paths are relative to the base path.
func (f *Fetcher) List(ctx context.Context) ([]string, error) {
	return f.listRecursive(ctx, f.basePath, "")
}

func (f *Fetcher) listRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var docs []string

	_, dirContents, _, err := f.client.Repositories.GetContents(
		ctx,
		f.owner,
		f.repo,
		fullPath,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}

		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			if isTextDocument(*item.Name) {
				docs = append(docs, itemRelPath)
			}

		case "dir":
			itemFullPath := path.Join(fullPath, *item.Name)
			subDocs, err := f.listRecursive(ctx, itemFullPath, itemRelPath)
			if err != nil {
				return nil, err
			}
			docs = append(docs, subDocs...)
		}
	}

	return docs, nil
}

// Fetch downloads and decodes a single document by its relative path.
func (f *Fetcher) Fetch(ctx context.Context, relativePath string) (*FetchedDoc, error) {
	fullPath := path.Join(f.basePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(
		ctx,
		f.owner,
		f.repo,
		fullPath,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", fullPath, err)
	}

	if fileContent == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", fullPath, err)
	}

	rawURL := fmt.Sprintf(
		"https://raw.githubusercontent.com/%s/%s/main/%s",
		f.owner,
		f.repo,
		fullPath,
	)

	return &FetchedDoc{
		Path:    relativePath,
		Content: string(content),
		SHA:     *fileContent.SHA,
		URL:     rawURL,
	}, nil
}

// Metadata builds the ingest metadata for a fetched document.
func (f *Fetcher) Metadata(doc *FetchedDoc) chunk.Metadata {
	return chunk.Metadata{
		SourcePath: doc.SourcePath(f.owner, f.repo, f.basePath),
		FileName:   path.Base(doc.Path),
	}
}

// LatestCommitSHA retrieves the SHA of the most recent commit touching
// the synced directory, used to log what version a sync picked up.
func (f *Fetcher) LatestCommitSHA(ctx context.Context) (string, error) {
	commits, _, err := f.client.Repositories.ListCommits(
		ctx,
		f.owner,
		f.repo,
		&github.CommitsListOptions{
			Path: f.basePath,
			ListOptions: github.ListOptions{
				PerPage: 1,
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to get latest commit: %w", err)
	}

	if len(commits) == 0 {
		return "", fmt.Errorf("no commits found for path %s", f.basePath)
	}

	if commits[0].SHA == nil {
		return "", fmt.Errorf("commit SHA is nil")
	}

	return *commits[0].SHA, nil
}

func isTextDocument(name string) bool {
	for _, ext := range textExtensions {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return true
		}
	}
	return false
}
