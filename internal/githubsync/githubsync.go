// Package githubsync backs up run artifacts (reports, logs) to a GitHub
// repository through the contents API.
package githubsync

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

const defaultAPIURL = "https://api.github.com"

// Syncer pushes files into one repository branch.
type Syncer struct {
	apiURL     string
	token      string
	owner      string
	repo       string
	branch     string
	httpClient *http.Client
}

// New creates a syncer for owner/repo on branch.
func New(token, owner, repo, branch string) *Syncer {
	if branch == "" {
		branch = "main"
	}
	return &Syncer{
		apiURL:     defaultAPIURL,
		token:      token,
		owner:      owner,
		repo:       repo,
		branch:     branch,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// PushFiles upserts each local file to its remote path. Missing local files
// are skipped; the first remote failure aborts the push.
func (s *Syncer) PushFiles(ctx context.Context, files map[string]string) error {
	for remotePath, localPath := range files {
		if _, err := os.Stat(localPath); err != nil {
			log.WithField("file", localPath).Debug("Skipping missing file")
			continue
		}
		if err := s.pushFile(ctx, remotePath, localPath); err != nil {
			return fmt.Errorf("failed to push %s: %w", remotePath, err)
		}
		log.WithField("path", remotePath).Info("Pushed file to GitHub")
	}
	return nil
}

// PushReports pushes every file in the reports directory plus the run log,
// mirroring the layout the original backups used.
func (s *Syncer) PushReports(ctx context.Context, reportsDir, logFile string) error {
	files := map[string]string{}

	entries, err := filepath.Glob(filepath.Join(reportsDir, "*"))
	if err != nil {
		return fmt.Errorf("error listing reports: %w", err)
	}
	for _, entry := range entries {
		files[filepath.ToSlash(filepath.Join("data/reports", filepath.Base(entry)))] = entry
	}
	if logFile != "" {
		files[filepath.ToSlash(filepath.Join("logs", filepath.Base(logFile)))] = logFile
	}

	return s.PushFiles(ctx, files)
}

type contentsResponse struct {
	SHA string `json:"sha"`
}

type contentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

func (s *Syncer) pushFile(ctx context.Context, remotePath, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", localPath, err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.apiURL, s.owner, s.repo, remotePath)

	// Updating an existing file requires its current blob SHA.
	sha, err := s.currentSHA(ctx, url)
	if err != nil {
		return err
	}

	payload := contentsRequest{
		Message: fmt.Sprintf("Update %s", remotePath),
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  s.branch,
		SHA:     sha,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling contents request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Warn("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// currentSHA returns the blob SHA of the remote file, or "" when the file
// does not exist yet.
func (s *Syncer) currentSHA(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Warn("Failed to close response body")
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var contents contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		return "", fmt.Errorf("error decoding contents response: %w", err)
	}
	return contents.SHA, nil
}

func (s *Syncer) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+s.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}
