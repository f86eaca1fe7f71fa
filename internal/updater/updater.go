// Package updater checks GitHub Releases for new versions and swaps binaries in place.
package updater

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/notchlight-io/notchlight/internal/buildinfo"
)

// releasesURL is a variable so tests can point it at a local server.
var releasesURL = "https://api.github.com/repos/notchlight-io/notchlight/releases/latest"

var httpClient = &http.Client{Timeout: 30 * time.Second}

// ReleaseInfo describes a GitHub release.
type ReleaseInfo struct {
	TagName string  `json:"tag_name"`
	HTMLURL string  `json:"html_url"`
	Assets  []Asset `json:"assets"`
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// UpdateResult is the outcome of an update check.
type UpdateResult struct {
	Available      bool
	CurrentVersion string
	LatestVersion  string
	ReleaseURL     string
	Release        *ReleaseInfo
}

// CheckForUpdate queries the GitHub Releases API for a newer version than
// the running build.
func CheckForUpdate() (*UpdateResult, error) {
	req, err := http.NewRequest("GET", releasesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "notchlight/"+buildinfo.Version)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No releases published yet
		return &UpdateResult{
			Available:      false,
			CurrentVersion: buildinfo.Version,
		}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}

	var release ReleaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	latestVersion := strings.TrimPrefix(release.TagName, "v")
	current, err := ParseSemver(buildinfo.Version)
	if err != nil {
		// "dev" or other unparseable builds always count as older
		return &UpdateResult{
			Available:      true,
			CurrentVersion: buildinfo.Version,
			LatestVersion:  latestVersion,
			ReleaseURL:     release.HTMLURL,
			Release:        &release,
		}, nil
	}

	latest, err := ParseSemver(latestVersion)
	if err != nil {
		return nil, fmt.Errorf("parse latest version %q: %w", latestVersion, err)
	}

	return &UpdateResult{
		Available:      current.LessThan(latest),
		CurrentVersion: buildinfo.Version,
		LatestVersion:  latestVersion,
		ReleaseURL:     release.HTMLURL,
		Release:        &release,
	}, nil
}

// CLIAssetName returns the expected release asset name for the CLI binary.
func CLIAssetName() string {
	return fmt.Sprintf("notchlight-darwin-%s", runtime.GOARCH)
}

// DaemonAssetName returns the expected release asset name for the daemon binary.
func DaemonAssetName() string {
	return fmt.Sprintf("notchlightd-darwin-%s", runtime.GOARCH)
}

// FindAsset finds a release asset by name.
func FindAsset(release *ReleaseInfo, name string) *Asset {
	for _, a := range release.Assets {
		if a.Name == name {
			return &a
		}
	}
	return nil
}

// DownloadAsset downloads a release asset to a temp file and returns the path.
// The file is made executable.
func DownloadAsset(asset *Asset) (string, error) {
	resp, err := httpClient.Get(asset.BrowserDownloadURL)
	if err != nil {
		return "", fmt.Errorf("download asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp("", "notchlight-update-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	n, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if asset.Size > 0 && n != asset.Size {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("short download: got %d bytes, want %d", n, asset.Size)
	}

	tmpFile.Close()

	if err := os.Chmod(tmpFile.Name(), 0755); err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("chmod temp file: %w", err)
	}

	return tmpFile.Name(), nil
}

// ReplaceBinary replaces the binary at destPath with the one at newPath,
// keeping a .bak alongside until the swap succeeds.
func ReplaceBinary(destPath, newPath string) error {
	destPath, err := filepath.EvalSymlinks(destPath)
	if err != nil {
		return fmt.Errorf("resolve symlink: %w", err)
	}

	bakPath := destPath + ".bak"

	os.Remove(bakPath)

	if err := os.Rename(destPath, bakPath); err != nil {
		return fmt.Errorf("backup old binary: %w", err)
	}

	if err := os.Rename(newPath, destPath); err != nil {
		_ = os.Rename(bakPath, destPath)
		return fmt.Errorf("install new binary: %w", err)
	}

	os.Remove(bakPath)

	return nil
}
