package app

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v45/github"
	"github.com/spf13/cobra"
)

// Version is set at compile time
var Version = ""

const (
	Owner = "tcp-ping"
	Repo  = "tcpping"
)

const updateCheckTimeout = 10 * time.Second

var releaseTagPattern = regexp.MustCompile(`^v?(\d+\.\d+\.\d+)$`)

// PrintUsage prints how tcpping should be run
func PrintUsage(w io.Writer, cmd *cobra.Command) {
	fmt.Fprintf(w, "\nTCPPING version %s\n\n", Version)
	fmt.Fprint(w, cmd.UsageString())
}

// PrintVersion displays the version
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "TCPPING version %s\n", Version)
}

// compareVersions compares two release versions. A version that does not
// parse, such as a development build, is older than any release.
func compareVersions(v1, v2 string) int {
	ver1, err1 := semver.NewVersion(v1)
	ver2, err2 := semver.NewVersion(v2)

	switch {
	case err1 != nil && err2 != nil:
		return 0
	case err1 != nil:
		return -1
	case err2 != nil:
		return 1
	}

	return ver1.Compare(ver2)
}

// CheckForUpdates checks for newer versions of tcpping and returns update message
func CheckForUpdates(ctx context.Context, c *github.Client) (string, error) {
	if c == nil {
		c = github.NewClient(nil)
	}

	ctx, cancel := context.WithTimeout(ctx, updateCheckTimeout)
	defer cancel()

	// unauthenticated requests from the same IP are limited to 60 per hour
	latestRelease, _, err := c.Repositories.GetLatestRelease(ctx, Owner, Repo)
	if err != nil {
		return "", fmt.Errorf("check for updates: %w", err)
	}

	return updateMessage(Version, latestRelease.GetTagName())
}

// updateMessage compares the running version against the latest release tag.
func updateMessage(current, latestTagName string) (string, error) {
	latestVersion := releaseTagPattern.FindStringSubmatch(latestTagName)
	if len(latestVersion) == 0 {
		return "", fmt.Errorf("version name does not match expected format: %s", latestTagName)
	}

	switch compareVersions(current, latestVersion[1]) {
	case -1:
		return fmt.Sprintf("Found newer version %s\nPlease update TCPPING from the URL below:\nhttps://github.com/%s/%s/releases/tag/%s",
			latestVersion[1], Owner, Repo, latestTagName), nil
	case 1:
		return fmt.Sprintf("Current version %s is newer than the latest release %s",
			current, latestVersion[1]), nil
	default:
		return fmt.Sprintf("TCPPING is on the latest version: %s", current), nil
	}
}
