package export

import (
	git "github.com/go-git/go-git/v5"
)

// Revision returns the abbreviated HEAD commit hash of the git work tree
// containing path, or the empty string when the project is not version
// controlled. The revision is stamped into generated file headers so a
// reader can tell which tree state they were produced from.
func Revision(path string) string {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()[:12]
}
