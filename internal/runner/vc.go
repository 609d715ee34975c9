package runner

import (
	"context"
	"os"
	"path/filepath"
)

// HasVC reports whether dir carries the vc version-control stamping scripts
// (http://www.ctan.org/pkg/vc).
func HasVC(dir string) bool {
	for _, name := range []string{"vc", "vc-git.awk"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// RunVC refreshes the vc stamp file when the project uses vc. It reports
// whether vc ran.
func RunVC(ctx context.Context, r Runner, dir string) (bool, error) {
	if !HasVC(dir) {
		return false, nil
	}
	if err := r.Run(ctx, Command{Script: "./vc", Dir: dir}); err != nil {
		return true, err
	}
	return true, nil
}
