package report

import (
	"os"

	"github.com/rotisserie/eris"
)

// WriteFileAtomic writes data to path via a sibling temp file and a rename,
// so readers never observe a partially written artifact.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return eris.Wrapf(err, "report: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "report: commit %s", path)
	}
	return nil
}
