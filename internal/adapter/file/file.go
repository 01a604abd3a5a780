package file

import "os"

// writeAtomic writes through a temp file and rename so a reader never
// observes a partially written artifact.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
