package actors

import (
	"os"

	"github.com/pkg/errors"
	"persona/engine/library"
)

// Open returns the contents of <rootDir>/<flatFileDir>/<mind>/<db>.dat, false if it does not exist.
func Open(mind, db string) ([]byte, bool) {
	b, err := os.ReadFile(path(mind, db))
	if err != nil {
		if !os.IsNotExist(err) {
			library.LogCLI(err.Error(), 2)
		}
		return nil, false
	}
	return b, true
}

// Write replaces the contents of a flat file, creating its directory if needed.
func Write(mind, db string, b []byte) error {
	if err := os.MkdirAll(directory(mind), 0700); err != nil {
		return errors.Wrap(err, "creating data directory")
	}
	tmp := path(mind, db) + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	return errors.Wrap(os.Rename(tmp, path(mind, db)), "replacing flat file")
}

func path(mind, db string) string {
	return directory(mind) + db + ".dat"
}

func directory(mind string) string {
	dir := MakeOrGetConfig().GetString("rootDir")
	dir = dir + MakeOrGetConfig().GetString("flatFileDir")
	dir = dir + mind + "/"
	return dir
}
