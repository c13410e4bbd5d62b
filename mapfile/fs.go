package mapfile

import (
	"os"

	"github.com/spf13/afero"
	"github.com/yehan2002/errors"
)

func openFile(fs afero.Fs, path string) (r ReadAtCloser, size int64, err error) {
	var f afero.File
	if f, err = fs.OpenFile(path, os.O_RDONLY, 0); err != nil {
		return nil, 0, errors.Wrap("mapfile: unable to open file", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errors.Wrap("mapfile: unable to stat file", err)
	}

	if info.IsDir() {
		f.Close()
		return nil, 0, errors.New("mapfile: " + path + " is a directory")
	}

	return f, info.Size(), nil
}
