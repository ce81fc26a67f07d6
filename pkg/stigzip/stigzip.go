package stigzip

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrNoXCCDF = errors.New("no xccdf benchmark in archive")

// Open returns the first entry of the STIG archive at path whose name ends in
// "xccdf.xml", along with that entry name. Closing the returned reader
// closes the archive.
func Open(path string) (string, io.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, fmt.Errorf("open stig archive: %w", err)
	}
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, "xccdf.xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			zr.Close()
			return "", nil, fmt.Errorf("open %s in %s: %w", f.Name, path, err)
		}
		return f.Name, &entry{ReadCloser: rc, archive: zr}, nil
	}
	zr.Close()
	return "", nil, fmt.Errorf("%s: %w", path, ErrNoXCCDF)
}

type entry struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (e *entry) Close() error {
	err := e.ReadCloser.Close()
	if aerr := e.archive.Close(); err == nil {
		err = aerr
	}
	return err
}
