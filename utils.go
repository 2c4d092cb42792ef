package bibparse

import (
	"io"
	"os"
	"strings"
)

// foldTerm keeps only ASCII letters and digits of s, letters lowercased, so
// "Deep {L}earning!" and "deep learning" index alike.
func foldTerm(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'A' <= c && c <= 'Z':
			sb.WriteByte(c + 'a' - 'A')
		case 'a' <= c && c <= 'z', '0' <= c && c <= '9':
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// SaveWith creates filename and hands it to w, reporting the first error of
// writing or closing.
func SaveWith(filename string, w func(io.Writer) error) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return w(f)
}
