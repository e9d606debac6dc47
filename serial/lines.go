package serial

import (
	"bytes"

	"github.com/sirupsen/logrus"
)

// MaxLineLength bounds how much unterminated input is buffered.
const MaxLineLength = 4096

// LineSplitter turns a stream of partial reads into newline terminated lines.
type LineSplitter struct {
	buf     []byte
	discard bool
}

// Feed appends p and returns every line it completes, without the terminator.
func (s *LineSplitter) Feed(p []byte) []string {
	var lines []string
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			s.append(p)
			break
		}
		s.append(p[:i])
		if !s.discard {
			lines = append(lines, string(bytes.TrimRight(s.buf, "\r")))
		}
		s.buf = s.buf[:0]
		s.discard = false
		p = p[i+1:]
	}
	return lines
}

func (s *LineSplitter) append(p []byte) {
	if s.discard {
		return
	}
	if len(s.buf)+len(p) > MaxLineLength {
		logrus.WithField("buffered", len(s.buf)+len(p)).Warn("dropping overlong serial line")
		s.buf = s.buf[:0]
		s.discard = true
		return
	}
	s.buf = append(s.buf, p...)
}

// Pending reports how many bytes wait for a terminator.
func (s *LineSplitter) Pending() int { return len(s.buf) }

func (s *LineSplitter) Reset() {
	s.buf = s.buf[:0]
	s.discard = false
}
