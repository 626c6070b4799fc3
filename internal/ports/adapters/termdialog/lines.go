package termdialog

import (
	"bufio"
	"context"
	"io"
	"sync"
)

// Lines reads newline-terminated input in the background so a pending read
// can be abandoned when its context ends. The session loop and the prompts
// share one Lines so no buffered input is lost between them.
type Lines struct {
	r    *bufio.Reader
	ch   chan line
	once sync.Once
}

type line struct {
	text string
	err  error
}

func NewLines(r io.Reader) *Lines {
	return &Lines{r: bufio.NewReader(r), ch: make(chan line)}
}

// ReadLine returns the next line including its newline. At end of input it
// returns any partial line with io.EOF, and io.EOF alone afterwards.
func (l *Lines) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.once.Do(func() { go l.pump() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case ln, ok := <-l.ch:
		if !ok {
			return "", io.EOF
		}
		return ln.text, ln.err
	}
}

func (l *Lines) pump() {
	defer close(l.ch)
	for {
		text, err := l.r.ReadString('\n')
		l.ch <- line{text: text, err: err}
		if err != nil {
			return
		}
	}
}
