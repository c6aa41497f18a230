package main

import (
	"io"

	"github.com/gosuri/uiprogress"
)

// progressBar shows prediction progress. A nil *progressBar is a no-op.
type progressBar struct {
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
}

func newProgressBar(w io.Writer, total int) *progressBar {
	p := uiprogress.New()
	p.SetOut(w)
	bar := p.AddBar(total).AppendCompleted().PrependElapsed()
	return &progressBar{progress: p, bar: bar}
}

func (b *progressBar) start() {
	if b != nil {
		b.progress.Start()
	}
}

// tick advances the bar by one sentence. Safe for concurrent use.
func (b *progressBar) tick(_, _ int) {
	b.bar.Incr()
}

func (b *progressBar) stop() {
	if b != nil {
		b.progress.Stop()
	}
}
