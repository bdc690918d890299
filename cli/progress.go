package cli

import (
	"fmt"
	"io"

	"github.com/cheggaaa/pb"

	"github.com/byte4ever/hasher/hasher"
)

// progressBar draws folder hashing progress on a terminal. The bar is
// created on the first report, once totals are known.
type progressBar struct {
	out io.Writer
	bar *pb.ProgressBar
}

func newProgressBar(out io.Writer) *progressBar {
	return &progressBar{out: out}
}

func (p *progressBar) Report(s hasher.Status) {
	if p.bar == nil {
		p.bar = pb.New64(s.BytesTotal).SetUnits(pb.U_BYTES)
		p.bar.Output = p.out
		p.bar.ShowSpeed = true
		p.bar.Start()
	}

	p.bar.Prefix(fmt.Sprintf("%d/%d ", s.FilesDone, s.FilesTotal))
	p.bar.Set64(s.BytesDone)
}

func (p *progressBar) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
