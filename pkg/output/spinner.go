package output

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Spinner shows a transaction's confirmation progress. A nil *Spinner is
// valid and does nothing.
type Spinner struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	status   atomic.Value
}

func NewSpinner(ctx context.Context, w io.Writer, label string) *Spinner {
	s := &Spinner{progress: mpb.NewWithContext(ctx, mpb.WithOutput(w), mpb.WithWidth(16))}
	s.status.Store("building")
	s.bar = s.progress.AddSpinner(0,
		mpb.PrependDecorators(decor.Name(label, decor.WCSyncSpaceR)),
		mpb.AppendDecorators(decor.Any(func(decor.Statistics) string {
			return s.status.Load().(string)
		})),
	)
	return s
}

// Update has the signature of txn.StatusFunc.
func (s *Spinner) Update(sig solana.Signature, status string) {
	if s == nil {
		return
	}
	s.status.Store(status + " " + sig.String())
}

// Stop completes the spinner, or aborts it when ok is false, and waits for
// the final render.
func (s *Spinner) Stop(ok bool) {
	if s == nil {
		return
	}
	if ok {
		s.bar.SetTotal(-1, true)
	} else {
		s.bar.Abort(false)
	}
	s.progress.Wait()
}
