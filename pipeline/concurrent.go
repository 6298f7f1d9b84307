package pipeline

import (
	"context"
	"sync"
)

// Parallel fans values across up to n workers running fn. Output order
// follows completion, not input; pair results with an index upstream
// when order matters. The first fn error cancels the remaining work.
func Parallel[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error)) *Pipeline[O] {
	if n < 1 {
		n = 1
	}
	return &Pipeline[O]{
		open: func(ctx context.Context) Iterator[O] {
			src := p.open(ctx)
			runCtx, cancel := context.WithCancel(ctx)
			feed := make(chan I, n)
			out := make(chan item[O], n)

			emit := func(r item[O]) bool {
				select {
				case out <- r:
					return true
				case <-runCtx.Done():
					return false
				}
			}

			// One feeder pulls from the upstream stage.
			go func() {
				defer close(feed)
				for {
					v, ok, err := src.Next(runCtx)
					if err != nil {
						emit(item[O]{err: err})
						return
					}
					if !ok {
						return
					}
					select {
					case feed <- v:
					case <-runCtx.Done():
						return
					}
				}
			}()

			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for v := range feed {
						o, err := fn(runCtx, v)
						if err != nil {
							emit(item[O]{err: err})
							cancel()
							return
						}
						if !emit(item[O]{val: o, ok: true}) {
							return
						}
					}
				}()
			}

			go func() {
				wg.Wait()
				close(out)
			}()

			return &chanIter[O]{
				ch: out,
				onClose: func() error {
					cancel()
					return src.Close()
				},
			}
		},
	}
}
