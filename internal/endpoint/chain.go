package endpoint

import "context"

// link is one acquired resource and how to give it back.
type link struct {
	step    Step
	release func(ctx context.Context) error
}

// chain is a stack of acquired resources. It is always a prefix of the
// acquisition order.
type chain []link

func (c *chain) push(step Step, release func(ctx context.Context) error) {
	*c = append(*c, link{step: step, release: release})
}

// unwind releases every link, newest first, and empties the chain. Every
// release runs even if an earlier one fails; failures are reported through
// onErr.
func (c *chain) unwind(ctx context.Context, onErr func(step Step, err error)) {
	for i := len(*c) - 1; i >= 0; i-- {
		l := (*c)[i]
		if err := l.release(ctx); err != nil {
			onErr(l.step, err)
		}
	}
	*c = nil
}
