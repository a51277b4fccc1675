package netlist

import (
	"context"
	"fmt"
	"sync"

	"github.com/hammal/lti/interconnect"
	"github.com/hammal/lti/pss"
	"github.com/hammal/lti/ssm"
	"github.com/rs/zerolog"
)

// node memoizes the realization of one name. Systems are immutable, so a
// result shared by several compositions needs no locking.
type node struct {
	once sync.Once
	sys  *ssm.LinearStateSpaceModel
	err  error
}

type builder struct {
	netlist *Netlist
	logger  zerolog.Logger
	opts    []pss.Option
	nodes   map[string]*node
}

// Build realizes the output of n. The operands of a composition are built
// concurrently, and every name is built once even when it is shared. The
// options are passed to every feedback and lft composition.
func Build(ctx context.Context, n *Netlist, logger zerolog.Logger, opts ...pss.Option) (*ssm.LinearStateSpaceModel, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	b := &builder{
		netlist: n,
		logger:  logger,
		opts:    opts,
		nodes:   make(map[string]*node, len(n.Systems)+len(n.Compose)),
	}
	// All nodes exist before any goroutine starts, so the map is only read
	// concurrently.
	for name := range n.Systems {
		b.nodes[name] = &node{}
	}
	for name := range n.Compose {
		b.nodes[name] = &node{}
	}
	sys, err := b.eval(ctx, n.Output)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("output", n.Output).
		Int("states", sys.StateSpaceOrder()).
		Int("inputs", sys.InputSpaceOrder()).
		Int("outputs", sys.ObservationSpaceOrder()).
		Stringer("sampling", sys.Sampling()).
		Msg("netlist built")
	return sys, nil
}

func (b *builder) eval(ctx context.Context, name string) (*ssm.LinearStateSpaceModel, error) {
	nd := b.nodes[name]
	nd.once.Do(func() {
		nd.sys, nd.err = b.compute(ctx, name)
	})
	return nd.sys, nd.err
}

func (b *builder) compute(ctx context.Context, name string) (*ssm.LinearStateSpaceModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if system, ok := b.netlist.Systems[name]; ok {
		sys, err := system.realize(name)
		if err != nil {
			return nil, err
		}
		b.logger.Debug().Str("system", name).Int("states", sys.StateSpaceOrder()).Msg("system realized")
		return sys, nil
	}

	c := b.netlist.Compose[name]
	operands := make([]*ssm.LinearStateSpaceModel, len(c.Operands))
	errs := make([]error, len(c.Operands))
	var wg sync.WaitGroup
	for index, operand := range c.Operands {
		index, operand := index, operand
		wg.Add(1)
		go func() {
			defer wg.Done()
			operands[index], errs[index] = b.eval(ctx, operand)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sys, err := b.compose(c, operands)
	if err != nil {
		b.logger.Warn().Err(err).Str("composition", name).Str("kind", c.Kind).Msg("composition failed")
		return nil, fmt.Errorf("composition %q: %w", name, err)
	}
	b.logger.Debug().
		Str("composition", name).
		Str("kind", c.Kind).
		Strs("operands", c.Operands).
		Int("states", sys.StateSpaceOrder()).
		Msg("composed")
	return sys, nil
}

func (b *builder) compose(c Composition, operands []*ssm.LinearStateSpaceModel) (*ssm.LinearStateSpaceModel, error) {
	switch c.Kind {
	case KindSeries:
		return interconnect.Series(operands...)
	case KindParallel:
		return interconnect.Parallel(operands...)
	case KindAppend:
		return interconnect.Append(operands...)
	case KindVcat:
		return interconnect.Vcat(operands...)
	case KindHcat:
		return interconnect.Hcat(operands...)
	case KindFeedback:
		return interconnect.Feedback(operands[0], operands[1], b.opts...)
	case KindLFT:
		p1, err := pss.New(operands[0], c.Partitions[0].Nu1, c.Partitions[0].Ny1)
		if err != nil {
			return nil, err
		}
		p2, err := pss.New(operands[1], c.Partitions[1].Nu1, c.Partitions[1].Ny1)
		if err != nil {
			return nil, err
		}
		res, err := pss.Feedback(p1, p2, b.opts...)
		if err != nil {
			return nil, err
		}
		return res.P(), nil
	}
	return nil, fmt.Errorf("unknown kind %q: %w", c.Kind, ErrNetlist)
}
