package live

import (
	"context"
	"time"
)

const (
	DefaultInterval   = 5 * time.Second
	DefaultMaxBackoff = time.Minute
)

// Update is one observation of a live value. Err is set when the fetch failed;
// Value is then the zero value.
type Update[T any] struct {
	Value T
	Err   error
	At    time.Time
}

// Feed yields updates for one key until ctx is done, then closes the channel.
type Feed[T any] interface {
	Subscribe(ctx context.Context, key string) <-chan Update[T]
}

type Options struct {
	Interval   time.Duration
	MaxBackoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MaxBackoff < o.Interval {
		o.MaxBackoff = max(DefaultMaxBackoff, o.Interval)
	}
	return o
}

// Poll calls fetch immediately and then every Interval. After consecutive
// failures the delay doubles up to MaxBackoff; a success resets it.
func Poll[T any](ctx context.Context, fetch func(ctx context.Context) (T, error), opts Options) <-chan Update[T] {
	opts = opts.withDefaults()
	out := make(chan Update[T], 1)

	go func() {
		defer close(out)

		failures := 0
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			v, err := fetch(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				failures++
			} else {
				failures = 0
			}

			select {
			case out <- Update[T]{Value: v, Err: err, At: time.Now().UTC()}:
			case <-ctx.Done():
				return
			}
			timer.Reset(nextDelay(opts, failures))
		}
	}()

	return out
}

func nextDelay(opts Options, failures int) time.Duration {
	d := opts.Interval
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= opts.MaxBackoff {
			return opts.MaxBackoff
		}
	}
	return d
}

// PollFeed turns a keyed fetch into a Feed.
type PollFeed[T any] struct {
	fetch func(ctx context.Context, key string) (T, error)
	opts  Options
}

func NewPollFeed[T any](fetch func(ctx context.Context, key string) (T, error), opts Options) *PollFeed[T] {
	return &PollFeed[T]{fetch: fetch, opts: opts}
}

func (f *PollFeed[T]) Subscribe(ctx context.Context, key string) <-chan Update[T] {
	return Poll(ctx, func(ctx context.Context) (T, error) { return f.fetch(ctx, key) }, f.opts)
}

// Map converts the values of a feed.
func Map[T, U any](feed Feed[T], fn func(T) U) Feed[U] {
	return mapped[T, U]{feed: feed, fn: fn}
}

type mapped[T, U any] struct {
	feed Feed[T]
	fn   func(T) U
}

func (m mapped[T, U]) Subscribe(ctx context.Context, key string) <-chan Update[U] {
	in := m.feed.Subscribe(ctx, key)
	out := make(chan Update[U])
	go func() {
		defer close(out)
		for u := range in {
			var v U
			if u.Err == nil {
				v = m.fn(u.Value)
			}
			select {
			case out <- Update[U]{Value: v, Err: u.Err, At: u.At}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
