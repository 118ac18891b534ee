package reverb

import (
	"fmt"
	"math/rand/v2"
)

const (
	defaultChannels  = 8
	defaultDiffusers = 4
)

type config struct {
	channels      int
	diffusers     int
	rng           *rand.Rand
	denormalGuard bool
}

func defaultConfig() config {
	return config{
		channels:      defaultChannels,
		diffusers:     defaultDiffusers,
		denormalGuard: true,
	}
}

// Option configures a reverb engine.
type Option func(*config) error

// WithChannels sets the internal channel count of a [LuffVerb]
// (default 8). The count must be a power of two, which the Hadamard
// diffusion stage requires.
func WithChannels(n int) Option {
	return func(cfg *config) error {
		if n <= 0 || n&(n-1) != 0 {
			return fmt.Errorf("reverb: channel count must be a power of two: %d", n)
		}

		cfg.channels = n

		return nil
	}
}

// WithDiffusers sets the number of cascaded diffuser stages of a
// [LuffVerb] (default 4). More stages build echo density faster.
func WithDiffusers(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("reverb: diffuser count must be >= 1: %d", n)
		}

		cfg.diffusers = n

		return nil
	}
}

// WithRNG sets a deterministic random number generator for reproducible
// delay-length selection and dither seeding.
func WithRNG(rng *rand.Rand) Option {
	return func(cfg *config) error {
		cfg.rng = rng
		return nil
	}
}

// WithDenormalGuard enables or disables the [Galactic] denormal
// protection (default enabled): near-zero inputs are replaced with a tiny
// dither-derived value, and an exponent-scaled dither is added to the
// output to avoid bit-pattern lock at very low levels. Both exist for
// hardware with a denormal penalty; targets without one may turn the
// guard off for a bit-exact dry path and a true zero noise floor.
func WithDenormalGuard(enabled bool) Option {
	return func(cfg *config) error {
		cfg.denormalGuard = enabled
		return nil
	}
}

func applyOptions(opts []Option) (config, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return config{}, err
		}
	}

	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return cfg, nil
}
