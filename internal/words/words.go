// Package words holds the fixed pool the drawer's word offer is sampled from.
package words

import "math/rand"

var pool = []string{
	"apple", "anchor", "balloon", "banana", "beach", "bicycle", "bridge",
	"butterfly", "cactus", "camera", "candle", "castle", "caterpillar",
	"cloud", "compass", "crayon", "crown", "dolphin", "dragon", "drum",
	"eagle", "elephant", "feather", "fireworks", "flamingo", "fountain",
	"giraffe", "guitar", "hammer", "helicopter", "igloo", "island",
	"jellyfish", "kangaroo", "kite", "ladder", "lighthouse", "magnet",
	"mermaid", "microscope", "mountain", "mushroom", "octopus", "owl",
	"parachute", "penguin", "piano", "pirate", "pyramid", "rainbow",
	"robot", "rocket", "sandcastle", "scarecrow", "snowman", "spider",
	"submarine", "telescope", "tornado", "treasure", "umbrella", "unicorn",
	"volcano", "waterfall", "windmill", "wizard",
}

// PoolSize is exposed for tests and for sanity-checking sample sizes.
func PoolSize() int { return len(pool) }

// Contains reports whether w is in the pool.
func Contains(w string) bool {
	for _, p := range pool {
		if p == w {
			return true
		}
	}
	return false
}

// Sample draws n distinct words from the pool using rng. n is clamped to the
// pool size.
func Sample(rng *rand.Rand, n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}
	idx := rng.Perm(len(pool))[:n]
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}
