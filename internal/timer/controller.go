package timer

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/drawdash/drawdash-client/internal/words"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWordSelecting
	PhaseDrawing
)

func (p Phase) String() string {
	switch p {
	case PhaseWordSelecting:
		return "word-selecting"
	case PhaseDrawing:
		return "drawing"
	default:
		return "idle"
	}
}

const (
	// WordOfferSize options are sampled per turn without replacement.
	WordOfferSize = 3
	// WordSelectTicks one-second ticks before the first option is forced.
	WordSelectTicks = 10

	tickPeriod = time.Second
)

// Hooks are the controller's outputs. They are invoked without internal
// locks held, from timer goroutines or the caller's goroutine.
type Hooks struct {
	// OnWordChosen fires exactly once per drawer turn, for the explicit pick
	// or the forced first option. The owner sends it to the backend.
	OnWordChosen func(word string)
	// OnTick reports display countdown updates.
	OnTick func(phase Phase, remaining int)
	// OnRoundTimerExpired is display-only; the backend remains the sole
	// authority for ending a round.
	OnRoundTimerExpired func()
}

// Controller is the per-turn state machine: Idle -> WordSelecting -> Drawing
// -> Idle. Transitions cancel the countdown they supersede before arming the
// next one.
type Controller struct {
	mu sync.Mutex

	phase    Phase
	isDrawer bool
	options  []string
	word     string // revealed word; empty while masked
	selected bool

	selectCd *Countdown
	roundCd  *Countdown

	rng   *rand.Rand
	hooks Hooks
	log   zerolog.Logger
}

func NewController(hooks Hooks, rng *rand.Rand, log zerolog.Logger) *Controller {
	return NewControllerWithTicker(hooks, rng, log, RealTicker)
}

func NewControllerWithTicker(hooks Hooks, rng *rand.Rand, log zerolog.Logger, f TickerFactory) *Controller {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Controller{
		selectCd: NewCountdown(f),
		roundCd:  NewCountdown(f),
		rng:      rng,
		hooks:    hooks,
		log:      log,
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Word returns the revealed word for this turn, empty while masked.
func (c *Controller) Word() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.word
}

// Options returns the words offered to the local drawer.
func (c *Controller) Options() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.options...)
}

func (c *Controller) SelectRemaining() int { return c.selectCd.Remaining() }
func (c *Controller) RoundRemaining() int  { return c.roundCd.Remaining() }

// BeginSelection enters WordSelecting for the local drawer: sample the word
// offer and arm the selection countdown. Entered only from Idle; a repeat
// call while already selecting is a no-op.
func (c *Controller) BeginSelection() []string {
	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return nil
	}
	c.phase = PhaseWordSelecting
	c.isDrawer = true
	c.selected = false
	c.word = ""
	c.options = words.Sample(c.rng, WordOfferSize)
	opts := append([]string(nil), c.options...)
	c.mu.Unlock()

	c.log.Debug().Strs("options", opts).Msg("word selection started")
	c.selectCd.Start(WordSelectTicks, tickPeriod,
		func(rem int) { c.tick(PhaseWordSelecting, rem) },
		c.selectionExpired)
	return opts
}

// Select is the drawer's explicit pick. Only valid while WordSelecting and
// only once; later calls are no-ops. The word must be one of the offered
// options.
func (c *Controller) Select(word string, roundDuration uint32) bool {
	c.mu.Lock()
	if c.phase != PhaseWordSelecting || !c.isDrawer || c.selected {
		c.mu.Unlock()
		return false
	}
	valid := false
	for _, o := range c.options {
		if o == word {
			valid = true
			break
		}
	}
	if !valid {
		c.mu.Unlock()
		return false
	}
	c.selected = true
	c.mu.Unlock()

	c.commitWord(word, roundDuration)
	return true
}

// selectionExpired force-selects the first offered option when the countdown
// reaches zero before the drawer picked.
func (c *Controller) selectionExpired() {
	c.mu.Lock()
	if c.phase != PhaseWordSelecting || c.selected || len(c.options) == 0 {
		c.mu.Unlock()
		return
	}
	c.selected = true
	word := c.options[0]
	c.mu.Unlock()

	c.log.Info().Str("word", word).Msg("selection countdown expired, forcing first option")
	c.commitWord(word, 0)
}

// commitWord finishes WordSelecting: cancel its countdown, report the choice,
// and start the round countdown when the duration is known.
func (c *Controller) commitWord(word string, roundDuration uint32) {
	c.selectCd.Stop()

	c.mu.Lock()
	c.phase = PhaseDrawing
	c.word = word
	c.mu.Unlock()

	if c.hooks.OnWordChosen != nil {
		c.hooks.OnWordChosen(word)
	}
	if roundDuration > 0 {
		c.startRoundCountdown(roundDuration)
	}
}

// EnterDrawing is the observer path: a word-selected notification skips
// WordSelecting entirely. word is empty unless the payload revealed it.
func (c *Controller) EnterDrawing(word string, roundDuration uint32) {
	c.selectCd.Stop()

	c.mu.Lock()
	alreadyDrawing := c.phase == PhaseDrawing
	c.phase = PhaseDrawing
	if word != "" || !alreadyDrawing {
		c.word = word
	}
	if !alreadyDrawing {
		c.isDrawer = false
		c.selected = false
	}
	c.mu.Unlock()

	if !alreadyDrawing && roundDuration > 0 {
		c.startRoundCountdown(roundDuration)
	}
}

// StartRoundCountdown (re)arms the visual round timer. Used by the drawer
// path once the room's configured duration is known.
func (c *Controller) StartRoundCountdown(roundDuration uint32) {
	c.mu.Lock()
	drawing := c.phase == PhaseDrawing
	c.mu.Unlock()
	if drawing {
		c.startRoundCountdown(roundDuration)
	}
}

func (c *Controller) startRoundCountdown(roundDuration uint32) {
	c.roundCd.Start(int(roundDuration), tickPeriod,
		func(rem int) { c.tick(PhaseDrawing, rem) },
		func() {
			// Display-only: the round ends when the server says so.
			if c.hooks.OnRoundTimerExpired != nil {
				c.hooks.OnRoundTimerExpired()
			}
		})
}

// RoundEnded returns to Idle on server round results: both countdowns are
// cancelled and turn-local state is cleared. The owner clears the canvas and
// shows the transient results overlay.
func (c *Controller) RoundEnded() {
	c.selectCd.Stop()
	c.roundCd.Stop()

	c.mu.Lock()
	c.phase = PhaseIdle
	c.isDrawer = false
	c.selected = false
	c.word = ""
	c.options = nil
	c.mu.Unlock()
}

// Reset is RoundEnded plus nothing else; alias used on teardown and terminal
// transitions so timers can never outlive the owning view.
func (c *Controller) Reset() { c.RoundEnded() }

func (c *Controller) tick(phase Phase, remaining int) {
	if c.hooks.OnTick != nil {
		c.hooks.OnTick(phase, remaining)
	}
}
