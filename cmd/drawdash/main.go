package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/drawdash/drawdash-client/internal/game"
	"github.com/drawdash/drawdash-client/internal/timer"
	"github.com/drawdash/drawdash-client/internal/wire"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("drawdash", flag.ContinueOnError)
	var (
		apiFlag      = fs.String("api", "", "backend HTTP base URL")
		wsFlag       = fs.String("ws", "", "backend websocket URL")
		nameFlag     = fs.String("name", "", "display name")
		joinFlag     = fs.String("join", "", "room code to join")
		createFlag   = fs.Bool("create", false, "create a new room")
		durationFlag = fs.Uint("duration", 60, "round duration in seconds (with --create)")
		resumeFlag   = fs.Bool("resume", false, "resume the persisted session")
		verboseFlag  = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := zerolog.InfoLevel
	if *verboseFlag {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(level)

	cfg, cfgPath, err := LoadConfig()
	if err != nil {
		log.Warn().Err(err).Str("path", cfgPath).Msg("config unreadable, using defaults")
	}
	if *apiFlag != "" {
		cfg.Server.API = *apiFlag
	}
	if *wsFlag != "" {
		cfg.Server.WS = *wsFlag
	}
	if *nameFlag != "" {
		cfg.Username = *nameFlag
	}

	if !*createFlag && *joinFlag == "" && !*resumeFlag {
		fmt.Fprintln(os.Stderr, "drawdash --create --name <you> [--duration 60]")
		fmt.Fprintln(os.Stderr, "drawdash --join <CODE> --name <you>")
		fmt.Fprintln(os.Stderr, "drawdash --resume")
		return 2
	}
	if (*createFlag || *joinFlag != "") && cfg.Username == "" {
		fmt.Fprintln(os.Stderr, "a display name is required (--name or config)")
		return 2
	}

	ui := &console{out: os.Stdout, quit: make(chan struct{})}
	client, err := game.NewClient(game.Config{
		APIBase: cfg.Server.API,
		WSURL:   cfg.Server.WS,
	}, ui.events(), log)
	if err != nil {
		log.Error().Err(err).Msg("client setup failed")
		return 1
	}
	defer client.Close()
	ui.client = client

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := client.Health(ctx); err != nil {
		log.Error().Err(err).Str("api", cfg.Server.API).Msg("backend unreachable")
		return 1
	}

	switch {
	case *createFlag:
		err = client.CreateRoom(ctx, cfg.Username, uint32(*durationFlag))
	case *joinFlag != "":
		err = client.JoinRoom(ctx, *joinFlag, cfg.Username)
	default:
		err = client.Resume(ctx)
	}
	if err != nil {
		log.Error().Err(err).Msg("could not enter room")
		return 1
	}

	if room := client.Room(); room != nil {
		ui.printf("in room %s as %s — type to chat, /help for commands", room.Code, client.Self().Username)
	}

	return ui.inputLoop(ctx)
}

// console is the thin presentation layer: it renders client events as lines
// and turns stdin lines into client actions.
type console struct {
	out      *os.File
	client   *game.Client
	quit     chan struct{}
	quitOnce sync.Once
}

func (c *console) signalQuit() {
	c.quitOnce.Do(func() { close(c.quit) })
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *console) events() game.Events {
	return game.Events{
		OnConnectivity: func(connected bool) {
			if connected {
				c.printf("* connected")
			} else {
				c.printf("* connection lost, retrying...")
			}
		},
		OnChat: func(e game.ChatEntry) {
			tag := ""
			if e.WinnersOnly {
				tag = " (winners)"
			}
			c.printf("[%s]%s %s", e.Username, tag, e.Message)
		},
		OnServerError: func(msg string) { c.printf("! %s", msg) },
		OnRoomUpdate: func(v game.RoomView) {
			if v.Phase == wire.GameWaiting {
				c.printf("* room %s — %d player(s), host %s", v.Code, len(v.Scoreboard.Rows), v.HostName)
			}
		},
		OnRoundStart: func(drawer wire.Player, isSelf bool) {
			if isSelf {
				c.printf("* your turn to draw!")
			} else {
				c.printf("* %s is drawing this round", drawer.Username)
			}
		},
		OnWordOffer: func(options []string, seconds int) {
			c.printf("* pick a word within %ds: %s (use /word <n>)", seconds, strings.Join(options, ", "))
		},
		OnWordSelected: func(word string, masked bool) {
			if masked {
				c.printf("* the round is on — guess in chat!")
			} else {
				c.printf("* word: %s", word)
			}
		},
		OnCorrectGuess: func(p wire.Player, word string) {
			c.printf("* %s guessed it!", p.Username)
		},
		OnTurnTick: func(phase timer.Phase, remaining int) {
			if remaining > 0 && remaining%10 == 0 {
				c.printf("* %s: %ds left", phase, remaining)
			}
		},
		OnRoundResults: func(v game.ResultsView) {
			c.printf("* round over — the word was %q", v.Word)
			for i, g := range v.Guessers {
				c.printf("  %d. %s +%d", i+1, g.Username, g.Points)
			}
			c.printf("  artist +%d (streak %d)", v.ArtistScore, v.ArtistStreak)
		},
		OnGameEnded: func(final game.ScoreboardView) {
			c.printf("* game over — final scores:")
			for i, r := range final.Rows {
				c.printf("  %d. %s %d", i+1, r.Username, r.Score)
			}
			c.signalQuit()
		},
		OnLeftRoom: func(reason string) {
			c.printf("* back to lobby (%s)", reason)
			c.signalQuit()
		},
	}
}

func (c *console) inputLoop(ctx context.Context) int {
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.client.Leave(context.Background())
			return 0
		case <-c.quit:
			return 0
		case line, ok := <-lines:
			if !ok {
				return 0
			}
			if c.handleLine(ctx, line) {
				return 0
			}
		}
	}
}

// handleLine returns true when the loop should exit.
func (c *console) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		c.client.SendChat(line)
		return false
	}

	cmd, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "help":
		c.printf("/start /word <n|word> /guess <word> /w <msg> /end /rounds <n> /board /leave /quit")
	case "start":
		c.client.StartGame()
	case "end":
		c.client.EndRound()
	case "word":
		c.selectWord(rest)
	case "guess":
		c.client.SendGuess(rest)
	case "w":
		c.client.SendWinnersChat(rest)
	case "rounds":
		if n, err := strconv.ParseUint(rest, 10, 32); err == nil {
			c.client.UpdateSettings(uint32(n))
		} else {
			c.printf("! usage: /rounds <1-5>")
		}
	case "board":
		c.printBoard()
	case "leave":
		if err := c.client.Leave(ctx); err != nil {
			c.printf("! %v", err)
		}
		return true
	case "quit":
		_ = c.client.Leave(ctx)
		return true
	default:
		c.printf("! unknown command /%s", cmd)
	}
	return false
}

func (c *console) selectWord(arg string) {
	if arg == "" {
		c.printf("! usage: /word <n|word>")
		return
	}
	word := arg
	if n, err := strconv.Atoi(arg); err == nil {
		opts := c.client.WordOptions()
		if n < 1 || n > len(opts) {
			c.printf("! no option %d", n)
			return
		}
		word = opts[n-1]
	}
	if !c.client.SelectWord(word) {
		c.printf("! cannot select %q now", word)
	}
}

func (c *console) printBoard() {
	room := c.client.Room()
	if room == nil {
		c.printf("! not in a room")
		return
	}
	view := c.client.View()
	c.printf("room %s — %s, cycle %d/%d", view.Code, view.Phase, view.CycleNumber, view.MaxRounds)
	for _, r := range view.Scoreboard.Rows {
		marks := ""
		if r.IsHost {
			marks += " (host)"
		}
		if r.IsDrawer {
			marks += " (drawing)"
		}
		c.printf("  %s %d%s", r.Username, r.Score, marks)
	}
}
