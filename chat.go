package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ivy-assistant/server/internal/agent/bot"
	"github.com/ivy-assistant/server/internal/agent/model"
	"github.com/ivy-assistant/server/internal/agent/repo"
)

// demoTurns covers a weather request with slot filling, a news request and jokes.
var demoTurns = []string{
	"What is the weather today?",
	"Belgium",
	"Brussels",
	"What about tomorrow?",
	"What is the latest news?",
	"Tell me a joke",
	"Another One",
	"Another One",
}

func ids() (string, string) {
	conv, user := conversationID, userID
	if conv == "" {
		conv = uuid.NewString()
	}
	if user == "" {
		user = uuid.NewString()
	}
	return conv, user
}

// parsePosition reads a "lat,lon" pair. An empty string means no position.
func parsePosition(s string) (*model.GeoPoint, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	latText, lonText, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("position %q: want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("position %q: invalid latitude", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("position %q: invalid longitude", s)
	}
	return &model.GeoPoint{Lat: lat, Lon: lon}, nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	pos, err := parsePosition(position)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	runner, err := buildRunner(ctx, cfg, store)
	if err != nil {
		return err
	}

	conv, user := ids()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "conversation %s (ctrl-d to quit)\n", conv)

	if err := turn(ctx, out, runner, model.TurnInput{ConversationID: conv, UserID: user, Kind: model.TurnConversationUpdate}, true); err != nil {
		return err
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := turn(ctx, out, runner, model.TurnInput{ConversationID: conv, UserID: user, Text: text, Position: pos}, true); err != nil {
			return err
		}
	}
}

func runDemo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	runner, err := buildRunner(ctx, cfg, repo.NewMemoryStore())
	if err != nil {
		return err
	}

	conv, user := ids()
	out := cmd.OutOrStdout()
	if err := turn(ctx, out, runner, model.TurnInput{ConversationID: conv, UserID: user, Kind: model.TurnConversationUpdate}, false); err != nil {
		return err
	}
	for _, text := range demoTurns {
		fmt.Fprintf(out, "you> %s\n", text)
		if err := turn(ctx, out, runner, model.TurnInput{ConversationID: conv, UserID: user, Text: text}, false); err != nil {
			return err
		}
	}
	return nil
}

func turn(ctx context.Context, out io.Writer, runner bot.Runner, in model.TurnInput, delays bool) error {
	outcome, err := runner.Invoke(ctx, in)
	if err != nil {
		return fmt.Errorf("turn failed: %w", err)
	}
	for _, m := range outcome.Messages {
		if m.Kind == model.MessageDelay {
			if delays {
				time.Sleep(time.Duration(m.DelayMS) * time.Millisecond)
			}
			continue
		}
		render(out, m)
	}
	return nil
}

func render(out io.Writer, m model.Message) {
	switch m.Kind {
	case model.MessageSuggestions:
		if m.Text != "" {
			fmt.Fprintf(out, "ivy> %s\n", m.Text)
		}
		titles := make([]string, 0, len(m.Actions))
		for _, a := range m.Actions {
			titles = append(titles, "["+a.Title+"]")
		}
		fmt.Fprintf(out, "     %s\n", strings.Join(titles, " "))
	case model.MessageCard:
		renderCard(out, m.Card)
	default:
		fmt.Fprintf(out, "ivy> %s\n", m.Text)
	}
}

func renderCard(out io.Writer, c *model.Card) {
	if c == nil {
		return
	}
	switch c.Type {
	case model.CardForecast:
		f := c.Forecast
		if f == nil {
			return
		}
		fmt.Fprintf(out, "     ┌ %s, %s\n     │ %s %s\n", f.City, f.Date, f.Headline, f.Phrase)
		for _, p := range f.Periods {
			fmt.Fprintf(out, "     │ %-9s %g°C %s\n", p.Label, p.Temperature, p.Phrase)
		}
		fmt.Fprintln(out, "     └")
	case model.CardNewsCarousel:
		for i, n := range c.News {
			fmt.Fprintf(out, "     %d. %s\n        %s\n", i+1, n.Title, n.URL)
		}
	}
}
