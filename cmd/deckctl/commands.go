package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/flokli/deckctl"
	"github.com/flokli/deckctl/animation"
	"github.com/flokli/deckctl/button"
)

func run(ctx context.Context, client *deckctl.Client, command string, args []string) error {
	// Animations and scripts outlive the per-command timeout.
	switch command {
	case "flash", "fade", "rainbow":
		return runAnimation(ctx, client, command, args)
	case "script":
		return runScript(ctx, client, args)
	}

	cctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	switch command {
	case "press", "down", "up", "rotate-left", "rotate-right":
		if len(args) != 1 {
			return fmt.Errorf("%s expects a page/row/column address", command)
		}
		addr, err := button.ParseAddress(args[0])
		if err != nil {
			return err
		}
		switch command {
		case "press":
			return client.Press(cctx, addr)
		case "down":
			return client.Down(cctx, addr)
		case "up":
			return client.Up(cctx, addr)
		case "rotate-left":
			return client.RotateLeft(cctx, addr)
		default:
			return client.RotateRight(cctx, addr)
		}

	case "style":
		if len(args) < 2 {
			return fmt.Errorf("style expects an address and key=value fields")
		}
		addr, err := button.ParseAddress(args[0])
		if err != nil {
			return err
		}
		style, err := parseStyleArgs(args[1:])
		if err != nil {
			return err
		}
		return client.SetStyle(cctx, addr, style)

	case "preset":
		if len(args) < 2 {
			return fmt.Errorf("preset expects an address and a preset name")
		}
		addr, err := button.ParseAddress(args[0])
		if err != nil {
			return err
		}
		preset, ok := button.Preset(args[1])
		if !ok {
			return fmt.Errorf("unknown preset %q, have %s", args[1], strings.Join(button.PresetNames(), ", "))
		}
		override, err := parseStyleArgs(args[2:])
		if err != nil {
			return err
		}
		return client.SetStyle(cctx, addr, preset.Merge(override))

	case "var":
		switch len(args) {
		case 1:
			value, err := client.CustomVariable(cctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		case 2:
			return client.SetCustomVariable(cctx, args[0], args[1])
		default:
			return fmt.Errorf("var expects a name and an optional value")
		}

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func runAnimation(ctx context.Context, client *deckctl.Client, command string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%s expects a page/row/column address", command)
	}
	addr, err := button.ParseAddress(args[0])
	if err != nil {
		return err
	}
	a, err := parseAnimArgs(args[1:])
	if err != nil {
		return err
	}

	b := client.ButtonAt(addr)
	if a.from != "" {
		b = b.Background(a.from)
	}

	var handle *deckctl.AnimationHandle
	switch command {
	case "flash":
		handle, err = b.Flash(animation.FlashOptions{
			Color:     a.color,
			Intervals: a.intervals,
			Duration:  a.duration,
			Loop:      a.loop,
		})
	case "fade":
		handle, err = b.Fade(animation.FadeOptions{
			To:       a.color,
			Duration: a.duration,
			Loop:     a.loop,
		})
	case "rainbow":
		handle, err = b.HueRotate(animation.HueRotateOptions{
			Duration: a.duration,
			Loop:     a.loop,
		})
	}
	if err != nil {
		return err
	}
	defer handle.Stop()

	if a.loop {
		<-ctx.Done()
		return nil
	}

	// Non-looping animations retire themselves once they have sent
	// their final frame.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if client.ActiveAnimations() == 0 {
				return nil
			}
		}
	}
}

// runScript executes commands from a file, or stdin when no file is
// given. Lines are tokenized like a shell, blank lines and lines
// starting with # are skipped.
func runScript(ctx context.Context, client *deckctl.Client, args []string) error {
	in := os.Stdin
	name := "stdin"
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("unable to open script: %w", err)
		}
		defer f.Close()
		in = f
		name = args[0]
	}

	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields, err := shlex.Split(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
		if len(fields) == 0 {
			continue
		}
		if err := scriptCommand(ctx, client, fields); err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func scriptCommand(ctx context.Context, client *deckctl.Client, fields []string) error {
	switch fields[0] {
	case "sleep":
		if len(fields) != 2 {
			return fmt.Errorf("sleep expects a duration")
		}
		d, err := time.ParseDuration(fields[1])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", fields[1], err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
		return nil
	case "script":
		return fmt.Errorf("scripts cannot nest")
	}
	return run(ctx, client, fields[0], fields[1:])
}

func parseStyleArgs(args []string) (button.Style, error) {
	var style button.Style
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return style, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch key {
		case "text":
			style = style.WithText(value)
		case "bgcolor":
			style = style.WithBackground(value)
		case "color":
			style = style.WithTextColor(value)
		case "size":
			n, err := strconv.Atoi(value)
			if err != nil {
				return style, fmt.Errorf("invalid size %q: %w", value, err)
			}
			style = style.WithFontSize(n)
		default:
			return style, fmt.Errorf("unknown style field %q", key)
		}
	}
	return style, nil
}

type animArgs struct {
	color     string
	from      string
	intervals int
	duration  time.Duration
	loop      bool
}

func parseAnimArgs(args []string) (animArgs, error) {
	a := animArgs{duration: time.Second}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return a, fmt.Errorf("expected key=value, got %q", arg)
		}
		var err error
		switch key {
		case "color":
			a.color = value
		case "from":
			a.from = value
		case "intervals":
			a.intervals, err = strconv.Atoi(value)
		case "duration":
			a.duration, err = time.ParseDuration(value)
		case "loop":
			a.loop, err = strconv.ParseBool(value)
		default:
			return a, fmt.Errorf("unknown animation option %q", key)
		}
		if err != nil {
			return a, fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
	}
	return a, nil
}
