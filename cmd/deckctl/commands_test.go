package main

import (
	"testing"
	"time"
)

func TestParseStyleArgs(t *testing.T) {
	style, err := parseStyleArgs([]string{"text=CAM 1", "bgcolor=ff0000", "color=#FFFFFF", "size=18"})
	if err != nil {
		t.Fatal(err)
	}
	if *style.Text != "CAM 1" {
		t.Errorf("Text = %q", *style.Text)
	}
	if *style.BackgroundColor != "#FF0000" {
		t.Errorf("BackgroundColor = %q", *style.BackgroundColor)
	}
	if *style.TextColor != "#FFFFFF" {
		t.Errorf("TextColor = %q", *style.TextColor)
	}
	if *style.FontSize != 18 {
		t.Errorf("FontSize = %d", *style.FontSize)
	}

	for _, args := range [][]string{
		{"text"},
		{"brightness=7"},
		{"size=huge"},
	} {
		if _, err := parseStyleArgs(args); err == nil {
			t.Errorf("args %v accepted", args)
		}
	}
}

func TestParseAnimArgs(t *testing.T) {
	a, err := parseAnimArgs(nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.duration != time.Second {
		t.Errorf("default duration = %s", a.duration)
	}

	a, err = parseAnimArgs([]string{"color=#FF0000", "from=#000000", "intervals=3", "duration=250ms", "loop=true"})
	if err != nil {
		t.Fatal(err)
	}
	if a.color != "#FF0000" || a.from != "#000000" || a.intervals != 3 {
		t.Errorf("parsed %+v", a)
	}
	if a.duration != 250*time.Millisecond || !a.loop {
		t.Errorf("parsed %+v", a)
	}

	for _, args := range [][]string{
		{"duration=fast"},
		{"loop=sometimes"},
		{"speed=11"},
	} {
		if _, err := parseAnimArgs(args); err == nil {
			t.Errorf("args %v accepted", args)
		}
	}
}
