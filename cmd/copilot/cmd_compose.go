package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/neutantr-dot/dual-narrative/internal/engine"
	"github.com/neutantr-dot/dual-narrative/internal/geometry"
	"github.com/neutantr-dot/dual-narrative/internal/sessionfile"
)

var composeFlags struct {
	actor          string
	userID         string
	actorWheel     string
	reflexWheel    string
	voice          []string
	domains        map[string]string
	voiceFile      string
	backgroundFile string
	storyFile      string
	version        string
	save           bool
	jsonOut        bool
}

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Build the reflex bundle and compose the dual narrative",
	RunE:  runCompose,
}

func init() {
	f := composeCmd.Flags()
	f.StringVar(&composeFlags.actor, "actor", "User", "actor identifier (Male, Female, ...)")
	f.StringVar(&composeFlags.userID, "user-id", "anonymous", "user id recorded in the session log")
	f.StringVar(&composeFlags.actorWheel, "actor-wheel", "", "actor wheel state (classification)")
	f.StringVar(&composeFlags.reflexWheel, "reflex-wheel", "", "reflex wheel state (transmission map)")
	f.StringArrayVar(&composeFlags.voice, "voice", nil, "voice input, repeat four times")
	f.StringToStringVar(&composeFlags.domains, "domain", nil, "wheel domain axis=value (blue, red, yellow, green, centre)")
	f.StringVar(&composeFlags.voiceFile, "voice-file", "", "transposed voice_input.txt")
	f.StringVar(&composeFlags.backgroundFile, "background-file", "", "transposed background.txt")
	f.StringVar(&composeFlags.storyFile, "story-file", "", "transposed storyline.txt written by --save")
	f.StringVar(&composeFlags.version, "version", "", "session version label to read (default latest)")
	f.BoolVar(&composeFlags.save, "save", false, "append this session as a new column to the session files")
	f.BoolVar(&composeFlags.jsonOut, "json", false, "output the result as JSON")
}

func runCompose(cmd *cobra.Command, _ []string) error {
	req := engine.Request{
		Actor:            composeFlags.actor,
		UserID:           composeFlags.userID,
		ActorWheelState:  composeFlags.actorWheel,
		ReflexWheelState: composeFlags.reflexWheel,
		VoiceInputs:      composeFlags.voice,
		WheelDomains:     composeFlags.domains,
	}
	if req.ActorWheelState == "" {
		req.ActorWheelState = req.ReflexWheelState
	}

	if composeFlags.voiceFile != "" {
		col, err := readColumn(composeFlags.voiceFile, composeFlags.version)
		if err != nil {
			return err
		}
		req.VoiceInputs = col
	}
	if composeFlags.backgroundFile != "" {
		col, err := readColumn(composeFlags.backgroundFile, composeFlags.version)
		if err != nil {
			return err
		}
		req.WheelDomains = geometry.Domains(col)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.Run(cmd.Context(), req)
	if errors.Is(err, engine.ErrMalformedInput) {
		fmt.Fprintln(cmd.ErrOrStderr(), res.Text)
		return err
	}
	if err != nil {
		return err
	}

	if composeFlags.save {
		if err := saveSession(req, res); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if composeFlags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintln(out, res.Text)
	return nil
}

// readColumn loads one version column from a transposed session file.
func readColumn(path, version string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	f := sessionfile.Parse(string(data))
	if version == "" {
		if col := f.Latest(); col != nil {
			return col, nil
		}
		return nil, fmt.Errorf("%s: no session versions", path)
	}
	return f.Column(version)
}

func saveSession(req engine.Request, res engine.Result) error {
	now := time.Now()
	layout := cfg.SessionLog.LabelLayout
	background := make([]string, len(geometry.Axes))
	for i, axis := range geometry.Axes {
		background[i] = req.WheelDomains[string(axis)]
	}

	targets := []struct {
		path   string
		values []string
	}{
		{composeFlags.voiceFile, req.VoiceInputs},
		{composeFlags.backgroundFile, background},
		{composeFlags.storyFile, strings.Split(res.Text, "\n")},
	}
	for _, t := range targets {
		if t.path == "" {
			continue
		}
		if err := sessionfile.AppendToFile(t.path, sessionfile.NewColumn(layout, now, t.values)); err != nil {
			return err
		}
	}
	return nil
}
