package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/llehouerou/shadow/internal/app"
	"github.com/llehouerou/shadow/internal/config"
	"github.com/llehouerou/shadow/internal/errmsg"
	"github.com/llehouerou/shadow/internal/mpris"
	"github.com/llehouerou/shadow/internal/notify"
	"github.com/llehouerou/shadow/internal/playback"
	"github.com/llehouerou/shadow/internal/player"
	"github.com/llehouerou/shadow/internal/progress"
	"github.com/llehouerou/shadow/internal/session"
	"github.com/llehouerou/shadow/internal/state"
	"github.com/llehouerou/shadow/internal/stderr"
	"github.com/llehouerou/shadow/internal/tts"
)

const (
	appName     = "shadow"
	appIdentity = "Shadow"
)

var errNoCollection = errors.New("no collection given: pass a file or set collection in config.toml")

// startupError names the step that failed so main can report it.
type startupError struct {
	op      errmsg.Op
	context string
	err     error
}

func (e *startupError) Error() string { return errmsg.FormatWith(e.op, e.context, e.err) }

func (e *startupError) Unwrap() error { return e.err }

// services holds everything opened at startup, closed in reverse order.
type services struct {
	log       *zap.Logger
	capture   *stderr.Capture
	store     *state.Manager
	player    *player.Player
	progress  *progress.Debouncer
	transport *mpris.Adapter
	ctrl      *playback.Controller
}

func (r *services) close() {
	if r.ctrl != nil {
		_ = r.ctrl.Close()
	}
	if r.progress != nil {
		_ = r.progress.Close()
	}
	if r.player != nil {
		r.player.Close()
	}
	if r.transport != nil {
		_ = r.transport.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
	r.capture.Stop()
	if r.log != nil {
		_ = r.log.Sync()
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	path := cfg.Log.Path
	if path == "" {
		var err error
		path, err = xdg.StateFile(appName + "/" + appName + ".log")
		if err != nil {
			return nil, err
		}
	}
	level, err := zapcore.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	return zc.Build()
}

func collectionPath(cfg *config.Config) (string, error) {
	if len(os.Args) > 1 {
		return os.Args[1], nil
	}
	if cfg.Collection != "" {
		return cfg.Collection, nil
	}
	return "", errNoCollection
}

func initialModel(r *services) (app.Model, error) {
	cfg, err := config.Load()
	if err != nil {
		return app.Model{}, err
	}
	path, err := collectionPath(cfg)
	if err != nil {
		return app.Model{}, err
	}

	if r.log, err = newLogger(cfg); err != nil {
		return app.Model{}, err
	}
	log := r.log

	// Must run before the audio device opens.
	if r.capture, err = stderr.Start(log); err != nil {
		log.Warn("stderr capture unavailable", zap.Error(err))
	}

	sess, err := session.Open(path, cfg.GetPresentationConfig(), log.Named("session"))
	if err != nil {
		return app.Model{}, &startupError{op: errmsg.OpCollectionLoad, context: path, err: err}
	}
	coll := sess.Collection()
	log.Info("opened collection",
		zap.String("path", path),
		zap.String("id", coll.ID),
		zap.Int("phrases", len(coll.Phrases)))

	progressCfg := cfg.GetProgressConfig()
	if r.store, err = state.Open(progressCfg.DBPath); err != nil {
		return app.Model{}, err
	}
	ctx := context.Background()
	var warning string
	history, err := r.store.GetProgress(ctx, coll.ID)
	if err != nil {
		log.Warn("loading progress failed", zap.String("collection", coll.ID), zap.Error(err))
		warning = errmsg.Format(errmsg.OpProgressLoad, err)
	}

	r.player = player.New(player.WithLogger(log.Named("player")))
	if v, err := r.store.GetVolume(ctx); err != nil {
		log.Warn("loading volume failed", zap.Error(err))
		r.player.SetVolume(cfg.GetInitialVolume())
	} else if v != nil {
		r.player.SetVolume(v.Volume)
		r.player.SetMuted(v.Muted)
	} else {
		r.player.SetVolume(cfg.GetInitialVolume())
	}

	notifier, err := notify.New(appName)
	if err != nil {
		return app.Model{}, err
	}
	opts := progress.Options{
		CollectionID:   coll.ID,
		ItemType:       coll.ItemType,
		Quiet:          progressCfg.DebounceQuiet(),
		MilestoneEvery: progressCfg.MilestoneEvery,
		OnMilestone:    notify.NewMilestones(notifier, appIdentity, log.Named("notify")).Announce,
		Logger:         log.Named("progress"),
	}
	if history != nil {
		opts.Viewed, opts.Listened = history.Viewed, history.Listened
	}
	r.progress = progress.NewDebouncer(r.store, opts)

	var transport playback.Transport = playback.NopTransport{}
	if r.transport, err = mpris.New(appName, appIdentity); err != nil {
		log.Warn("media controls unavailable", zap.Error(err))
		r.transport = nil
	} else {
		transport = r.transport
	}

	var synth playback.Synthesizer
	if cfg.HasTTSConfig() {
		synth = tts.New(tts.Config{
			URL:          cfg.TTS.URL,
			APIKey:       cfg.TTS.APIKey,
			Model:        cfg.TTS.Model,
			DefaultVoice: cfg.TTS.Voice,
			CacheDir:     cfg.TTS.CacheDir,
		}, tts.WithLogger(log.Named("tts")))
	}

	artwork := coll.Artwork
	if artwork == "" {
		artwork = mpris.FindArtwork(path)
	}
	reveal, promote := cfg.GetReplayConfig()
	r.ctrl = playback.New(r.player, sess, playback.Options{
		CollectionID: coll.ID,
		Album:        coll.Name,
		Artwork:      artwork,
		Transport:    transport,
		Synthesizer:  synth,
		Progress:     r.progress,
		Logger:       log.Named("playback"),
		RevealDelay:  reveal,
		PromoteDelay: promote,
	})

	return app.New(app.Deps{
		Remote:       r.ctrl.Remote(),
		Subscription: r.ctrl.Subscribe(),
		Host:         sess,
		Audio:        r.player,
		Store:        r.store,
		History:      history,
		Autoplay:     cfg.Autoplay,
		Warning:      warning,
		Logger:       log.Named("app"),
	}), nil
}

func main() {
	r := &services{}
	m, err := initialModel(r)
	if err != nil {
		r.close()
		var se *startupError
		if errors.As(err, &se) {
			fmt.Println(se.Error())
		} else {
			fmt.Println(errmsg.Format(errmsg.OpInitialize, err))
		}
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	r.close()
	if err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
