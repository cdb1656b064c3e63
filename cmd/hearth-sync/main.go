// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// hearth-sync is the headless sync daemon: it drives the continuous
// sync loop against the configured homeserver, applies the resulting
// deltas to an in-memory room store, and persists the session snapshot
// so restarts resume from the last sync position.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hearth-im/hearth/cache"
	"github.com/hearth-im/hearth/lib/clock"
	"github.com/hearth-im/hearth/lib/config"
	"github.com/hearth-im/hearth/lib/secret"
	"github.com/hearth-im/hearth/messaging"
	"github.com/hearth-im/hearth/model"
	"github.com/hearth-im/hearth/syncer"
)

// snapshotInterval throttles cache writes during steady-state syncing.
// The snapshot is also written on the initial sync and at shutdown.
const snapshotInterval = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", "",
		"path to the hearth.yaml config file (defaults to $HEARTH_CONFIG)")
	logLevel := pflag.String("log-level", "",
		"override the configured log level (debug, info, warn, error)")
	resetCache := pflag.Bool("reset-cache", false,
		"discard the session cache and start with a fresh initial sync")
	pflag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	token, err := secret.ReadFromPath(cfg.TokenFile)
	if err != nil {
		return fmt.Errorf("reading access token: %w", err)
	}

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.HomeserverURL,
	})
	if err != nil {
		token.Close()
		return err
	}
	session := client.SessionFromToken(cfg.UserID, token)
	defer session.Close()

	whoami, err := session.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("verifying access token: %w",
			errors.New(messaging.RedactAccessToken(err.Error())))
	}
	if whoami.UserID != cfg.UserID {
		return fmt.Errorf("access token belongs to %s, config says %s", whoami.UserID, cfg.UserID)
	}

	if *resetCache {
		if err := cache.Destroy(cfg.CachePath); err != nil {
			return err
		}
		logger.Info("session cache discarded", "path", cfg.CachePath)
	}

	store := model.NewStore(logger)
	since := restoreSnapshot(cfg, store, logger)

	daemon := &daemon{
		store:     store,
		config:    cfg,
		clock:     clock.Real(),
		logger:    logger,
		deviceID:  session.DeviceID(),
		lastToken: since,
	}

	driver := syncer.NewDriver(syncer.DriverConfig{
		Session:  session,
		UserID:   cfg.MatrixUserID(),
		LongPoll: cfg.LongPoll(),
		Clock:    daemon.clock,
		Logger:   logger,
	})
	loop := syncer.NewLoop(syncer.LoopConfig{
		Driver:       driver,
		Handler:      daemon.handleResult,
		ErrorHandler: daemon.handleFailure,
		Logger:       logger,
	})

	logger.Info("hearth-sync running",
		"homeserver", cfg.HomeserverURL,
		"user", cfg.UserID,
		"initial_sync", since == "",
		"long_poll", cfg.LongPoll())

	finalToken := loop.Run(ctx, since)

	logger.Info("shutting down", "rooms", store.Len())
	daemon.saveSnapshot(finalToken)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel}))
}

// daemon holds the runtime state shared by the sync loop callbacks.
// All callbacks run on the loop goroutine, so no locking is needed
// beyond the store's own.
type daemon struct {
	store    *model.Store
	config   *config.Config
	clock    clock.Clock
	logger   *slog.Logger
	deviceID string

	lastToken  string
	lastSaved  time.Time
	failStreak uint32
}

// restoreSnapshot loads the persisted session, seeds the store with
// the cached room summaries, and returns the sync token to resume
// from. Any problem with the cache degrades to a fresh initial sync.
func restoreSnapshot(cfg *config.Config, store *model.Store, logger *slog.Logger) string {
	snapshot, err := cache.Load(cfg.CachePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("ignoring unreadable session cache", "path", cfg.CachePath, "error", err)
		}
		return ""
	}

	if snapshot.UserID.String() != cfg.UserID || snapshot.HomeserverURL != cfg.HomeserverURL {
		logger.Warn("session cache belongs to a different account; starting fresh",
			"cached_user", snapshot.UserID, "cached_homeserver", snapshot.HomeserverURL)
		return ""
	}

	rooms := make([]syncer.Room, 0, len(snapshot.Rooms))
	for _, record := range snapshot.Rooms {
		rooms = append(rooms, syncer.Room{
			ID:        record.ID,
			Name:      record.Name,
			Topic:     record.Topic,
			AvatarURL: record.AvatarURL,
			Tag:       record.Tag,
			PrevBatch: record.PrevBatch,
		})
	}
	store.ReplaceAll(rooms)

	logger.Info("session restored from cache",
		"rooms", len(rooms), "saved_at", time.UnixMilli(snapshot.SavedAt))
	return snapshot.SinceToken
}

// handleResult applies one successful sync to the store and persists
// the snapshot, throttled to snapshotInterval during steady state.
func (d *daemon) handleResult(result *syncer.Result) {
	initial := result.Updates == nil
	if initial {
		d.store.ReplaceAll(result.Rooms)
		d.logger.Info("initial sync complete", "rooms", len(result.Rooms))
	} else {
		d.store.Apply(result.Updates)
		d.logger.Debug("sync batch applied",
			"rooms_touched", len(result.Rooms),
			"elements", len(result.Updates.NewEvents))
	}

	d.failStreak = 0
	d.lastToken = result.NextBatch

	now := d.clock.Now()
	if initial || d.lastSaved.IsZero() || now.Sub(d.lastSaved) >= snapshotInterval {
		d.saveSnapshot(result.NextBatch)
		d.lastSaved = now
	}
}

// handleFailure surfaces repeated sync failures. The loop retries
// regardless; this is the "last sync failed N times" signal.
func (d *daemon) handleFailure(syncErr *syncer.SyncError) {
	d.failStreak = syncErr.Attempt + 1
	if d.failStreak%5 == 0 {
		d.logger.Error("sync failing repeatedly", "consecutive_failures", d.failStreak)
	}
}

func (d *daemon) saveSnapshot(sinceToken string) {
	rooms := d.store.Rooms()
	records := make([]cache.RoomRecord, 0, len(rooms))
	for _, room := range rooms {
		records = append(records, cache.RoomRecord{
			ID:        room.ID,
			Name:      room.Name,
			Topic:     room.Topic,
			AvatarURL: room.AvatarURL,
			Tag:       room.Tag,
			PrevBatch: room.PrevBatch,
		})
	}

	snapshot := &cache.Snapshot{
		UserID:        d.config.MatrixUserID(),
		DeviceID:      d.deviceID,
		HomeserverURL: d.config.HomeserverURL,
		SinceToken:    sinceToken,
		SavedAt:       d.clock.Now().UnixMilli(),
		Rooms:         records,
	}
	if err := cache.Save(d.config.CachePath, snapshot); err != nil {
		d.logger.Error("saving session cache", "error", err)
	}
}
