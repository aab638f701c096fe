package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"tm-go/internal/audit"
	"tm-go/internal/config"
	"tm-go/internal/encryption"
	"tm-go/internal/mirror"
	"tm-go/internal/store"
	"tm-go/internal/tm"
)

// App is the application layer between the CLI and the tm service. It
// constructs all dependencies from config and manages their lifecycle on
// Close.
type App struct {
	cfg       *config.Config
	service   *tm.Service
	syncer    *tm.Syncer
	mirror    tm.Mirror
	encryptor tm.Encryptor
	logFile   *os.File
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "UserCreate", "MirrorPush").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID+"/"+operation)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	clock := tm.RealClock{}
	idgen := tm.UUIDGenerator{}

	st, err := store.NewStoreFromConfig(cfg.Store, clock, idgen, log)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating store: %w", err)
	}

	auditor, err := audit.NewAuditorFromConfig(cfg.Audit)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating audit log: %w", err)
	}

	svc, err := tm.NewService(st, auditor, log, clock, idgen)
	if err != nil {
		auditor.Close()
		logFile.Close()
		return nil, fmt.Errorf("initializing service: %w", err)
	}

	mir, err := mirror.NewMirrorFromConfig(context.Background(), cfg.Mirror)
	if err != nil {
		svc.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating mirror: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		svc.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	interval := time.Duration(cfg.Sync.IntervalSeconds) * time.Second
	syncer := tm.NewSyncer(svc, interval, log)

	return &App{
		cfg:       cfg,
		service:   svc,
		syncer:    syncer,
		mirror:    mir,
		encryptor: enc,
		logFile:   logFile,
	}, nil
}

// Service returns the wired document service.
func (a *App) Service() *tm.Service { return a.service }

// Syncer returns the reconciliation loop driver.
func (a *App) Syncer() *tm.Syncer { return a.syncer }

// Encryptor returns the snapshot encryptor.
func (a *App) Encryptor() tm.Encryptor { return a.encryptor }

// Close releases the service (and its audit log) and the log file.
func (a *App) Close() error {
	err := a.service.Close()
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}

// PushSnapshot exports the document, encrypts it and uploads it to the
// configured mirror under a timestamped key. It returns the snapshot key.
func (a *App) PushSnapshot(ctx context.Context) (string, error) {
	if a.mirror == nil {
		return "", fmt.Errorf("no mirror configured")
	}
	if !a.encryptor.IsConfigured() {
		return "", fmt.Errorf("encryption keys not set up; run `tm config init` first")
	}

	data, err := a.service.Export()
	if err != nil {
		return "", fmt.Errorf("exporting document: %w", err)
	}

	var ciphertext bytes.Buffer
	if err := a.encryptor.Encrypt(bytes.NewReader(data), &ciphertext); err != nil {
		return "", fmt.Errorf("encrypting snapshot: %w", err)
	}

	key := time.Now().UTC().Format("20060102T150405Z") + ".json.age"
	if err := a.mirror.Put(ctx, key, &ciphertext); err != nil {
		return "", err
	}
	return key, nil
}

// PullSnapshot downloads the snapshot stored under key (the latest one when
// key is empty), decrypts it with the passphrase-unlocked private key and
// imports it, replacing the whole document.
func (a *App) PullSnapshot(ctx context.Context, key, passphrase string) (string, error) {
	if a.mirror == nil {
		return "", fmt.Errorf("no mirror configured")
	}

	if key == "" {
		latest, err := a.mirror.Latest(ctx)
		if err != nil {
			return "", err
		}
		if latest == "" {
			return "", fmt.Errorf("mirror is empty")
		}
		key = latest
	}

	dctx, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return "", fmt.Errorf("unlocking private key: %w", err)
	}

	var ciphertext bytes.Buffer
	if err := a.mirror.Get(ctx, key, &ciphertext); err != nil {
		return "", err
	}

	var plaintext bytes.Buffer
	if err := dctx.Decrypt(&ciphertext, &plaintext); err != nil {
		return "", fmt.Errorf("decrypting snapshot: %w", err)
	}

	if err := a.service.Import(plaintext.Bytes()); err != nil {
		return "", err
	}
	return key, nil
}

// ListSnapshots returns the snapshot keys on the configured mirror.
func (a *App) ListSnapshots(ctx context.Context) ([]string, error) {
	if a.mirror == nil {
		return nil, fmt.Errorf("no mirror configured")
	}
	return a.mirror.List(ctx)
}
