package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/tm",
		LogDir:  "/home/user/.local/share/tm/log",
		Store: StoreConfig{
			Type:         "filesystem",
			Path:         "/home/user/.local/share/tm/tm.json",
			SeedPassword: "changez-moi",
		},
		Sync:  SyncConfig{IntervalSeconds: 30},
		Audit: AuditConfig{Type: "sqlite", DataDir: "/home/user/.local/share/tm"},
		Mirror: MirrorConfig{
			Type:     "s3",
			Name:     "offsite",
			S3Bucket: "tm-snapshots",
			S3Prefix: "prod/",
			S3Region: "eu-west-1",
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  "/home/user/.local/share/tm/keys/tm.pub",
			PrivateKeyPath: "/home/user/.local/share/tm/keys/tm.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Store.Type != "filesystem" {
		t.Errorf("Store.Type = %q, want %q", got.Store.Type, "filesystem")
	}
	if got.Store.Path != original.Store.Path {
		t.Errorf("Store.Path = %q, want %q", got.Store.Path, original.Store.Path)
	}
	if got.Store.SeedPassword != "changez-moi" {
		t.Errorf("Store.SeedPassword = %q, want %q", got.Store.SeedPassword, "changez-moi")
	}
	if got.Sync.IntervalSeconds != 30 {
		t.Errorf("Sync.IntervalSeconds = %d, want 30", got.Sync.IntervalSeconds)
	}
	if got.Audit.Type != "sqlite" {
		t.Errorf("Audit.Type = %q, want %q", got.Audit.Type, "sqlite")
	}
	if got.Mirror.Type != "s3" {
		t.Errorf("Mirror.Type = %q, want %q", got.Mirror.Type, "s3")
	}
	if got.Mirror.S3Bucket != "tm-snapshots" {
		t.Errorf("Mirror.S3Bucket = %q, want %q", got.Mirror.S3Bucket, "tm-snapshots")
	}
	if got.Encryption.PublicKeyPath != original.Encryption.PublicKeyPath {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", got.Encryption.PublicKeyPath, original.Encryption.PublicKeyPath)
	}
	if got.Encryption.PrivateKeyPath != original.Encryption.PrivateKeyPath {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", got.Encryption.PrivateKeyPath, original.Encryption.PrivateKeyPath)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/tm")

	if cfg.BaseDir != "/data/tm" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/tm")
	}
	if cfg.LogDir != "/data/tm/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/tm/log")
	}
	if cfg.Store.Type != "filesystem" {
		t.Errorf("Store.Type = %q, want %q", cfg.Store.Type, "filesystem")
	}
	if cfg.Store.Path != "/data/tm/tm.json" {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, "/data/tm/tm.json")
	}
	if cfg.Sync.IntervalSeconds != 10 {
		t.Errorf("Sync.IntervalSeconds = %d, want 10", cfg.Sync.IntervalSeconds)
	}
	if cfg.Audit.Type != "sqlite" {
		t.Errorf("Audit.Type = %q, want %q", cfg.Audit.Type, "sqlite")
	}
	if cfg.Encryption.PublicKeyPath != "/data/tm/keys/tm.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/tm/keys/tm.pub")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/tm/keys/tm.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/tm/keys/tm.key")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tm.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tm.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tm.toml")
		cfg := NewConfig(dir)
		cfg.Audit = AuditConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Audit.Type != "memory" {
			t.Errorf("Audit.Type = %q, want %q", got.Audit.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/tm.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
