package infrastructure_test

import (
	"testing"

	"github.com/JaimeStill/clerk/internal/config"
	"github.com/JaimeStill/clerk/internal/infrastructure"
	"github.com/JaimeStill/clerk/pkg/database"
	"github.com/JaimeStill/clerk/pkg/events"
	"github.com/JaimeStill/clerk/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=clerkstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/clerkstore;"

func validConfig() *config.Config {
	return &config.Config{
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "clerk",
			User:            "clerk",
			Password:        "clerk",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			Provider:         storage.ProviderAzure,
			ContainerName:    "clerk",
			ConnectionString: azuriteConnString,
		},
		Sessions: config.SessionsConfig{
			Backend:          config.BackendLocal,
			Store:            config.StorePostgres,
			OperationTimeout: "2m",
		},
		Version: "0.1.0",
	}
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Database == nil {
		t.Error("Database is nil")
	}
	if infra.Storage == nil {
		t.Error("Storage is nil")
	}
	if infra.Metrics == nil {
		t.Error("Metrics is nil")
	}
	if _, ok := infra.Events.(events.Noop); !ok {
		t.Errorf("Events: got %T, want events.Noop without a NATS url", infra.Events)
	}
}

func TestNewDatabaseConnection(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := infra.Database.Connection()
	if conn == nil {
		t.Fatal("Database.Connection() returned nil")
	}
	conn.Close()
}

func TestNewMemoryStoreSkipsDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Sessions.Store = config.StoreMemory
	cfg.Storage = storage.Config{Provider: storage.ProviderMemory, ContainerName: "clerk"}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if infra.Database != nil {
		t.Error("Database should be nil for the memory session store")
	}
	if err := infra.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}

func TestNewInvalidStorageConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.ConnectionString = "not-a-connection-string"

	_, err := infrastructure.New(cfg)
	if err == nil {
		t.Fatal("expected error for invalid storage connection string")
	}
}
