package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/arunse/coursechat/pkg/adapter"
	"github.com/arunse/coursechat/pkg/index"
	"github.com/arunse/coursechat/pkg/model"
	"github.com/arunse/coursechat/pkg/repository"
	"github.com/arunse/coursechat/pkg/tool"
	"github.com/arunse/coursechat/pkg/usecase/chat"
	"github.com/arunse/coursechat/pkg/utils/logging"
)

// config holds configuration values
type config struct {
	logLevel string

	// Vector store
	chromaURL    string
	maxResults   int64
	embeddingDim int64

	// LLM
	geminiProject  string
	geminiLocation string
	maxRounds      int64

	// Repository
	firestoreProject  string
	firestoreDatabase string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("COURSECHAT_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// chromaFlags returns flags for the vector store
func chromaFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "chroma-url",
			Usage:       "ChromaDB server URL",
			Value:       "http://localhost:8000",
			Sources:     cli.EnvVars("COURSECHAT_CHROMA_URL"),
			Destination: &cfg.chromaURL,
		},
		&cli.IntFlag{
			Name:        "max-results",
			Usage:       "Maximum number of search results per query",
			Value:       5,
			Sources:     cli.EnvVars("COURSECHAT_MAX_RESULTS"),
			Destination: &cfg.maxResults,
		},
		&cli.IntFlag{
			Name:        "embedding-dim",
			Usage:       "Embedding vector dimensionality",
			Value:       768,
			Sources:     cli.EnvVars("COURSECHAT_EMBEDDING_DIM"),
			Destination: &cfg.embeddingDim,
		},
	}
}

// llmFlags returns flags for LLM-related configuration
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.IntFlag{
			Name:        "max-rounds",
			Usage:       "Maximum tool-calling rounds per question",
			Value:       2,
			Sources:     cli.EnvVars("COURSECHAT_MAX_ROUNDS"),
			Destination: &cfg.maxRounds,
		},
	}
}

// repoFlags returns flags for conversation persistence
func repoFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID for Firestore",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.firestoreDatabase,
		},
	}
}

// setupLogger installs the default logger at the configured level
func (cfg *config) setupLogger() {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation)
}

// newIndex creates the retrieval index over ChromaDB
func (cfg *config) newIndex(gemini adapter.Gemini) (*index.Index, error) {
	db, err := adapter.NewChroma(cfg.chromaURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chroma client")
	}

	return index.New(db, gemini,
		index.WithMaxResults(int(cfg.maxResults)),
		index.WithEmbeddingDim(int(cfg.embeddingDim)),
	), nil
}

// newRegistry creates the tool registry backed by the index
func (cfg *config) newRegistry(idx *index.Index) (*tool.Registry, error) {
	return tool.New(
		tool.NewSearch(idx),
		tool.NewOutline(idx),
	)
}

// newRepository creates a new repository instance, or nil when persistence
// is not configured
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.firestoreProject == "" {
		return nil, nil
	}

	repo, err := repository.NewFirestore(ctx, cfg.firestoreProject, cfg.firestoreDatabase)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newSession assembles a chat session from the configured components
func (cfg *config) newSession(ctx context.Context, conversationID string) (*chat.Session, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	idx, err := cfg.newIndex(gemini)
	if err != nil {
		return nil, err
	}

	registry, err := cfg.newRegistry(idx)
	if err != nil {
		return nil, err
	}

	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	return chat.New(ctx, chat.NewInput{
		Gemini:         gemini,
		Registry:       registry,
		Repo:           repo,
		ConversationID: model.ConversationID(conversationID),
		MaxRounds:      int(cfg.maxRounds),
	})
}
