package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"chakravyuh-round/internal/auth"
	"chakravyuh-round/internal/config"
	"chakravyuh-round/internal/domain"
	"chakravyuh-round/internal/infra/postgres"
	redisinfra "chakravyuh-round/internal/infra/redis"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile is the provisioning document loaded by the seed command.
type seedFile struct {
	Teams []struct {
		Code        string `yaml:"code"`
		Name        string `yaml:"name"`
		AccessToken string `yaml:"access_token"`
		Dummy       bool   `yaml:"dummy"`
	} `yaml:"teams"`
	Judges []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"judges"`
	Questions []struct {
		ID        int64             `yaml:"id"`
		Set       int               `yaml:"set"`
		Type      string            `yaml:"type"`
		Text      string            `yaml:"text"`
		Options   map[string]string `yaml:"options"`
		Answer    string            `yaml:"answer"`
		MaxPoints int               `yaml:"max_points"`
	} `yaml:"questions"`
}

// NewSeedCmd provisions teams, judges and the question bank.
func NewSeedCmd(configPath *string) *cobra.Command {
	var seedPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load teams, judges and questions from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, seedPath)
		},
	}
	cmd.Flags().StringVar(&seedPath, "file", "config/seed.yaml", "path to seed YAML")
	return cmd
}

func runSeed(ctx context.Context, configPath, seedPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return err
	}
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	teams, judges, questions, err := doc.toDomain()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := runMigrations(ctx, db); err != nil {
		return err
	}
	store := postgres.NewStore(db)

	if err := store.EnsureRoundConfig(ctx, domain.DefaultRoundConfig()); err != nil {
		return err
	}
	if err := store.UpsertTeams(ctx, teams); err != nil {
		return err
	}
	if err := store.UpsertJudges(ctx, judges); err != nil {
		return err
	}
	inserted, err := store.InsertQuestions(ctx, questions)
	if err != nil {
		return err
	}
	logger.Info("seed applied", "teams", len(teams), "judges", len(judges), "questions", inserted)

	if inserted > 0 && cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer client.Close()
		cache := redisinfra.NewBankCache(client, store, time.Minute)
		if err := cache.Invalidate(ctx); err != nil {
			logger.Warn("could not drop cached question bank", "error", err)
		}
	}
	return nil
}

func (doc seedFile) toDomain() ([]domain.Team, []domain.Judge, []domain.Question, error) {
	teams := make([]domain.Team, 0, len(doc.Teams))
	for _, t := range doc.Teams {
		if t.Code == "" || t.AccessToken == "" {
			return nil, nil, nil, fmt.Errorf("team %q needs a code and an access token", t.Name)
		}
		teams = append(teams, domain.Team{Code: t.Code, Name: t.Name, AccessToken: t.AccessToken, IsDummy: t.Dummy})
	}

	judges := make([]domain.Judge, 0, len(doc.Judges))
	for _, j := range doc.Judges {
		hash, err := auth.HashPassword(j.Password)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("hash password for %s: %w", j.Username, err)
		}
		judges = append(judges, domain.Judge{Username: j.Username, PasswordHash: hash})
	}

	questions := make([]domain.Question, 0, len(doc.Questions))
	for _, q := range doc.Questions {
		kind := domain.QuestionKind(q.Type)
		switch kind {
		case domain.KindMCQ:
			if _, ok := q.Options[q.Answer]; !ok {
				return nil, nil, nil, fmt.Errorf("question %d: answer %q is not an option", q.ID, q.Answer)
			}
		case domain.KindDescriptive:
		default:
			return nil, nil, nil, fmt.Errorf("question %d: unknown type %q", q.ID, q.Type)
		}
		questions = append(questions, domain.Question{
			ID:            q.ID,
			SetID:         q.Set,
			Kind:          kind,
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.Answer,
			MaxPoints:     q.MaxPoints,
		})
	}
	return teams, judges, questions, nil
}
